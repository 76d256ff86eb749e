package main

import "testing"

func TestCoalesceEmptyYieldsZeroSegment(t *testing.T) {
	seg, err := CoalesceSegments(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Start != 0 || seg.Size != 0 {
		t.Fatalf("expected empty zero segment, got %+v", seg)
	}
}

func TestCoalesceFillsGapsWithZeroes(t *testing.T) {
	segs := []Segment{
		{Start: 0x1000, Data: []byte{1, 2}},
		{Start: 0x1004, Data: []byte{3, 4}},
	}
	seg, err := CoalesceSegments(segs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{1, 2, 0, 0, 3, 4}
	if string(seg.Data) != string(want) {
		t.Fatalf("expected %v, got %v", want, seg.Data)
	}
}

func TestCoalesceOutOfOrderSegments(t *testing.T) {
	segs := []Segment{
		{Start: 0x2000, Data: []byte{9}},
		{Start: 0x1000, Data: []byte{1}},
	}
	seg, err := CoalesceSegments(segs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg.Start != 0x1000 {
		t.Fatalf("expected start 0x1000, got 0x%04X", seg.Start)
	}
}

func TestCoalesceRejectsOverlap(t *testing.T) {
	segs := []Segment{
		{Start: 0x1000, Data: []byte{1, 2, 3}},
		{Start: 0x1001, Data: []byte{9}},
	}
	if _, err := CoalesceSegments(segs); err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestCoalesceRejectsOverflow(t *testing.T) {
	segs := []Segment{
		{Start: 0xFFFE, Data: []byte{1, 2, 3, 4}},
	}
	if _, err := CoalesceSegments(segs); err == nil {
		t.Fatal("expected 64 KiB overflow error")
	}
}
