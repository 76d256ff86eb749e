package main

import "testing"

func TestDecodeRawSingleSegmentAtZero(t *testing.T) {
	rec := DecodeRaw([]byte{1, 2, 3, 4}, "game.bin")
	if len(rec.Segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(rec.Segments))
	}
	if rec.Segments[0].Start != 0 {
		t.Fatalf("expected start 0, got 0x%04X", rec.Segments[0].Start)
	}
	if rec.Name != "GAME" {
		t.Fatalf("expected default name GAME, got %q", rec.Name)
	}
	if rec.Type != TypeBinary {
		t.Fatalf("expected TypeBinary, got %v", rec.Type)
	}
}

func TestDefaultNameFromBaseTruncatesAndUppercases(t *testing.T) {
	got := defaultNameFromBase("averylongfilename.bin")
	if got != "AVERYLON" {
		t.Fatalf("expected truncated uppercased name, got %q", got)
	}
}
