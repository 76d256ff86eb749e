package main

import (
	"encoding/binary"
	"testing"
)

func buildDragonDOSFile(typ byte, start, size, exec uint16, payload []byte) []byte {
	out := make([]byte, dragonDOSHeaderSize)
	out[0] = dragonDOSLeadByte
	out[1] = typ
	binary.BigEndian.PutUint16(out[2:4], start)
	binary.BigEndian.PutUint16(out[4:6], size)
	binary.BigEndian.PutUint16(out[6:8], exec)
	out[8] = dragonDOSTailByte
	return append(out, payload...)
}

func TestDecodeDragonDOSWellFormed(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := buildDragonDOSFile(2, 0x3000, uint16(len(payload)), 0x3000, payload)

	rec, warnings, err := DecodeDragonDOS(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if rec.Load != 0x3000 || rec.Exec != 0x3000 {
		t.Fatalf("unexpected load/exec: %+v", rec)
	}
	if rec.Type != TypeBinary {
		t.Fatalf("expected TypeBinary, got %v", rec.Type)
	}
	if string(rec.Segments[0].Data) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestDecodeDragonDOSBadLeadByte(t *testing.T) {
	data := buildDragonDOSFile(2, 0x3000, 1, 0x3000, []byte{0x00})
	data[0] = 0x00
	if _, _, err := DecodeDragonDOS(data); err == nil {
		t.Fatal("expected error for bad lead byte")
	}
}

func TestDecodeDragonDOSShortPayloadWarns(t *testing.T) {
	data := buildDragonDOSFile(2, 0x3000, 10, 0x3000, []byte{0x01, 0x02})
	rec, warnings, err := DecodeDragonDOS(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a short-read warning")
	}
	if rec.Segments[0].Size != 2 {
		t.Fatalf("expected truncated segment of 2 bytes, got %d", rec.Segments[0].Size)
	}
}

func TestDecodeDragonDOSTooShort(t *testing.T) {
	if _, _, err := DecodeDragonDOS([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for file too short for header")
	}
}
