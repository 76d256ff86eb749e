package main

import "testing"

func TestFilenameBlockPayloadEncodesTypeByte(t *testing.T) {
	payload := filenameBlockPayload("HI", TypeBinary, 0x1000, 0x1000)
	if len(payload) != 15 {
		t.Fatalf("expected 15-byte payload, got %d", len(payload))
	}
	if payload[8] != byte(TypeBinary) {
		t.Fatalf("expected TYPE_BINARY (0x%02X) at offset 8, got 0x%02X", byte(TypeBinary), payload[8])
	}
}

func TestPadNameTruncatesAndSpacePads(t *testing.T) {
	got := padName("HI")
	if got != "HI      " || len(got) != 8 {
		t.Fatalf("expected 8-char space-padded name, got %q", got)
	}
	if got := padName("LONGERNAME"); got != "LONGERNA" {
		t.Fatalf("expected name truncated to 8 chars, got %q", got)
	}
}
