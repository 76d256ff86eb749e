package main

import (
	"bytes"
	"testing"
)

func oneFileStep(load, exec uint16) AutorunStep {
	return AutorunStep{
		Kind: StepFile,
		File: &FileRecord{
			Name:     "GAME",
			Type:     TypeBinary,
			Load:     load,
			Exec:     exec,
			HasLoad:  true,
			HasExec:  true,
			Segments: []Segment{{Start: load, Data: []byte{0xAA, 0xBB, 0xCC}}},
		},
	}
}

func TestBuildAutorunHeaderLayout(t *testing.T) {
	steps := []AutorunStep{oneFileStep(0x3000, 0x3000)}
	result, err := BuildAutorun("GAME", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.MainLoader) < 15 {
		t.Fatalf("expected at least 15 header bytes, got %d", len(result.MainLoader))
	}
	if result.MainLoader[8] != byte(TypeBinary) {
		t.Fatalf("expected TYPE_BINARY at offset 8, got 0x%02X", result.MainLoader[8])
	}
	if result.MainLoader[9] != 0x3A {
		t.Fatalf("expected colon byte 0x3A at offset 9, got 0x%02X", result.MainLoader[9])
	}
	if result.MainLoader[11] != 0x00 || result.MainLoader[12] != byte(jumpStubOrg&0xFF) {
		t.Fatalf("expected jump-stub address at offset 11-12, got %02X %02X",
			result.MainLoader[11], result.MainLoader[12])
	}
}

func TestBuildAutorunJumpStubIsFiveBytes(t *testing.T) {
	steps := []AutorunStep{oneFileStep(0x3000, 0x3000)}
	result, err := BuildAutorun("GAME", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.JumpStub) != 5 {
		t.Fatalf("expected 5-byte jump stub, got %d", len(result.JumpStub))
	}
	if result.JumpStub[2] != op6809JmpExt {
		t.Fatalf("expected JMP opcode at offset 2, got 0x%02X", result.JumpStub[2])
	}
}

func TestBuildAutorunRequiresAnExecAddress(t *testing.T) {
	rec := &FileRecord{
		Name:     "NOEXEC",
		Segments: []Segment{{Start: 0x1000, Data: []byte{1}}},
	}
	_, err := BuildAutorun("NOEXEC", []AutorunStep{{Kind: StepFile, File: rec}}, false)
	if err == nil {
		t.Fatal("expected error when no step provides an exec address")
	}
}

func TestBuildAutorunFilePlanTracksLoadAddress(t *testing.T) {
	steps := []AutorunStep{oneFileStep(0x4000, 0x4000)}
	result, err := BuildAutorun("GAME", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.FilePlan) != 1 || result.FilePlan[0].Load != 0x4000 {
		t.Fatalf("unexpected file plan: %+v", result.FilePlan)
	}
}

func TestBuildAutorunSuppressesRedundantVdgPokes(t *testing.T) {
	steps := []AutorunStep{
		{Kind: StepSetVdg, Value: 0x08},
		{Kind: StepSetVdg, Value: 0x08},
		oneFileStep(0x3000, 0x3000),
	}
	withDup, err := BuildAutorun("GAME", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	single := []AutorunStep{
		{Kind: StepSetVdg, Value: 0x08},
		oneFileStep(0x3000, 0x3000),
	}
	withoutDup, err := BuildAutorun("GAME", single, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(withDup.MainLoader) != len(withoutDup.MainLoader) {
		t.Fatalf("expected redundant VDG poke to be suppressed: %d vs %d bytes",
			len(withDup.MainLoader), len(withoutDup.MainLoader))
	}
}

func TestBuildAutorunFlashAddrTracksLastSamF(t *testing.T) {
	steps := []AutorunStep{
		{Kind: StepSetSamF, Value: 7},
		oneFileStep(0x3000, 0x3000),
	}
	steps[1].File.Flasher = true
	result, err := BuildAutorun("GAME", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.MainLoader) == 0 {
		t.Fatal("expected non-empty main loader")
	}

	// sam-f 7 -> flash_addr = 7*512 = 0x0E00, referenced by the flasher.
	want := []byte{
		op6809LdaExt, 0x0E, 0x00,
		op6809EoraImm, 0xFF,
		op6809StaExt, 0x0E, 0x00,
		op6809Rts,
	}
	if !bytes.Contains(result.MainLoader, want) {
		t.Fatalf("expected flash_addr 0x0E00 after --sam-f 7, main loader bytes: % X", result.MainLoader)
	}
}

func TestFlashAddrDefaultsTo0x0400WithoutSamF(t *testing.T) {
	rec := &FileRecord{
		Name:     "GAME",
		Type:     TypeBinary,
		Exec:     0x3000,
		HasExec:  true,
		Flasher:  true,
		Segments: []Segment{{Start: 0x3000, Data: []byte{0xAA}}},
	}
	steps := []AutorunStep{{Kind: StepFile, File: rec}}
	result, err := BuildAutorun("GAME", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{
		op6809LdaExt, 0x04, 0x00,
		op6809EoraImm, 0xFF,
		op6809StaExt, 0x04, 0x00,
		op6809Rts,
	}
	if !bytes.Contains(result.MainLoader, want) {
		t.Fatalf("expected flash_addr to default to 0x0400 when no SetSamF step ran, main loader bytes: % X", result.MainLoader)
	}
}

func TestEmitFileLoadAppliesZloadInPlaceFormula(t *testing.T) {
	rec := &FileRecord{
		Name:    "SCREEN",
		Type:    TypeBinary,
		Exec:    0x3000,
		HasExec: true,
		Segments: []Segment{{
			Start: 0x0E00,
			Dzip:  true,
			OSize: 1536,
			Size:  200,
			Data:  make([]byte, 200),
		}},
	}
	steps := []AutorunStep{{Kind: StepFile, File: rec}}
	result, err := BuildAutorun("SCREEN", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantZload := uint16(0x0E00) + 1536 + 1 - 200
	if len(result.FilePlan) != 1 || result.FilePlan[0].Load != wantZload {
		t.Fatalf("expected zload 0x%04X, got %+v", wantZload, result.FilePlan)
	}
}

func TestDunzipRoutineIsNotAStub(t *testing.T) {
	rec := &FileRecord{
		Name:    "SCREEN",
		Type:    TypeBinary,
		Exec:    0x3000,
		HasExec: true,
		Segments: []Segment{{
			Start: 0x0E00,
			Dzip:  true,
			OSize: 1536,
			Size:  200,
			Data:  make([]byte, 200),
		}},
	}
	steps := []AutorunStep{{Kind: StepFile, File: rec}}
	result, err := BuildAutorun("SCREEN", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A bare NOP;RTS stub would never contain the end-of-input compare
	// or the indexed-addressing copy loop; a real decoder must.
	if !bytes.Contains(result.MainLoader, []byte{op6809CmpxDir, dunzipEndZP}) {
		t.Fatal("expected code_dunzip to compare against the stashed end address")
	}
	if !bytes.Contains(result.MainLoader, []byte{op6809LdaIdx, idxPostIncX}) {
		t.Fatal("expected code_dunzip to read compressed bytes via indexed auto-increment")
	}
	if !bytes.Contains(result.MainLoader, []byte{op6809StaIdx, idxPostIncU}) {
		t.Fatal("expected code_dunzip to write decompressed bytes via indexed auto-increment")
	}
}

func TestEmitFileLoadHonorsExplicitZload(t *testing.T) {
	rec := &FileRecord{
		Name:     "SCREEN",
		Type:     TypeBinary,
		Exec:     0x3000,
		HasExec:  true,
		ZLoad:    0x0F00,
		HasZLoad: true,
		Segments: []Segment{{
			Start: 0x0E00,
			Dzip:  true,
			OSize: 1536,
			Size:  200,
			Data:  make([]byte, 200),
		}},
	}
	steps := []AutorunStep{{Kind: StepFile, File: rec}}
	result, err := BuildAutorun("SCREEN", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.FilePlan) != 1 || result.FilePlan[0].Load != 0x0F00 {
		t.Fatalf("expected explicit zload 0x0F00 to win, got %+v", result.FilePlan)
	}
}

func TestBuildAutorunFastRequiresWAVForArchProbe(t *testing.T) {
	rec := &FileRecord{
		Name:     "FAST",
		Exec:     0x3000,
		HasExec:  true,
		Fast:     true,
		Segments: []Segment{{Start: 0x3000, Data: []byte{1}}},
	}
	steps := []AutorunStep{{Kind: StepFile, File: rec}}

	casResult, err := BuildAutorun("FAST", steps, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wavResult, err := BuildAutorun("FAST", steps, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wavResult.MainLoader) <= len(casResult.MainLoader) {
		t.Fatal("expected the WAV path to emit additional arch-probe/fast-timing code")
	}
}
