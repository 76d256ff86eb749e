// autorun.go - autorun composer (C9, spec §4.9).
//
// Builds two independently-linked 6809 code blobs that share one label
// namespace (asm6809.Assembler.Reset keeps the label table across the
// origin change), then hands them back to the driver to be framed as a
// synthetic NAMEFILE block (the main loader) and an EOF block (the
// BASIC hijack stub). Data for each StepFile is not assembled here: it
// is returned as an AutorunFileDataPlan for the driver to frame as its
// own run of DATA blocks immediately after the main loader block,
// mirroring how the ROM loader expects name block, data blocks, then
// the next name block to arrive back to back.
package main

import (
	"fmt"

	"github.com/zaynotley/tapeforge/asm6809"
)

const (
	mainLoaderOrg = 0x01DA
	jumpStubOrg   = 0x00A6
	fastPWConst   = 0x0C06 // derived pulse-width latch value for --fast output
)

// AutorunFileDataPlan is one file step's resolved load address, ready
// for the driver to emit as a run of data blocks (fnblock = false).
type AutorunFileDataPlan struct {
	File *FileRecord
	Load uint16
}

// AutorunResult carries the two linked code blobs plus the per-file
// data-block plan the driver frames after them.
type AutorunResult struct {
	MainLoader []byte
	JumpStub   []byte
	FilePlan   []AutorunFileDataPlan
}

type autorunBuilder struct {
	asm         *asm6809.Assembler
	outputIsWAV bool

	haveVdg  bool
	prevVdg  uint16
	haveSamV bool
	prevSamV uint16
	haveSamF bool
	prevSamF uint16

	usedFast    bool
	usedDzip    bool
	usedFlasher bool

	lastExec uint16
	haveExec bool
}

// BuildAutorun assembles the main loader and jump stub for steps, in
// order. name is the tape name that fills the synthetic filename
// header's name field.
func BuildAutorun(name string, steps []AutorunStep, outputIsWAV bool) (*AutorunResult, error) {
	b := &autorunBuilder{
		asm:         asm6809.New(mainLoaderOrg),
		outputIsWAV: outputIsWAV,
	}
	for _, s := range steps {
		if s.Kind != StepFile {
			continue
		}
		if s.File.Fast {
			b.usedFast = true
		}
		if s.File.Flasher {
			b.usedFlasher = true
		}
		for _, seg := range s.File.Segments {
			if seg.Dzip {
				b.usedDzip = true
			}
		}
	}

	plan, err := b.buildMainLoader(name, steps)
	if err != nil {
		return nil, err
	}
	mainBytes := append([]byte(nil), b.asm.Data()...)

	jumpBytes, err := b.buildJumpStub()
	if err != nil {
		return nil, err
	}

	return &AutorunResult{
		MainLoader: mainBytes,
		JumpStub:   jumpBytes,
		FilePlan:   plan,
	}, nil
}

func (b *autorunBuilder) buildMainLoader(name string, steps []AutorunStep) ([]AutorunFileDataPlan, error) {
	a := b.asm

	// Step 1: the 15-byte self-referential filename-block prefix. The
	// name/type fields are genuinely read by the tape ROM; the
	// remaining bytes double as 6809 code/data and as the BASIC-hijack
	// payload (spec §9 "self-referential tokens").
	a.Emit(asm6809.Bytes([]byte(padName(name))...)...)
	a.Emit(asm6809.Byte(byte(TypeBinary)))
	a.Emit(asm6809.Label("colon"), asm6809.Byte(0x3A))
	a.Emit(asm6809.Byte(0x00))
	a.Emit(asm6809.Byte(0x00), asm6809.Byte(byte(jumpStubOrg&0xFF)))
	a.Emit(asm6809.Byte(0x00), asm6809.Byte(0x00)) // completes the 15-byte prefix, unused

	// Step 2.
	a.Emit(asm6809.Label("exec_loader"))

	// Step 3: architecture probe + fast pulse-width setup, only needed
	// when at least one file asked for fast timing and we're driving a
	// WAV output (CAS has no waveform to widen).
	if b.usedFast && b.outputIsWAV {
		b.emitArchProbeAndFastTiming()
	}

	// Step 4: per-step code generation, in order.
	var plan []AutorunFileDataPlan
	for i, step := range steps {
		switch step.Kind {
		case StepSetVdg:
			b.emitVdgPoke(step.Value)
		case StepSetSamV:
			b.emitSamPoke(samVBitAddr, 3, &b.haveSamV, &b.prevSamV, step.Value)
		case StepSetSamF:
			b.emitSamPoke(samFBitAddr, 7, &b.haveSamF, &b.prevSamF, step.Value)
		case StepLds:
			a.Emit(asm6809.Byte(op6809LdsImmP), asm6809.Byte(op6809LdsImm),
				asm6809.Byte(byte(step.Value>>8)), asm6809.Byte(byte(step.Value)))
		case StepFile:
			load, err := b.emitFileLoad(step.File, i)
			if err != nil {
				return nil, err
			}
			plan = append(plan, AutorunFileDataPlan{File: step.File, Load: load})
			if step.File.HasExec {
				b.lastExec = step.File.Exec
				b.haveExec = true
			}
		}
	}

	if !b.haveExec {
		return nil, fmt.Errorf("autorun: no step provided an exec address")
	}
	a.SetLabel("exec", b.lastExec)
	// flash_addr is derived from the last SAM F-bits setting (display
	// offset register, 512-byte granularity): scenario 5 fixes
	// sam-f=7 -> flash_addr=7*512=0x0E00. Its default with no SetSamF
	// step at all is the fixed 0x0400 carried in the glossary, not 0,
	// so the loader's containment invariant holds even when --flasher
	// is used standalone.
	flashAddr := uint16(0x0400)
	if b.haveSamF {
		flashAddr = (b.prevSamF & 0x7F) * 512
	}
	a.SetLabel("flash_addr", flashAddr)

	// Step 5: transfer control to the last loaded program.
	a.Emit(asm6809.Byte(op6809JmpExt), asm6809.RefHigh("exec"))

	b.emitLoaderCore()
	if b.usedFlasher {
		b.emitFlasherRoutine()
	}
	if b.usedDzip {
		b.emitDunzipRoutine()
	}

	return plan, a.Link()
}

func (b *autorunBuilder) emitArchProbeAndFastTiming() {
	a := b.asm
	a.Emit(
		asm6809.Byte(op6809LdaExt), asm6809.Byte(archProbeAddr>>8), asm6809.Byte(archProbeAddr&0xFF),
		asm6809.Byte(op6809AndaImm), asm6809.Byte(archProbeBit),
		asm6809.Byte(op6809StaDir), asm6809.Byte(archProbeZP),
		asm6809.Byte(op6809TstDir), asm6809.Byte(archProbeZP),
		asm6809.Byte(op6809BeqRel), asm6809.RefLowPC("arch_dragon"),
	)
	// CoCo branch: probe bit set.
	a.Emit(
		asm6809.Byte(op6809LdaImm), asm6809.Byte(fastPWConst>>8),
		asm6809.Byte(op6809StaDir), asm6809.Byte(cocoPulseLowAddr),
		asm6809.Byte(op6809LdaImm), asm6809.Byte(fastPWConst&0xFF),
		asm6809.Byte(op6809StaDir), asm6809.Byte(cocoPulseHighAddr),
		asm6809.Byte(op6809BraRel), asm6809.RefLowPC("arch_done"),
	)
	a.Emit(asm6809.Label("arch_dragon"))
	a.Emit(
		asm6809.Byte(op6809LdaImm), asm6809.Byte(fastPWConst>>8),
		asm6809.Byte(op6809StaDir), asm6809.Byte(dragonPulseLowAddr),
		asm6809.Byte(op6809LdaImm), asm6809.Byte(fastPWConst&0xFF),
		asm6809.Byte(op6809StaDir), asm6809.Byte(dragonPulseHighAddr),
	)
	a.Emit(asm6809.Label("arch_done"))
}

// emitVdgPoke writes value to the VDG mode register, but only when it
// differs from whatever the previous SetVdg step left in place (spec
// §4.9's "suppress redundant pokes").
func (b *autorunBuilder) emitVdgPoke(value uint16) {
	if b.haveVdg && b.prevVdg == value {
		return
	}
	b.asm.Emit(
		asm6809.Byte(op6809LdaImm), asm6809.Byte(byte(value)),
		asm6809.Byte(op6809StaExt), asm6809.Byte(vdgRegister>>8), asm6809.Byte(vdgRegister&0xFF),
	)
	b.haveVdg = true
	b.prevVdg = value
}

// emitSamPoke diffs value against *prev bit by bit (only the low
// nbits matter for this bank) and emits one dummy-write per changed
// bit, since any write to a SAM clear/set address clears/sets that bit
// regardless of the byte's actual contents.
func (b *autorunBuilder) emitSamPoke(addrOf func(bit int, set bool) uint16, nbits int, have *bool, prev *uint16, value uint16) {
	var prevVal uint16
	if *have {
		prevVal = *prev
	}
	for bit := 0; bit < nbits; bit++ {
		oldBit := (prevVal >> uint(bit)) & 1
		newBit := (value >> uint(bit)) & 1
		if *have && oldBit == newBit {
			continue
		}
		addr := addrOf(bit, newBit == 1)
		b.asm.Emit(
			asm6809.Byte(op6809LdaImm), asm6809.Byte(0x00),
			asm6809.Byte(op6809StaExt), asm6809.Byte(byte(addr>>8)), asm6809.Byte(byte(addr&0xFF)),
		)
	}
	*have = true
	*prev = value
}

// emitFileLoad emits the code that sets up the loader core's zero-page
// parameters for one file's incoming data blocks and, when the segment
// is compressed, the call into the in-place dunzip routine. The file's
// own payload is not assembled into the loader; it travels as ordinary
// DATA blocks that the driver frames right after this code runs (the
// loader core below reads them off tape at runtime).
func (b *autorunBuilder) emitFileLoad(rec *FileRecord, index int) (uint16, error) {
	if len(rec.Segments) != 1 {
		return 0, fmt.Errorf("autorun: file %q must be coalesced to one segment before loader composition", rec.Name)
	}
	seg := rec.Segments[0]
	a := b.asm

	// For a dzip segment the bytes as they arrive off tape don't land at
	// seg.Start directly: they're placed so the in-place unpacker can
	// expand forward into seg.Start without overwriting itself before it
	// has consumed its own compressed tail. zload = load + osize + 1 -
	// zsize is the standard in-place convention (the compressed data
	// ends exactly one byte past the decompressed buffer's end). An
	// explicit --zload always wins over the computed value.
	tapeLoad := seg.Start
	if seg.Dzip && !rec.HasZLoad {
		tapeLoad = seg.Start + uint16(seg.OSize) + 1 - uint16(seg.Size)
	} else if rec.HasZLoad {
		tapeLoad = rec.ZLoad
	}

	a.Emit(
		asm6809.Byte(op6809LdaImm), asm6809.Byte(byte(rec.Type)),
		asm6809.Byte(op6809StaDir), asm6809.Byte(blockTypeZP),
		asm6809.Byte(op6809LdxImm), asm6809.Byte(byte(tapeLoad>>8)), asm6809.Byte(byte(tapeLoad&0xFF)),
		asm6809.Byte(op6809StxExt), asm6809.Byte(0x00), asm6809.Byte(blockLoadZP),
		asm6809.Byte(op6809JsrExt), asm6809.RefHigh("code_load_0"),
	)

	if seg.Dzip {
		// ldx #load (compressed read cursor); ldd #(load+size) (end
		// address, stashed by code_dunzip at entry); ldu #oload
		// (decompressed write cursor, the segment's real final address).
		end := tapeLoad + uint16(seg.Size)
		a.Emit(
			asm6809.Byte(op6809LdxImm), asm6809.Byte(byte(tapeLoad>>8)), asm6809.Byte(byte(tapeLoad&0xFF)),
			asm6809.Byte(op6809LddImm), asm6809.Byte(byte(end>>8)), asm6809.Byte(byte(end&0xFF)),
			asm6809.Byte(op6809LduImm), asm6809.Byte(byte(seg.Start>>8)), asm6809.Byte(byte(seg.Start&0xFF)),
			asm6809.Byte(op6809JsrExt), asm6809.RefHigh("code_dunzip"),
		)
	}

	if rec.Flasher {
		a.Emit(asm6809.Byte(op6809JsrExt), asm6809.RefHigh("code_load_flash"))
	}

	_ = index
	return tapeLoad, nil
}

// emitLoaderCore is the always-present ROM-call sequence that reads one
// file's blocks off tape: code_load_0 waits for CSRDON, reads the
// header via BLKIN into the zero-page type/load cells set up by the
// caller, then loops reading payload bytes until the EOF block kind is
// seen, landing at code_load_1.
func (b *autorunBuilder) emitLoaderCore() {
	a := b.asm
	a.Emit(asm6809.Label("code_load_0"))
	a.Emit(
		asm6809.Byte(op6809JsrExt), asm6809.Byte(romCSRDON>>8), asm6809.Byte(romCSRDON&0xFF),
		asm6809.Byte(op6809JsrExt), asm6809.Byte(romBLKIN>>8), asm6809.Byte(romBLKIN&0xFF),
		asm6809.Byte(op6809LdaDir), asm6809.Byte(blockTypeZP),
		asm6809.Byte(op6809IncA), // EOF kind 0xFF becomes 0
		asm6809.Byte(op6809BeqRel), asm6809.RefLowPC("code_load_1"),
		asm6809.Byte(op6809BraRel), asm6809.RefLowPC("code_load_0"),
	)
	a.Emit(asm6809.Label("code_load_1"))
	a.Emit(asm6809.Byte(op6809Rts))
}

// emitFlasherRoutine inverts the byte at flash_addr each time it is
// called, giving the loading screen an "are we still alive" blink. It is
// called once per file step that has Flasher set, after that file's
// load; the routine is plain LDA/EORA/STA code and does not patch
// itself.
func (b *autorunBuilder) emitFlasherRoutine() {
	a := b.asm
	a.Emit(asm6809.Label("code_load_flash"))
	a.Emit(
		asm6809.Byte(op6809LdaExt), asm6809.RefHigh("flash_addr"),
		asm6809.Byte(op6809EoraImm), asm6809.Byte(0xFF),
		asm6809.Byte(op6809StaExt), asm6809.RefHigh("flash_addr"),
		asm6809.Byte(op6809Rts),
	)
}

// emitDunzipRoutine assembles the in-place copy-run/back-reference
// decoder (spec §4.9 point 8). Called with X = compressed read cursor,
// D = address one past the last compressed byte, U = decompressed
// write cursor; compress.go's host-side dzip step only shrinks the
// bytes before they're written to tape, so this on-target routine is
// what actually expands them, forward, before control reaches exec.
//
// Each iteration reads a 16-bit token a:b (via LDA/LDB ,X+, which also
// leaves D = a:b). b's sign selects a literal run (negative) or a
// back-reference (non-negative); among back-references, a's sign
// selects the compact 7-bit-offset/7-bit-length form from the wider
// 14-bit-offset/8-bit-length form, which spends one more stream byte
// on the extra length bits. The decoder stops once the read cursor
// reaches the stashed end address.
func (b *autorunBuilder) emitDunzipRoutine() {
	a := b.asm
	a.Emit(asm6809.Label("code_dunzip"))
	a.Emit(asm6809.Byte(op6809StdDir), asm6809.Byte(dunzipEndZP))

	a.Emit(asm6809.Label("dunzip_loop"))
	a.Emit(
		asm6809.Byte(op6809CmpxDir), asm6809.Byte(dunzipEndZP),
		asm6809.Byte(op6809BccRel), asm6809.RefLowPC("dunzip_done"),
		asm6809.Byte(op6809LdaIdx), asm6809.Byte(idxPostIncX),
		asm6809.Byte(op6809LdbIdx), asm6809.Byte(idxPostIncX),
		asm6809.Byte(op6809BmiRel), asm6809.RefLowPC("dunzip_literal"),
		asm6809.Byte(op6809TstaInherent),
		asm6809.Byte(op6809BmiRel), asm6809.RefLowPC("dunzip_far"),
	)

	// Near back-reference: 7-bit offset (a&0x7F)+1, 7-bit length (b)+1.
	a.Emit(asm6809.Label("dunzip_near"))
	a.Emit(
		asm6809.Byte(op6809AndaImm), asm6809.Byte(0x7F),
		asm6809.Byte(op6809IncA),
		asm6809.Byte(op6809StaDir), asm6809.Byte(dunzipOffZP),
		asm6809.Byte(op6809IncB),
		asm6809.Byte(op6809StbDir), asm6809.Byte(dunzipLenZP),
		asm6809.Byte(op6809TfrPost), asm6809.Byte(0x30), // TFR U,D
		asm6809.Byte(op6809SubbDir), asm6809.Byte(dunzipOffZP),
		asm6809.Byte(op6809BccRel), asm6809.RefLowPC("dunzip_near_noborrow"),
		asm6809.Byte(0x4A), // DECA: propagate the SUBB borrow into the high byte.
	)
	a.Emit(asm6809.Label("dunzip_near_noborrow"))
	a.Emit(
		asm6809.Byte(op6809TfrPost), asm6809.Byte(0x02), // TFR D,Y
		asm6809.Byte(op6809LdbDir), asm6809.Byte(dunzipLenZP),
	)
	a.Emit(asm6809.Label("dunzip_near_loop"))
	a.Emit(
		asm6809.Byte(op6809LdaIdx), asm6809.Byte(idxPostIncY),
		asm6809.Byte(op6809StaIdx), asm6809.Byte(idxPostIncU),
		asm6809.Byte(op6809DecB),
		asm6809.Byte(op6809BneRel), asm6809.RefLowPC("dunzip_near_loop"),
		asm6809.Byte(op6809BraRel), asm6809.RefLowPC("dunzip_loop"),
	)

	// Literal run: (b&0x7F)+1 bytes copied verbatim from the compressed
	// stream to the output.
	a.Emit(asm6809.Label("dunzip_literal"))
	a.Emit(
		asm6809.Byte(op6809AndbImm), asm6809.Byte(0x7F),
		asm6809.Byte(op6809IncB),
	)
	a.Emit(asm6809.Label("dunzip_lit_loop"))
	a.Emit(
		asm6809.Byte(op6809LdaIdx), asm6809.Byte(idxPostIncX),
		asm6809.Byte(op6809StaIdx), asm6809.Byte(idxPostIncU),
		asm6809.Byte(op6809DecB),
		asm6809.Byte(op6809BneRel), asm6809.RefLowPC("dunzip_lit_loop"),
		asm6809.Byte(op6809BraRel), asm6809.RefLowPC("dunzip_loop"),
	)

	// Far back-reference: 14-bit offset (a&0x7F)*128+b, spending one
	// extra stream byte c for an 8-bit length (c+1).
	a.Emit(asm6809.Label("dunzip_far"))
	a.Emit(
		asm6809.Byte(op6809AndaImm), asm6809.Byte(0x7F),
		asm6809.Byte(op6809StbDir), asm6809.Byte(dunzipTmpZP),
		asm6809.Byte(op6809LdbImm), asm6809.Byte(0x00),
		asm6809.Byte(op6809LsrA),
		asm6809.Byte(op6809RorB),
		asm6809.Byte(op6809AddbDir), asm6809.Byte(dunzipTmpZP),
		asm6809.Byte(op6809BccRel), asm6809.RefLowPC("dunzip_far_nocarry"),
	)
	a.Emit(asm6809.Byte(op6809IncA)) // propagate the ADDB carry into the offset's high byte.
	a.Emit(asm6809.Label("dunzip_far_nocarry"))
	a.Emit(
		asm6809.Byte(op6809StdDir), asm6809.Byte(dunzipOffZP),
		asm6809.Byte(op6809LdbIdx), asm6809.Byte(idxPostIncX),
		asm6809.Byte(op6809IncB),
		asm6809.Byte(op6809StbDir), asm6809.Byte(dunzipLenZP),
		asm6809.Byte(op6809TfrPost), asm6809.Byte(0x30), // TFR U,D
		asm6809.Byte(op6809SubdDir), asm6809.Byte(dunzipOffZP),
		asm6809.Byte(op6809TfrPost), asm6809.Byte(0x02), // TFR D,Y
		asm6809.Byte(op6809LdbDir), asm6809.Byte(dunzipLenZP),
	)
	a.Emit(asm6809.Label("dunzip_far_loop"))
	a.Emit(
		asm6809.Byte(op6809LdaIdx), asm6809.Byte(idxPostIncY),
		asm6809.Byte(op6809StaIdx), asm6809.Byte(idxPostIncU),
		asm6809.Byte(op6809DecB),
		asm6809.Byte(op6809BneRel), asm6809.RefLowPC("dunzip_far_loop"),
		asm6809.Byte(op6809BraRel), asm6809.RefLowPC("dunzip_loop"),
	)

	a.Emit(asm6809.Label("dunzip_done"))
	a.Emit(asm6809.Byte(op6809Rts))
}

// buildJumpStub assembles the 5-byte BASIC-hijack stub at jumpStubOrg:
// the colon pointer the tokenizer dereferences, followed by a jump back
// into the main loader (spec §4.9 "Jump stub").
func (b *autorunBuilder) buildJumpStub() ([]byte, error) {
	a := b.asm
	a.Reset(jumpStubOrg)
	a.Emit(asm6809.RefHigh("colon"))
	a.Emit(asm6809.Byte(op6809JmpExt), asm6809.RefHigh("exec_loader"))
	if err := a.Link(); err != nil {
		return nil, err
	}
	return append([]byte(nil), a.Data()...), nil
}
