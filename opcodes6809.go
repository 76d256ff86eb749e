// opcodes6809.go - 6809 opcode constants used by the autorun composer (C9).
//
// Only the handful of addressing-mode/opcode pairs the loader actually
// needs; this is not a general 6809 instruction table.

package main

const (
	op6809LdaImm  = 0x86
	op6809LdaExt  = 0xB6
	op6809LdbImm  = 0xC6
	op6809StaExt  = 0xB7
	op6809StbExt  = 0xF7
	op6809LdxImm  = 0x8E
	op6809LdxExt  = 0xBE
	op6809StxExt  = 0xBF
	op6809LddImm  = 0xCC
	op6809LduImm  = 0xCE
	op6809StuExt  = 0xFF
	op6809LdsImmP = 0x10 // LDS immediate is the 2-byte opcode $10 $CE
	op6809LdsImm  = 0xCE
	op6809AndaImm = 0x84
	op6809OraImm  = 0x8A
	op6809EoraImm = 0x88
	op6809CmpxExt = 0xBC
	op6809IncA    = 0x4C
	op6809BneRel  = 0x26
	op6809BeqRel  = 0x27
	op6809BraRel  = 0x20
	op6809JmpExt  = 0x7E
	op6809JsrExt  = 0xBD
	op6809BsrRel  = 0x8D
	op6809Rts     = 0x39
	op6809TfrPost = 0x1F // TFR, followed by a postbyte
	op6809LslA    = 0x48
	op6809AslA    = 0x48
	op6809StdExt  = 0xFD
	op6809LdbExt  = 0xF6
	op6809NegB    = 0x50
	op6809LdaDir  = 0x96
	op6809StaDir  = 0x97
	op6809AndaDir = 0x94
	op6809TstDir  = 0x0D
)

// Addressing-mode/opcode pairs the dunzip decoder's copy-run and
// back-reference cases need: indexed auto-increment loads/stores,
// direct-page 16-bit compare/subtract/add, and the handful of inherent
// shift/increment/decrement ops a byte-at-a-time LZ unpacker uses.
const (
	op6809LdaIdx = 0xA6 // LDA indexed; paired with an idxPostInc* postbyte
	op6809StaIdx = 0xA7
	op6809LdbIdx = 0xE6

	idxPostIncX = 0x80 // ,X+
	idxPostIncY = 0xA0 // ,Y+
	idxPostIncU = 0xC0 // ,U+

	op6809CmpxDir      = 0x9C
	op6809StdDir       = 0xDD
	op6809LdbDir       = 0xD6
	op6809StbDir       = 0xD7
	op6809SubbDir      = 0xD0
	op6809AddbDir      = 0xDB
	op6809SubdDir      = 0x93
	op6809AndbImm      = 0xC4
	op6809BccRel       = 0x24 // BCC/BHS
	op6809BmiRel       = 0x2B
	op6809TstaInherent = 0x4D
	op6809IncB         = 0x5C
	op6809DecB         = 0x5A
	op6809LsrA         = 0x44
	op6809RorB         = 0x56
)

// Zero-page scratch cells the dunzip decoder uses to stash its end
// marker and per-token offset/length fields between instructions; kept
// well clear of blockTypeZP/blockLoadZP/archProbeZP below.
const (
	dunzipEndZP = 0x20 // 2 bytes: end-of-input address
	dunzipOffZP = 0x22 // 1 byte (7+7 case) or 2 bytes (14+8 case)
	dunzipLenZP = 0x24
	dunzipTmpZP = 0x25
)

// SAM registers are address-decoded on real hardware: any write to the
// clear/set address clears/sets the bit regardless of the data byte. V-bits
// (video mode) start at $FFC0, F-bits (display offset) at $FFC6.
const (
	samVBase = 0xFFC0
	samFBase = 0xFFC6
)

func samVBitAddr(bit int, set bool) uint16 { return samBankAddr(samVBase, bit, set) }
func samFBitAddr(bit int, set bool) uint16 { return samBankAddr(samFBase, bit, set) }

func samBankAddr(base uint16, bit int, set bool) uint16 {
	addr := base + uint16(bit)*2
	if set {
		addr++
	}
	return addr
}

const (
	vdgRegister = 0xFF22

	// Dragon pulse-width latches used by the architecture-probe branch.
	dragonPulseLowAddr  = 0x90
	dragonPulseHighAddr = 0x8F
	// CoCo pulse-width latches.
	cocoPulseLowAddr  = 0x92
	cocoPulseHighAddr = 0x94

	archProbeAddr = 0xA000
	archProbeBit  = 0x20

	romCSRDON = 0xA004
	romBLKIN  = 0xA006
	romOUTCH  = 0xA002

	blockTypeZP = 0x7C
	blockLoadZP = 0x7E
	archProbeZP = 0x10
)
