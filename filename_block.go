// filename_block.go - filename-block payload encoding (spec §3).

package main

import (
	"encoding/binary"
	"strings"
)

const (
	encodingBinary = 0x00
	encodingASCII  = 0xFF
	gapContinuous  = 0x00
	gapGapped      = 0xFF
)

// padName uppercases and space-pads name to 8 characters, truncating
// anything longer (spec §3 FileRecord invariant).
func padName(name string) string {
	name = strings.ToUpper(name)
	if len(name) > 8 {
		name = name[:8]
	}
	for len(name) < 8 {
		name += " "
	}
	return name
}

// filenameBlockPayload builds the fixed 15-byte filename block body:
// name[8], type, encoding, gap, exec_be, load_be.
func filenameBlockPayload(name string, typ FileType, exec, load uint16) []byte {
	out := make([]byte, 15)
	copy(out[0:8], padName(name))
	out[8] = byte(typ)
	out[9] = encodingBinary
	out[10] = gapContinuous
	binary.BigEndian.PutUint16(out[11:13], exec)
	binary.BigEndian.PutUint16(out[13:15], load)
	return out
}
