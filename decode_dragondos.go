// decode_dragondos.go - DragonDOS binary container decoder (C1, spec §4.1).

package main

import (
	"encoding/binary"
	"fmt"
)

const (
	dragonDOSHeaderSize = 9
	dragonDOSLeadByte   = 0x55
	dragonDOSTailByte   = 0xAA
)

// DecodeDragonDOS parses a DragonDOS binary file: a fixed 9-byte header
// (lead byte, type, start, size, exec, tail byte) followed by size
// payload bytes. A short payload read is a warning, not a fatal error
// (spec §7): the segment is truncated to whatever was actually present.
func DecodeDragonDOS(data []byte) (rec *FileRecord, warnings []string, err error) {
	if len(data) < dragonDOSHeaderSize {
		return nil, nil, fmt.Errorf("dragondos: file too short for header (%d bytes)", len(data))
	}
	if data[0] != dragonDOSLeadByte {
		return nil, nil, fmt.Errorf("dragondos: bad lead byte 0x%02X", data[0])
	}
	if data[8] != dragonDOSTailByte {
		return nil, nil, fmt.Errorf("dragondos: bad tail byte 0x%02X", data[8])
	}

	typeByte := data[1]
	start := binary.BigEndian.Uint16(data[2:4])
	size := binary.BigEndian.Uint16(data[4:6])
	exec := binary.BigEndian.Uint16(data[6:8])

	payload := data[dragonDOSHeaderSize:]
	if len(payload) < int(size) {
		warnings = append(warnings, fmt.Sprintf(
			"dragondos: short read, expected %d payload bytes, got %d", size, len(payload)))
	} else {
		payload = payload[:size]
	}

	rec = &FileRecord{
		Type:    mapDragonDOSType(typeByte),
		Load:    start,
		Exec:    exec,
		HasLoad: true,
		HasExec: true,
		Segments: []Segment{{
			Start: start,
			Size:  uint32(len(payload)),
			Data:  append([]byte(nil), payload...),
		}},
	}
	return rec, warnings, nil
}

func mapDragonDOSType(b byte) FileType {
	switch b {
	case 1:
		return TypeBasic
	case 2:
		return TypeBinary
	default:
		return TypeBinary
	}
}
