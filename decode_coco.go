// decode_coco.go - CoCo/DECB binary container decoder (C1, spec §4.1).

package main

import (
	"encoding/binary"
	"fmt"
)

const (
	decbChunkData = 0x00
	decbChunkEOF  = 0xFF
)

// DecodeCoCo parses a stream of DECB chunks. A 0x00 chunk is a data
// segment (size, start, payload); a 0xFF chunk either declares the whole
// file BASIC (when no data segment has been seen yet) or terminates a
// binary file with its exec address. Short reads and unknown chunk
// types are warnings that stop the scan rather than fatal errors
// (spec §7, §4.1).
func DecodeCoCo(data []byte) (rec *FileRecord, warnings []string, err error) {
	var segments []Segment
	var exec uint16
	hasExec := false
	typ := TypeBinary

	pos := 0
	for pos < len(data) {
		chunkType := data[pos]
		pos++

		switch chunkType {
		case decbChunkData:
			if pos+4 > len(data) {
				warnings = append(warnings, "coco: short read in data chunk header")
				pos = len(data)
				break
			}
			size := binary.BigEndian.Uint16(data[pos : pos+2])
			start := binary.BigEndian.Uint16(data[pos+2 : pos+4])
			pos += 4

			end := pos + int(size)
			if end > len(data) {
				warnings = append(warnings, fmt.Sprintf(
					"coco: short read, expected %d payload bytes, got %d", size, len(data)-pos))
				end = len(data)
			}
			payload := data[pos:end]
			pos = end

			segments = append(segments, Segment{
				Start: start,
				Size:  uint32(len(payload)),
				Data:  append([]byte(nil), payload...),
			})

		case decbChunkEOF:
			if len(segments) == 0 {
				if pos+2 > len(data) {
					warnings = append(warnings, "coco: short read in BASIC EOF chunk")
					pos = len(data)
					break
				}
				size := binary.BigEndian.Uint16(data[pos : pos+2])
				pos += 2

				end := pos + int(size)
				if end > len(data) {
					warnings = append(warnings, fmt.Sprintf(
						"coco: short read, expected %d BASIC bytes, got %d", size, len(data)-pos))
					end = len(data)
				}
				payload := data[pos:end]
				pos = end

				typ = TypeBasic
				segments = []Segment{{
					Start: 0,
					Size:  uint32(len(payload)),
					Data:  append([]byte(nil), payload...),
				}}
				exec = 0
				hasExec = true
				pos = len(data)
			} else {
				if pos+2 > len(data) {
					warnings = append(warnings, "coco: short read in binary EOF chunk")
					pos = len(data)
					break
				}
				size := binary.BigEndian.Uint16(data[pos : pos+2])
				pos += 2
				if size != 0 {
					warnings = append(warnings, fmt.Sprintf(
						"coco: EXEC segment with non-zero size %d", size))
				}
				if pos+2 > len(data) {
					warnings = append(warnings, "coco: short read in exec address")
					pos = len(data)
					break
				}
				exec = binary.BigEndian.Uint16(data[pos : pos+2])
				pos += 2
				hasExec = true
				pos = len(data)
			}

		default:
			warnings = append(warnings, fmt.Sprintf("coco: unknown chunk type 0x%02X, stopping", chunkType))
			pos = len(data)
		}
	}

	if len(segments) == 0 && !hasExec {
		return nil, warnings, fmt.Errorf("coco: no segments decoded")
	}

	rec = &FileRecord{
		Type:     typ,
		Exec:     exec,
		HasExec:  hasExec,
		Segments: segments,
	}
	return rec, warnings, nil
}
