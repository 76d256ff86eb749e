// decode_raw.go - raw binary container decoder (C1, spec §4.1).

package main

import "strings"

// DecodeRaw treats the whole input as one segment loaded at address 0.
// baseName is the input file's basename; its part before the first '.',
// truncated to 8 characters and uppercased, is the default tape name,
// the same defaulting rule the driver applies after a decoder runs.
func DecodeRaw(data []byte, baseName string) *FileRecord {
	rec := &FileRecord{
		Type: TypeBinary,
		Segments: []Segment{{
			Start: 0,
			Size:  uint32(len(data)),
			Data:  append([]byte(nil), data...),
		}},
	}
	rec.Name = defaultNameFromBase(baseName)
	return rec
}

func defaultNameFromBase(baseName string) string {
	name := baseName
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if len(name) > 8 {
		name = name[:8]
	}
	return strings.ToUpper(name)
}
