// compress.go - external dzip compressor gateway (C3, spec §4.3, §5).
//
// Grounded on two idioms from the corpus: the piped-subprocess pattern
// ehbasic_test.go and rotozoomer_tables_test.go use to drive external
// assemblers via exec.Command, and the temp-file round-trip
// lhasa_linux.go's DecompressLHAData falls back to when a host can't
// stream bytes through a child's stdio.

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
)

// Compressor is a bytes-in, bytes-out transform. It has two
// implementations so C9 never needs to know which one a given host used.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// PipedCompressor spawns "dzip -c" and streams through stdin/stdout.
type PipedCompressor struct {
	Path string // defaults to "dzip" on PATH when empty
}

func (p PipedCompressor) bin() string {
	if p.Path != "" {
		return p.Path
	}
	return "dzip"
}

func (p PipedCompressor) Compress(data []byte) ([]byte, error) {
	cmd := exec.Command(p.bin(), "-c")
	cmd.Stdin = bytes.NewReader(data)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dzip: %w: %s", err, stderr.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("dzip: produced empty output")
	}
	return out.Bytes(), nil
}

// TempFileCompressor writes the segment to a temp directory and invokes
// "dzip -k FILE", for hosts that cannot reliably pipe stdio to a child.
type TempFileCompressor struct {
	Path string
}

func (t TempFileCompressor) bin() string {
	if t.Path != "" {
		return t.Path
	}
	return "dzip"
}

func (t TempFileCompressor) Compress(data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "tapeforge-dzip-*")
	if err != nil {
		return nil, fmt.Errorf("dzip: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := dir + "/segment.bin"
	if err := os.WriteFile(inPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("dzip: write temp input: %w", err)
	}

	cmd := exec.Command(t.bin(), "-k", inPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dzip: %w: %s", err, stderr.String())
	}

	out, err := os.ReadFile(inPath + ".dz")
	if err != nil {
		return nil, fmt.Errorf("dzip: read temp output: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("dzip: produced empty output")
	}
	return out, nil
}

// CompressSegment runs seg.Data through c and rewrites seg in place to
// carry the compressed bytes plus the original size needed to reverse
// the in-place unpack at autorun time (spec §4.3).
func CompressSegment(c Compressor, seg *Segment) error {
	compressed, err := c.Compress(seg.Data)
	if err != nil {
		return err
	}
	seg.OSize = seg.Size
	seg.Data = compressed
	seg.Size = uint32(len(compressed))
	seg.Dzip = true
	return nil
}
