// cas_writer.go - CAS block-stream writer (C6, spec §4.6).

package main

import "io"

const casIdleFillerBytes = 94

// CASWriter implements BlockSink by writing block bytes straight to the
// output sink, no waveform synthesis, no timing role distinction.
type CASWriter struct {
	w io.Writer
}

func NewCASWriter(w io.Writer) *CASWriter {
	return &CASWriter{w: w}
}

func (c *CASWriter) WriteIdlePrelude() error {
	filler := make([]byte, casIdleFillerBytes)
	for i := range filler {
		filler[i] = 0x55
	}
	_, err := c.w.Write(filler)
	return err
}

func (c *CASWriter) WriteRun(data []byte, _ TimingRole) error {
	_, err := c.w.Write(data)
	return err
}
