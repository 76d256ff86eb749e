// verbose.go - block-trace mode (spec expansion; SUPPLEMENTED FEATURES).
// Mirrors terminal_host.go's term.State usage: gate extra output on
// whether stderr is actually a terminal, so piping tapeforge's output
// into another tool doesn't interleave trace lines with real errors.

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// traceSink wraps a BlockSink, logging one line per block/run to stderr
// when enabled and attached to a terminal.
type traceSink struct {
	BlockSink
	enabled bool
}

func newTraceSink(sink BlockSink, verbose bool) BlockSink {
	if !verbose || !term.IsTerminal(int(os.Stderr.Fd())) {
		return sink
	}
	return &traceSink{BlockSink: sink, enabled: true}
}

func (t *traceSink) WriteRun(data []byte, role TimingRole) error {
	if t.enabled {
		fmt.Fprintf(os.Stderr, "tapeforge: run %d bytes role=%d\n", len(data), role)
	}
	return t.BlockSink.WriteRun(data, role)
}
