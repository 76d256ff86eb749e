// main.go - tapeforge command-line driver (C10, spec §5).
//
// Argument parsing is a hand-rolled walk over os.Args, in the style of
// assembler/ie64asm.go's main(): a plain for loop recognizing flags by
// prefix instead of the stdlib flag package, because several options
// here are sticky and order-sensitive per input file rather than a flat
// bag of named values.

package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const version = "tapeforge 1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tapeforge: %v\n", err)
		os.Exit(1)
	}
}

// fileOptions is the sticky per-file state the CLI walk carries forward
// until a reset rule clears part of it (spec §5 "option stickiness").
type fileOptions struct {
	mode byte // 'B' raw binary, 'D' DragonDOS, 'C' CoCo/DECB

	name     string
	hasName  bool
	load     uint16
	hasLoad  bool
	exec     uint16
	hasExec  bool
	zload    uint16
	hasZload bool

	dzip        bool
	fast        bool
	eofData     bool
	eof         bool
	flasher     bool
	fnblock     bool
	leaderCount int
	scriptPath  string
}

func newFileOptions() fileOptions {
	return fileOptions{
		mode:    'B',
		dzip:    false,
		fast:    false,
		eofData: false,
		eof:     true,
		flasher: false,
		fnblock: true,
	}
}

type driver struct {
	outputPath string
	wantCAS    bool
	wantWAV    bool
	wavRate    uint32
	timingName string
	autorun    bool
	verbose    bool

	steps   []AutorunStep
	records []*FileRecord

	opt fileOptions
}

func run(args []string) error {
	d := &driver{
		wavRate:    9600,
		timingName: "rom",
		opt:        newFileOptions(),
	}

	i := 0
	next := func(flag string) (string, error) {
		i++
		if i >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		return args[i], nil
	}

	for ; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--help" || arg == "-h":
			printUsage()
			os.Exit(0)
		case arg == "--version":
			fmt.Println(version)
			os.Exit(0)

		case arg == "-o" || arg == "--output":
			v, err := next(arg)
			if err != nil {
				return err
			}
			d.outputPath = v
		case arg == "--cas":
			d.wantCAS = true
		case arg == "--wav":
			d.wantWAV = true
		case arg == "-r" || arg == "--wav-rate":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid --wav-rate %q", v)
			}
			d.wavRate = uint32(n)
		case arg == "-t" || arg == "--timing":
			v, err := next(arg)
			if err != nil {
				return err
			}
			if _, ok := lookupTiming(v); !ok {
				return fmt.Errorf("unknown --timing %q (want rom or simple)", v)
			}
			d.timingName = v
		case arg == "--autorun":
			d.autorun = true
		case arg == "--no-autorun":
			d.autorun = false
		case arg == "-v" || arg == "--verbose":
			d.verbose = true

		case arg == "--vdg":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("--vdg: %w", err)
			}
			d.steps = append(d.steps, AutorunStep{Kind: StepSetVdg, Value: n})
		case arg == "--sam-v":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("--sam-v: %w", err)
			}
			d.steps = append(d.steps, AutorunStep{Kind: StepSetSamV, Value: n})
		case arg == "--sam-f":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("--sam-f: %w", err)
			}
			d.steps = append(d.steps, AutorunStep{Kind: StepSetSamF, Value: n})
		case arg == "--lds":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("--lds: %w", err)
			}
			d.steps = append(d.steps, AutorunStep{Kind: StepLds, Value: n})

		case arg == "-B":
			d.opt.mode = 'B'
		case arg == "-D":
			d.opt.mode = 'D'
		case arg == "-C":
			d.opt.mode = 'C'
		case arg == "--leader":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid --leader %q", v)
			}
			d.opt.leaderCount = n
		case arg == "--filename":
			d.opt.fnblock = true
		case arg == "--no-filename":
			d.opt.fnblock = false
		case arg == "-n":
			v, err := next(arg)
			if err != nil {
				return err
			}
			d.opt.name = v
			d.opt.hasName = true
		case arg == "-l":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("-l: %w", err)
			}
			d.opt.load = n
			d.opt.hasLoad = true
		case arg == "-e":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("-e: %w", err)
			}
			d.opt.exec = n
			d.opt.hasExec = true
		case arg == "--zload":
			v, err := next(arg)
			if err != nil {
				return err
			}
			n, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("--zload: %w", err)
			}
			d.opt.zload = n
			d.opt.hasZload = true
		case arg == "-z" || arg == "--dzip":
			d.opt.dzip = true
		case arg == "--no-dzip":
			d.opt.dzip = false
		case arg == "--fast":
			d.opt.fast = true
		case arg == "--no-fast":
			d.opt.fast = false
		case arg == "--eof-data":
			d.opt.eofData = true
		case arg == "--no-eof-data":
			d.opt.eofData = false
		case arg == "--eof":
			d.opt.eof = true
		case arg == "--no-eof":
			d.opt.eof = false
		case arg == "--flasher":
			d.opt.flasher = true
		case arg == "--no-flasher":
			d.opt.flasher = false
		case arg == "--script":
			v, err := next(arg)
			if err != nil {
				return err
			}
			d.opt.scriptPath = v

		case arg == "-i":
			v, err := next(arg)
			if err != nil {
				return err
			}
			if err := d.consumeFile(v); err != nil {
				return err
			}

		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown option: %s", arg)
		default:
			// A bare path is shorthand for "-i path".
			if err := d.consumeFile(arg); err != nil {
				return err
			}
		}
	}

	return d.finish()
}

// parseNumber accepts either a decimal literal or a 0x-prefixed hex
// literal; values above 0xFFFF are rejected with an error.
func parseNumber(s string) (uint16, error) {
	base := 10
	trimmed := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		trimmed = s[2:]
	}
	n, err := strconv.ParseUint(trimmed, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric literal %q", s)
	}
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("numeric literal %q out of 16-bit range", s)
	}
	return uint16(n), nil
}

// consumeFile decodes path under the current sticky options, applies
// overrides, runs compression if requested, and either queues it as an
// autorun step or a directly-framed record, then resets the load/zload
// (always) and name/exec (unless --autorun) fields per spec §5.
func (d *driver) consumeFile(path string) error {
	if d.wantCAS && d.opt.fast {
		return fmt.Errorf("--fast is not supported with --cas output (no waveform to widen)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	base := filepath.Base(path)

	var rec *FileRecord
	var warnings []string
	switch d.opt.mode {
	case 'D':
		rec, warnings, err = DecodeDragonDOS(data)
	case 'C':
		rec, warnings, err = DecodeCoCo(data)
	default:
		rec = DecodeRaw(data, base)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "tapeforge: %s: %s\n", path, w)
	}

	if d.opt.hasName {
		rec.Name = d.opt.name
	} else if rec.Name == "" {
		rec.Name = defaultNameFromBase(base)
	}
	if d.opt.hasLoad {
		rec.Load, rec.HasLoad = d.opt.load, true
		if len(rec.Segments) == 1 {
			rec.Segments[0].Start = d.opt.load
		}
	}
	if d.opt.hasExec {
		rec.Exec, rec.HasExec = d.opt.exec, true
	}
	if d.opt.hasZload {
		rec.ZLoad, rec.HasZLoad = d.opt.zload, true
	}
	rec.FNBlock = d.opt.fnblock
	rec.EOF = d.opt.eof
	rec.EOFData = d.opt.eofData
	rec.Fast = d.opt.fast
	rec.Flasher = d.opt.flasher
	rec.LeaderCount = d.opt.leaderCount

	coalesced, err := CoalesceSegments(rec.Segments)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	rec.Segments = []Segment{coalesced}

	if d.opt.dzip {
		if err := CompressSegment(PipedCompressor{}, &rec.Segments[0]); err != nil {
			if err2 := CompressSegment(TempFileCompressor{}, &rec.Segments[0]); err2 != nil {
				return fmt.Errorf("%s: dzip: %w", path, err)
			}
		}
	}

	if d.opt.scriptPath != "" {
		if err := runFileScript(d.opt.scriptPath, rec); err != nil {
			return fmt.Errorf("%s: script: %w", path, err)
		}
	}

	if d.autorun {
		d.steps = append(d.steps, AutorunStep{Kind: StepFile, File: rec})
	} else {
		d.records = append(d.records, rec)
	}

	// Reset rules (spec §5): load/zload always reset; name/exec reset
	// unless building an autorun sequence, where successive files are
	// commonly chained without repeating identical addresses.
	d.opt.hasLoad = false
	d.opt.hasZload = false
	if !d.autorun {
		d.opt.hasName = false
		d.opt.hasExec = false
	}

	return nil
}

func (d *driver) finish() error {
	if d.outputPath == "" {
		return fmt.Errorf("missing required -o/--output")
	}
	if d.wantCAS && d.wantWAV {
		return fmt.Errorf("--cas and --wav are mutually exclusive")
	}
	if !d.wantCAS && !d.wantWAV {
		switch strings.ToLower(filepath.Ext(d.outputPath)) {
		case ".wav":
			d.wantWAV = true
		default:
			d.wantCAS = true
		}
	}

	// The --cas/--fast rejection in consumeFile only catches an explicit
	// --cas seen before the file; re-check now that the format may have
	// been inferred from the output extension (spec §9's CAS+fast Open
	// Question: rejected unconditionally, not just when spelled out).
	if d.wantCAS {
		for _, rec := range d.records {
			if rec.Fast {
				return fmt.Errorf("--fast is not supported with --cas output (no waveform to widen)")
			}
		}
		for _, s := range d.steps {
			if s.Kind == StepFile && s.File.Fast {
				return fmt.Errorf("--fast is not supported with --cas output (no waveform to widen)")
			}
		}
	}

	timing, ok := lookupTiming(d.timingName)
	if !ok {
		return fmt.Errorf("unknown timing %q", d.timingName)
	}

	out, err := os.Create(d.outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", d.outputPath, err)
	}
	defer out.Close()

	var closable BlockSink
	if d.wantWAV {
		ww, err := NewWAVWriter(out, d.wavRate, timing)
		if err != nil {
			return err
		}
		closable = ww
	} else {
		closable = NewCASWriter(out)
	}
	sink := newTraceSink(closable, d.verbose)

	if d.autorun {
		if err := d.writeAutorun(sink, timing); err != nil {
			return err
		}
	} else {
		if err := d.writeDirect(sink, timing); err != nil {
			return err
		}
	}

	if closer, ok := closable.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// writeDirect frames every consumed file in order with no loader (spec
// §4.10 non-autorun path): leader, optional filename block, data blocks
// chunked to 255 bytes, optional EOF block. With --eof-data the final
// chunk is sent as the EOF block's payload instead of as a DATA block.
func (d *driver) writeDirect(sink BlockSink, timing TimingSpec) error {
	for _, rec := range d.records {
		t := timing
		if rec.Fast {
			t = timingFast
		}
		framer := NewFramer(sink, t, rec.LeaderCount)
		if err := framer.WriteLeader(); err != nil {
			return err
		}
		if rec.FNBlock {
			payload := filenameBlockPayload(rec.Name, rec.Type, rec.Exec, rec.Load)
			if err := framer.BlockOut(BlockNameFile, payload); err != nil {
				return err
			}
		}
		chunks := splitChunks(rec.Segments[0].Data, 255)
		for i, chunk := range chunks {
			kind := BlockData
			if rec.EOF && rec.EOFData && i == len(chunks)-1 {
				kind = BlockEOF
			}
			if err := framer.BlockOut(kind, chunk); err != nil {
				return err
			}
		}
		if rec.EOF && !rec.EOFData {
			if err := framer.BlockOut(BlockEOF, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeAutorun composes the loader (spec §4.9) and frames it ahead of
// every file's raw data, followed by the BASIC-hijack jump stub as a
// closing EOF block.
func (d *driver) writeAutorun(sink BlockSink, timing TimingSpec) error {
	tapeName := "AUTORUN"
	for _, s := range d.steps {
		if s.Kind == StepFile && s.File.Name != "" {
			tapeName = s.File.Name
			break
		}
	}

	isWAV := d.wantWAV
	result, err := BuildAutorun(tapeName, d.steps, isWAV)
	if err != nil {
		return err
	}

	framer := NewFramer(sink, timing, 0)
	if err := framer.WriteLeader(); err != nil {
		return err
	}
	if err := framer.BlockOut(BlockNameFile, result.MainLoader); err != nil {
		return err
	}

	for _, fp := range result.FilePlan {
		t := timing
		if fp.File.Fast && isWAV {
			t = timingFast
		}
		fileFramer := NewFramer(sink, t, fp.File.LeaderCount)
		for _, chunk := range splitChunks(fp.File.Segments[0].Data, 255) {
			if err := fileFramer.BlockOut(BlockData, chunk); err != nil {
				return err
			}
		}
	}

	return framer.BlockOut(BlockEOF, result.JumpStub)
}

func splitChunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var out [][]byte
	for len(data) > size {
		out = append(out, data[:size])
		data = data[size:]
	}
	out = append(out, data)
	return out
}

func printUsage() {
	fmt.Println(version)
	fmt.Println(`
Usage: tapeforge [options] -o output.cas|output.wav file...

  -o, --output FILE     output path (required)
  --cas                 force CAS block-stream output
  --wav                 force WAV PCM output
  -r, --wav-rate HZ     WAV sample rate (default 9600)
  -t, --timing NAME     rom or simple (default rom)
  --autorun             build an autorun loader ahead of the files
  --no-autorun          (default)
  --vdg V               queue an autorun VDG register poke
  --sam-v V             queue an autorun SAM V-bits poke
  --sam-f V             queue an autorun SAM F-bits poke
  --lds V               queue an autorun stack pointer load
  -v, --verbose         trace block framing to stderr when attached to a terminal

Per-file options (apply to the next input file; some persist until changed):
  -B / -D / -C          decode as raw binary / DragonDOS / CoCo-DECB
  --leader N            leader filler byte count
  --filename/--no-filename
  -n NAME               tape name (max 8 chars)
  -l ADDR               load address
  -e ADDR               exec address
  --zload ADDR          load address of the compressed data (autorun, with -z)
  -z, --dzip/--no-dzip  compress the segment with an external dzip
  --fast/--no-fast      use the fast waveform timing for this file
  --eof/--no-eof
  --eof-data/--no-eof-data
  --flasher/--no-flasher
  --script FILE.lua     run a Lua hook against the decoded record
`)
}
