// wav_writer.go - RIFF/WAVE PCM writer (C7, spec §4.7).

package main

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	wavHeaderSize   = 44
	idlePreludeMark = 0xDA5C
)

// WAVWriter implements BlockSink by rendering each run of bytes through
// a WaveformSynth and appending the resulting 8-bit PCM samples. The
// canonical 44-byte RIFF header is written as a placeholder on
// construction and fixed up in Close (spec §8 "WAV header law").
type WAVWriter struct {
	w          io.WriteSeeker
	sampleRate uint32
	timing     TimingSpec
	synth      *WaveformSynth
	sampleCnt  uint64
}

func NewWAVWriter(w io.WriteSeeker, sampleRate uint32, timing TimingSpec) (*WAVWriter, error) {
	ww := &WAVWriter{
		w:          w,
		sampleRate: sampleRate,
		timing:     timing,
		synth:      NewWaveformSynth(sampleRate),
	}
	if err := ww.writeHeaderPlaceholder(); err != nil {
		return nil, err
	}
	return ww, nil
}

func (ww *WAVWriter) writeHeaderPlaceholder() error {
	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // Subchunk1Size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:28], ww.sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], ww.sampleRate) // byte rate, 1 channel * 1 byte/sample
	binary.LittleEndian.PutUint16(header[32:34], 1)             // block align
	binary.LittleEndian.PutUint16(header[34:36], 8)              // bits per sample
	copy(header[36:40], "data")
	_, err := ww.w.Write(header)
	return err
}

func (ww *WAVWriter) writeSamples(samples []byte) error {
	if _, err := ww.w.Write(samples); err != nil {
		return err
	}
	ww.sampleCnt += uint64(len(samples))
	return nil
}

// WriteIdlePrelude emits a constant mid-level sample held for
// 0xDA5C * 8 source-clock ticks (spec §4.4).
func (ww *WAVWriter) WriteIdlePrelude() error {
	ticks := float64(idlePreludeMark) * 8
	count := int(math.Round(float64(ww.sampleRate) * ticks / float64(sourceClockHz)))
	if count < 0 {
		count = 0
	}
	samples := make([]byte, count)
	for i := range samples {
		samples[i] = 0x80
	}
	return ww.writeSamples(samples)
}

func (ww *WAVWriter) roleTriple(role TimingRole) [3]PulseSpec {
	switch role {
	case RoleLeader:
		return ww.timing.Leader
	case RoleFirst:
		return ww.timing.First
	default:
		return ww.timing.Rest
	}
}

func (ww *WAVWriter) WriteRun(data []byte, role TimingRole) error {
	samples := ww.synth.BytesSamples(ww.timing.Cycles, ww.roleTriple(role), data)
	return ww.writeSamples(samples)
}

// Close fixes up ChunkSize (offset 4) and Subchunk2Size (offset 40) now
// that the final sample count is known.
func (ww *WAVWriter) Close() error {
	if _, err := ww.w.Seek(4, io.SeekStart); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(ww.sampleCnt)+36)
	if _, err := ww.w.Write(buf[:]); err != nil {
		return err
	}

	if _, err := ww.w.Seek(40, io.SeekStart); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[:], uint32(ww.sampleCnt))
	if _, err := ww.w.Write(buf[:]); err != nil {
		return err
	}

	_, err := ww.w.Seek(0, io.SeekEnd)
	return err
}
