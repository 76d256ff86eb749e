// waveform.go - PCM waveform synthesizer (C5, spec §4.5).

package main

import "math"

const sineAmplitude = 115
const sineMidpoint = 128

type periodKey struct {
	period0 int
	period1 int
}

// WaveformSynth turns framed bytes into 8-bit unsigned PCM samples,
// one half-sine pair per bit, LSB first. ao_error carries the
// fractional rounding residue between successive periods so long runs
// stay within ±½ sample of the ideal length (spec §4.5, §8 "period drift
// law"); the sine cache is keyed by the rounded (period0, period1) pair
// since those repeat heavily across a tape image.
type WaveformSynth struct {
	sampleRate  uint32
	aoError     float64
	cache       map[periodKey][]byte
	sampleCount uint64
}

func NewWaveformSynth(sampleRate uint32) *WaveformSynth {
	return &WaveformSynth{
		sampleRate: sampleRate,
		cache:      make(map[periodKey][]byte),
	}
}

func (w *WaveformSynth) samplesFor(x float64) float64 {
	return float64(w.sampleRate) * x * 16 / float64(sourceClockHz)
}

// nextPeriod consumes the running error and returns a rounded sample
// count for one half-period whose ideal (fractional) length is x.
func (w *WaveformSynth) nextPeriod(x float64) int {
	p := w.aoError + w.samplesFor(x)
	rounded := math.Round(p)
	w.aoError = p - rounded
	return int(rounded)
}

func (w *WaveformSynth) halfSinePair(period0, period1 int) []byte {
	key := periodKey{period0, period1}
	if cached, ok := w.cache[key]; ok {
		return cached
	}

	out := make([]byte, 0, period0+period1)
	for i := 1; i <= period0; i++ {
		v := math.Round(sineAmplitude*math.Sin(math.Pi*float64(i)/float64(period0+1))) + sineMidpoint
		out = append(out, clampSample(v))
	}
	for i := 1; i <= period1; i++ {
		v := math.Round(sineAmplitude*math.Sin(math.Pi+math.Pi*float64(i)/float64(period1+1))) + sineMidpoint
		out = append(out, clampSample(v))
	}

	w.cache[key] = out
	return out
}

func clampSample(v float64) byte {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}

// bitSamples emits the waveform for one bit, selecting the pulse spec
// by position: bit 0 of the first byte in a run uses triple[0], bits
// 1..7 of every byte use triple[1], bit 0 of subsequent bytes use
// triple[2] (spec §4.5).
func (w *WaveformSynth) bitSamples(cycles [2]uint16, triple [3]PulseSpec, bitIndex int, bitValue byte, firstByteInRun bool) []byte {
	var spec PulseSpec
	switch {
	case bitIndex == 0 && firstByteInRun:
		spec = triple[0]
	case bitIndex == 0:
		spec = triple[2]
	default:
		spec = triple[1]
	}

	half := float64(cycles[bitValue]) / 2
	period0 := w.nextPeriod(half + float64(spec.DelayLow))
	period1 := w.nextPeriod(half + float64(spec.DelayHigh))

	samples := w.halfSinePair(period0, period1)
	w.sampleCount += uint64(len(samples))
	return samples
}

// ByteSamples renders one byte, LSB first, as 8 bit-waveforms.
func (w *WaveformSynth) ByteSamples(cycles [2]uint16, triple [3]PulseSpec, value byte, firstByteInRun bool) []byte {
	var out []byte
	for bit := 0; bit < 8; bit++ {
		bitValue := (value >> uint(bit)) & 1
		out = append(out, w.bitSamples(cycles, triple, bit, bitValue, firstByteInRun)...)
	}
	return out
}

// BytesSamples renders a run of bytes; only the first byte is treated
// as "first in the run" for bit-0 pulse selection purposes.
func (w *WaveformSynth) BytesSamples(cycles [2]uint16, triple [3]PulseSpec, data []byte) []byte {
	var out []byte
	for i, b := range data {
		out = append(out, w.ByteSamples(cycles, triple, b, i == 0)...)
	}
	return out
}
