package main

import "testing"

func TestByteSamplesCountMatchesEightBits(t *testing.T) {
	w := NewWaveformSynth(44100)
	samples := w.ByteSamples(timingROM.Cycles, timingROM.Rest, 0xAA, false)
	if len(samples) == 0 {
		t.Fatal("expected non-empty sample run")
	}
	// Every bit contributes at least 2 samples (one per half-period).
	if len(samples) < 16 {
		t.Fatalf("expected at least 16 samples for 8 bits, got %d", len(samples))
	}
}

func TestHalfSinePairCached(t *testing.T) {
	w := NewWaveformSynth(44100)
	a := w.halfSinePair(10, 10)
	b := w.halfSinePair(10, 10)
	if len(a) != len(b) {
		t.Fatalf("expected identical cached lengths, got %d vs %d", len(a), len(b))
	}
	if len(w.cache) != 1 {
		t.Fatalf("expected one cache entry, got %d", len(w.cache))
	}
}

func TestClampSampleBounds(t *testing.T) {
	if clampSample(-10) != 0 {
		t.Fatal("expected clamp to 0")
	}
	if clampSample(300) != 255 {
		t.Fatal("expected clamp to 255")
	}
	if clampSample(128) != 128 {
		t.Fatal("expected passthrough for in-range value")
	}
}

func TestPeriodDriftStaysBounded(t *testing.T) {
	w := NewWaveformSynth(44100)
	// Accumulate many periods of a value that does not evenly divide the
	// sample rate and check the running error term never exceeds ±1.
	for i := 0; i < 10000; i++ {
		w.nextPeriod(373)
		if w.aoError > 1 || w.aoError < -1 {
			t.Fatalf("period drift error escaped bounds: %f", w.aoError)
		}
	}
}

func TestBytesSamplesOnlyFirstByteIsFirstInRun(t *testing.T) {
	w1 := NewWaveformSynth(44100)
	runSamples := w1.BytesSamples(timingROM.Cycles, timingROM.Rest, []byte{0x01, 0x01})

	w2 := NewWaveformSynth(44100)
	first := w2.ByteSamples(timingROM.Cycles, timingROM.Rest, 0x01, true)
	second := w2.ByteSamples(timingROM.Cycles, timingROM.Rest, 0x01, false)
	want := append(append([]byte(nil), first...), second...)

	if len(runSamples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(runSamples))
	}
}
