// timing_specs.go - the three fixed named waveform timings (spec §3, §6).
//
// spec.md deliberately leaves the exact cycle/pulse tables unspecified
// ("Three named specs exist and are fixed (see §6)" but §6 never lists
// numbers). The values below follow the real Dragon/CoCo ROM cassette
// convention: a 0-bit is one E-clock cycle at ~1200 Hz, a 1-bit one cycle
// at ~2400 Hz, where the E-clock is source_clock/16 (~894,886 Hz). See
// DESIGN.md for the Open Question resolution.

package main

func pulseTriple(a, b, c PulseSpec) [3]PulseSpec {
	return [3]PulseSpec{a, b, c}
}

var timingSimple = TimingSpec{
	Name:   "simple",
	Cycles: [2]uint16{746, 373},
	Leader: pulseTriple(PulseSpec{}, PulseSpec{}, PulseSpec{}),
	First:  pulseTriple(PulseSpec{}, PulseSpec{}, PulseSpec{}),
	Rest:   pulseTriple(PulseSpec{}, PulseSpec{}, PulseSpec{}),
}

var timingROM = TimingSpec{
	Name:   "rom",
	Cycles: [2]uint16{746, 373},
	Leader: pulseTriple(PulseSpec{}, PulseSpec{}, PulseSpec{}),
	First: pulseTriple(
		PulseSpec{DelayLow: 2, DelayHigh: 1},
		PulseSpec{DelayLow: 1, DelayHigh: 1},
		PulseSpec{DelayLow: 1, DelayHigh: 0},
	),
	Rest: pulseTriple(
		PulseSpec{DelayLow: 2, DelayHigh: 1},
		PulseSpec{DelayLow: 1, DelayHigh: 1},
		PulseSpec{DelayLow: 1, DelayHigh: 0},
	),
}

var timingFast = TimingSpec{
	Name:   "fast",
	Cycles: [2]uint16{311, 155},
	Leader: pulseTriple(PulseSpec{}, PulseSpec{}, PulseSpec{}),
	First: pulseTriple(
		PulseSpec{DelayLow: 1, DelayHigh: 0},
		PulseSpec{}, PulseSpec{},
	),
	Rest: pulseTriple(
		PulseSpec{DelayLow: 1, DelayHigh: 0},
		PulseSpec{}, PulseSpec{},
	),
}

// lookupTiming resolves a CLI timing name to its fixed spec. "fast" is not
// selectable here; it is forced per-file by FileRecord.Fast in the WAV path.
func lookupTiming(name string) (TimingSpec, bool) {
	switch name {
	case "rom", "":
		return timingROM, true
	case "simple":
		return timingSimple, true
	default:
		return TimingSpec{}, false
	}
}
