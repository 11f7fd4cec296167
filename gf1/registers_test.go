package gf1

import (
	"math"
	"testing"

	"github.com/lab-instruments/gf1ctl/cp2130"
)

func TestFrequencyCodeEndpoints(t *testing.T) {
	if c := frequencyCode(0); c != 0 {
		t.Errorf("expected code 0 at 0 kHz, got %d", c)
	}
	// 25000 kHz is half the 50 MHz master clock, the Nyquist edge
	if c := frequencyCode(25000); c != 0x800000 {
		t.Errorf("expected code 0x800000 at 25000 kHz, got 0x%X", c)
	}
}

func TestFrequencyCodeRounds(t *testing.T) {
	// one code step is 50000/2^24 kHz; 0.6 of a step must round up
	step := 50000.0 / (1 << 24)
	if c := frequencyCode(0.6 * step); c != 1 {
		t.Errorf("expected 0.6 steps to round to code 1, got %d", c)
	}
	if c := frequencyCode(0.4 * step); c != 0 {
		t.Errorf("expected 0.4 steps to round to code 0, got %d", c)
	}
}

func TestFstartBytesSlicing(t *testing.T) {
	cases := []struct {
		code uint32
		want [4]byte
	}{
		{0x000000, [4]byte{0xC0, 0x00, 0xD0, 0x00}},
		{0xFFFFFF, [4]byte{0xCF, 0xFF, 0xDF, 0xFF}},
		{0x800000, [4]byte{0xC0, 0x00, 0xD8, 0x00}},
		{0x123456, [4]byte{0xC4, 0x56, 0xD1, 0x23}},
	}
	for _, tc := range cases {
		got := fstartBytes(tc.code)
		if got != tc.want {
			t.Errorf("code 0x%06X: expected % X, got % X", tc.code, tc.want, got)
		}
	}
}

func TestFrequencyBlockLayout(t *testing.T) {
	block := frequencyBlock(0x800000)
	if len(block) != 12 {
		t.Fatalf("expected a 12-byte block, got %d bytes", len(block))
	}
	// increment count, delta frequency and interval registers all zeroed
	zeroed := []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00, 0x40, 0x00}
	for i, b := range zeroed {
		if block[i] != b {
			t.Errorf("byte %d: expected %02X, got %02X", i, b, block[i])
		}
	}
	fs := fstartBytes(0x800000)
	for i := 0; i < 4; i++ {
		if block[8+i] != fs[i] {
			t.Errorf("Fstart byte %d: expected %02X, got %02X", i, fs[i], block[8+i])
		}
	}
}

func TestControlWords(t *testing.T) {
	if w := controlWord(Sine); w != [2]byte{0x0F, 0xDF} {
		t.Errorf("sine control word encoded as % X", w)
	}
	if w := controlWord(Triangle); w != [2]byte{0x0D, 0xDF} {
		t.Errorf("triangle control word encoded as % X", w)
	}
}

func TestClearBlockIsSineAndZeroFrequency(t *testing.T) {
	block := clearBlock()
	if len(block) != 14 {
		t.Fatalf("expected a 14-byte block, got %d bytes", len(block))
	}
	if block[0] != 0x0F || block[1] != 0xDF {
		t.Errorf("clear block does not start with the sine control word: % X", block[:2])
	}
	if block[8] != 0xC0 || block[9] != 0x00 || block[10] != 0xD0 || block[11] != 0x00 {
		t.Errorf("clear block Fstart is not zero: % X", block[8:12])
	}
}

func TestAmplitudeCode(t *testing.T) {
	cases := []struct {
		vpp  float64
		want uint8
	}{
		{0, 0},
		{2.5, 128},
		{5, 255},
	}
	for _, tc := range cases {
		if got := amplitudeCode(tc.vpp); got != tc.want {
			t.Errorf("%g Vpp: expected code %d, got %d", tc.vpp, tc.want, got)
		}
	}
}

func TestExpectedFrequencyQuantization(t *testing.T) {
	for _, f := range []float64{0, 0.001, 1, 440, 1000, 12345.678, 25000} {
		want := math.Round(f*(1<<24)/50000) * 50000 / (1 << 24)
		got := ExpectedFrequency(f)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%g kHz: expected %g, got %g", f, want, got)
		}
	}
}

func TestExpectedFrequencyIdempotent(t *testing.T) {
	for _, f := range []float64{0, 0.37, 100, 9999.5, 25000} {
		once := ExpectedFrequency(f)
		twice := ExpectedFrequency(once)
		if once != twice {
			t.Errorf("%g kHz: %g re-quantized to %g", f, once, twice)
		}
	}
}

func TestExpectedAmplitudeQuantization(t *testing.T) {
	for _, a := range []float64{0, 0.01, 1.1, 2.5, 5} {
		want := math.Round(a*255/5) * 5 / 255
		got := ExpectedAmplitude(a)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%g Vpp: expected %g, got %g", a, want, got)
		}
	}
}

func TestExpectedAmplitudeIdempotent(t *testing.T) {
	for _, a := range []float64{0, 0.5, 2.5, 4.99, 5} {
		once := ExpectedAmplitude(a)
		twice := ExpectedAmplitude(once)
		if once != twice {
			t.Errorf("%g Vpp: %g re-quantized to %g", a, once, twice)
		}
	}
}

func TestHardwareRevision(t *testing.T) {
	cases := []struct {
		major, minor byte
		want         string
	}{
		{2, 0, "A"},
		{1, 3, "3"},
		{3, 1, "B1"},
		{1, 0, "0"},
		{27, 0, "Z"},
		{28, 0, ""},
	}
	for _, tc := range cases {
		cfg := cp2130.USBConfig{MajorRelease: tc.major, MinorRelease: tc.minor}
		if got := HardwareRevision(cfg); got != tc.want {
			t.Errorf("%d.%d: expected %q, got %q", tc.major, tc.minor, tc.want, got)
		}
	}
}

func TestWaveformString(t *testing.T) {
	if Sine.String() != "sine" || Triangle.String() != "triangle" {
		t.Error("waveform names do not round trip")
	}
}
