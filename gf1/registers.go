package gf1

import (
	"math"
	"strconv"

	"github.com/lab-instruments/gf1ctl/cp2130"
)

// Waveform selects the output shape of the AD5932
type Waveform int

const (
	// Sine is a sinusoidal output
	Sine Waveform = iota

	// Triangle is a triangular output
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	default:
		return "waveform(" + strconv.Itoa(int(w)) + ")"
	}
}

const (
	// EndpointOut is the bulk OUT endpoint address used for SPI data
	EndpointOut = 0x01

	// fstartLSB and fstartMSB tag the two halves of the 24-bit start
	// frequency, 12 bits each, in the AD5932 register map
	fstartLSB = 0xC0
	fstartMSB = 0xD0

	// frequencyQuantum is the 24-bit resolution of the AD5932 frequency registers
	frequencyQuantum = 1 << 24

	// mclk is the master clock of the AD5932 in kHz (50 MHz)
	mclk = 50000

	// amplitudeQuantum is the 8-bit resolution of the AD5160 potentiometer
	amplitudeQuantum = 255

	// AD5932 control register words: 24-bit mode, DAC and MSBOUT enabled,
	// auto-increment flags fixed; only the waveform bits differ
	controlSine     = 0x0FDF
	controlTriangle = 0x0DDF
)

// Operating limits of the instrument
const (
	// FrequencyMin and FrequencyMax bound SetFrequency, in kHz
	FrequencyMin = 0
	FrequencyMax = 25000

	// AmplitudeMin and AmplitudeMax bound SetAmplitude, in Vpp
	AmplitudeMin = 0
	AmplitudeMax = 5
)

// frequencyCode quantizes a frequency in kHz onto the 24-bit register scale
func frequencyCode(khz float64) uint32 {
	return uint32(khz*frequencyQuantum/mclk + 0.5)
}

// amplitudeCode quantizes an amplitude in Vpp onto the 8-bit wiper scale
func amplitudeCode(vpp float64) uint8 {
	return uint8(vpp*amplitudeQuantum/AmplitudeMax + 0.5)
}

// fstartBytes splits a 24-bit frequency code into the two tagged 2-byte
// register writes: low 12 bits under the 0xC0 tag, high 12 under 0xD0
func fstartBytes(code uint32) [4]byte {
	return [4]byte{
		fstartLSB | byte(0x0F&(code>>8)),
		byte(code),
		fstartMSB | byte(0x0F&(code>>20)),
		byte(code >> 12),
	}
}

// frequencyBlock builds the 12-byte register block written on a frequency
// change: zeroed increment count, delta frequency and increment interval
// (the generator always runs at a constant start frequency), then Fstart
func frequencyBlock(code uint32) []byte {
	fs := fstartBytes(code)
	return []byte{
		0x10, 0x00, // number of increments: zero
		0x20, 0x00, 0x30, 0x00, // delta frequency: zero
		0x40, 0x00, // increment interval: zero
		fs[0], fs[1], fs[2], fs[3],
	}
}

// controlWord returns the 2-byte AD5932 control register write for a waveform
func controlWord(w Waveform) [2]byte {
	word := uint16(controlSine)
	if w == Triangle {
		word = controlTriangle
	}
	return [2]byte{byte(word >> 8), byte(word)}
}

// clearBlock builds the power-up register block: sine control word followed
// by the zero-frequency block
func clearBlock() []byte {
	cw := controlWord(Sine)
	return append([]byte{cw[0], cw[1]}, frequencyBlock(0)...)
}

// ExpectedFrequency returns the frequency, in kHz, that the generator will
// actually produce for a given input after quantization onto its 24-bit
// register scale.  It is the identity on its own outputs.
func ExpectedFrequency(khz float64) float64 {
	return float64(frequencyCode(khz)) * mclk / frequencyQuantum
}

// ExpectedAmplitude returns the amplitude, in Vpp, that the potentiometer
// will actually realize for a given input after quantization onto its
// 8-bit wiper scale
func ExpectedAmplitude(vpp float64) float64 {
	return float64(amplitudeCode(vpp)) * AmplitudeMax / amplitudeQuantum
}

// HardwareRevision derives the human-readable revision from the USB
// configuration: a letter for major releases above 1 ('A' at 2), and the
// minor number when major is 1 or minor is nonzero
func HardwareRevision(cfg cp2130.USBConfig) string {
	rev := ""
	if cfg.MajorRelease > 1 && cfg.MajorRelease <= 27 {
		rev += string(rune(cfg.MajorRelease) + 'A' - 2)
	}
	if cfg.MajorRelease == 1 || cfg.MinorRelease != 0 {
		rev += strconv.Itoa(int(cfg.MinorRelease))
	}
	return rev
}

// inRange checks v in [min, max]; NaN fails
func inRange(v, min, max float64) bool {
	return !math.IsNaN(v) && v >= min && v <= max
}
