/*Package gf1 controls the GF1 USB signal generator.

The instrument is an AD5932 waveform generator on SPI channel 0 and an
AD5160 digital potentiometer (output amplitude) on SPI channel 1, both
behind a CP2130 USB-to-SPI bridge.  Setting a frequency, amplitude or
waveform is a stateless translation of physical units into fixed register
writes, sequenced with GPIO pulses on the generator's CTRL and INTERRUPT
pins to latch registers and to start or halt the output.

The register bit math lives in pure functions in registers.go; this file
only sequences bridge calls.  Sequences are best-effort: every step runs
even if earlier ones failed, and the returned *DeviceError carries one
entry per failed step so a caller learns about all of them.

Nothing here is safe for concurrent use; the bridge is non-reentrant and
callers serialize access (the HTTP layer does this with middleware).
*/
package gf1

import (
	"time"

	"github.com/cenkalti/backoff"
	"github.com/lab-instruments/gf1ctl/cp2130"
)

const (
	// VID and PID identify the GF1 on the USB bus
	VID = 0x10C4
	PID = 0x8A7D

	// ctrlPin and interruptPin are the bridge GPIO indices wired to the
	// AD5932 CTRL and INTERRUPT inputs
	ctrlPin      = 2
	interruptPin = 3

	// settleDelay is the mandatory wait between the last SPI write and
	// the chip select deselect.  Deselecting sooner corrupts the
	// in-flight shift register on both attached chips; this is a timing
	// requirement of the hardware, not a tunable.
	settleDelay = 100 * time.Microsecond
)

// Bridge is the fixed surface the controller needs from the USB-to-SPI
// bridge.  cp2130.Device satisfies it; tests use the recording MockBridge.
type Bridge interface {
	Close() error
	Reset() error
	IsOpen() bool
	Disconnected() bool

	SelectCS(channel uint8) error
	DisableCS(channel uint8) error
	ConfigureSPIMode(channel uint8, mode cp2130.SPIMode) error
	DisableSPIDelays(channel uint8) error
	SPIWrite(p []byte, endpoint byte) error
	SetGPIO(pin uint8, high bool) error

	ManufacturerDesc() (string, error)
	ProductDesc() (string, error)
	SerialDesc() (string, error)
	USBConfig() (cp2130.USBConfig, error)
	SiliconVersion() (cp2130.SiliconVersion, error)
}

// GF1 is a stateless controller for the signal generator.  All methods
// issue the full register state they touch; nothing is cached.
type GF1 struct {
	bridge Bridge
}

// New wraps an already-open bridge in a controller
func New(b Bridge) *GF1 {
	return &GF1{bridge: b}
}

// Open finds a GF1 by serial number (empty matches any) and returns a
// controller for it.  USB enumeration lags replug events, so the open is
// retried briefly with exponential backoff before giving up.
func Open(serial string) (*GF1, error) {
	var dev *cp2130.Device
	op := func() error {
		var err error
		dev, err = cp2130.Open(VID, PID, serial)
		return err
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err != nil {
		return nil, err
	}
	return New(dev), nil
}

// ListDevices returns the serial numbers of all attached GF1s
func ListDevices() ([]string, error) {
	return cp2130.ListDevices(VID, PID)
}

// Close closes the underlying bridge
func (g *GF1) Close() error { return g.bridge.Close() }

// Reset resets the bridge chip, which in effect resets the whole
// instrument; the device re-enumerates afterwards
func (g *GF1) Reset() error { return g.bridge.Reset() }

// IsOpen reports whether the device is open
func (g *GF1) IsOpen() bool { return g.bridge.IsOpen() }

// Disconnected reports whether the device has left the bus
func (g *GF1) Disconnected() bool { return g.bridge.Disconnected() }

// ManufacturerDesc reads the manufacturer descriptor
func (g *GF1) ManufacturerDesc() (string, error) { return g.bridge.ManufacturerDesc() }

// ProductDesc reads the product descriptor
func (g *GF1) ProductDesc() (string, error) { return g.bridge.ProductDesc() }

// SerialDesc reads the serial number descriptor
func (g *GF1) SerialDesc() (string, error) { return g.bridge.SerialDesc() }

// SiliconVersion reads the CP2130 silicon version
func (g *GF1) SiliconVersion() (cp2130.SiliconVersion, error) { return g.bridge.SiliconVersion() }

// HardwareRevision reads the USB configuration and derives the revision string
func (g *GF1) HardwareRevision() (string, error) {
	cfg, err := g.bridge.USBConfig()
	if err != nil {
		return "", err
	}
	return HardwareRevision(cfg), nil
}

// ExpectedFrequency forwards to the package-level function so the
// controller satisfies quantization-predicting interfaces
func (g *GF1) ExpectedFrequency(khz float64) float64 { return ExpectedFrequency(khz) }

// ExpectedAmplitude forwards to the package-level function
func (g *GF1) ExpectedAmplitude(vpp float64) float64 { return ExpectedAmplitude(vpp) }

// SetupChannel configures the bridge's SPI mode for one channel: push-pull
// chip select, 12 MHz clock, no inter-byte delays for both; channel 0
// (AD5932) clocks with CPOL1/CPHA0, channel 1 (AD5160) with CPOL0/CPHA0.
func (g *GF1) SetupChannel(channel uint8) error {
	mode := cp2130.SPIMode{
		CSModePushPull: true,
		ClockFreq:      cp2130.ClockFreq12M,
		CPOL:           channel == 0,
	}
	t := tally{op: "SetupChannel"}
	t.record("configure SPI mode", g.bridge.ConfigureSPIMode(channel, mode))
	t.record("disable SPI delays", g.bridge.DisableSPIDelays(channel))
	return t.err()
}

// SetupChannels configures both SPI channels
func (g *GF1) SetupChannels() error {
	t := tally{op: "SetupChannels"}
	t.record("channel 0", g.SetupChannel(0))
	t.record("channel 1", g.SetupChannel(1))
	return t.err()
}

// SetFrequency sets the output frequency in kHz.  Out-of-range values are
// rejected with a *RangeError before any hardware access.
func (g *GF1) SetFrequency(khz float64) error {
	if !inRange(khz, FrequencyMin, FrequencyMax) {
		return &RangeError{Op: "SetFrequency", Value: khz, Min: FrequencyMin, Max: FrequencyMax}
	}
	t := tally{op: "SetFrequency"}
	g.clearCtrlInterrupt(&t)
	// the INTERRUPT pulse only matters if frequency increments are
	// externally triggered via CTRL, which this driver never enables
	g.pulseInterrupt(&t)
	g.writeChannel0(&t, frequencyBlock(frequencyCode(khz)))
	g.pulseCtrl(&t)
	return t.err()
}

// SetAmplitude sets the output amplitude in Vpp.  Out-of-range values are
// rejected with a *RangeError before any hardware access.
func (g *GF1) SetAmplitude(vpp float64) error {
	if !inRange(vpp, AmplitudeMin, AmplitudeMax) {
		return &RangeError{Op: "SetAmplitude", Value: vpp, Min: AmplitudeMin, Max: AmplitudeMax}
	}
	t := tally{op: "SetAmplitude"}
	g.writeAmplitude(&t, amplitudeCode(vpp))
	return t.err()
}

// SetSineWave selects sinusoidal output
func (g *GF1) SetSineWave() error {
	return g.setWaveform("SetSineWave", Sine)
}

// SetTriangleWave selects triangular output
func (g *GF1) SetTriangleWave() error {
	return g.setWaveform("SetTriangleWave", Triangle)
}

func (g *GF1) setWaveform(op string, w Waveform) error {
	t := tally{op: op}
	g.clearCtrlInterrupt(&t)
	cw := controlWord(w)
	g.writeChannel0(&t, cw[:])
	g.pulseCtrl(&t)
	return t.err()
}

// Clear returns the instrument to its power-up state: zero start frequency,
// sine shape and zero amplitude, written in one call
func (g *GF1) Clear() error {
	t := tally{op: "Clear"}
	g.clearCtrlInterrupt(&t)
	g.pulseInterrupt(&t)
	g.writeChannel0(&t, clearBlock())
	g.pulseCtrl(&t)
	g.writeAmplitude(&t, 0)
	return t.err()
}

// Start triggers the generator's run state via its CTRL pin
func (g *GF1) Start() error {
	t := tally{op: "Start"}
	g.clearCtrlInterrupt(&t)
	g.pulseCtrl(&t)
	return t.err()
}

// Stop halts the generator via its INTERRUPT pin
func (g *GF1) Stop() error {
	t := tally{op: "Stop"}
	g.clearCtrlInterrupt(&t)
	g.pulseInterrupt(&t)
	return t.err()
}

// writeChannel0 selects channel 0 exclusively, shifts out the register
// block, waits the settle delay and deselects
func (g *GF1) writeChannel0(t *tally, block []byte) {
	t.record("select chip select 0", g.bridge.SelectCS(0))
	t.record("write registers", g.bridge.SPIWrite(block, EndpointOut))
	time.Sleep(settleDelay)
	t.record("disable chip select 0", g.bridge.DisableCS(0))
}

// writeAmplitude selects channel 1 exclusively, writes the wiper byte,
// waits the settle delay and deselects
func (g *GF1) writeAmplitude(t *tally, code uint8) {
	t.record("select chip select 1", g.bridge.SelectCS(1))
	t.record("write amplitude", g.bridge.SPIWrite([]byte{code}, EndpointOut))
	time.Sleep(settleDelay)
	t.record("disable chip select 1", g.bridge.DisableCS(1))
}

// clearCtrlInterrupt drives both control pins low, the known-idle state
// every sequence starts from
func (g *GF1) clearCtrlInterrupt(t *tally) {
	t.record("clear CTRL", g.bridge.SetGPIO(ctrlPin, false))
	t.record("clear INTERRUPT", g.bridge.SetGPIO(interruptPin, false))
}

// pulseCtrl raises and lowers CTRL, latching pending registers or
// toggling the run state
func (g *GF1) pulseCtrl(t *tally) {
	t.record("raise CTRL", g.bridge.SetGPIO(ctrlPin, true))
	t.record("lower CTRL", g.bridge.SetGPIO(ctrlPin, false))
}

// pulseInterrupt raises and lowers INTERRUPT
func (g *GF1) pulseInterrupt(t *tally) {
	t.record("raise INTERRUPT", g.bridge.SetGPIO(interruptPin, true))
	t.record("lower INTERRUPT", g.bridge.SetGPIO(interruptPin, false))
}
