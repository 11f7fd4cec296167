package gf1

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetFrequencyRejectsOutOfRangeWithoutHardware(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	for _, f := range []float64{-1, 25000.1} {
		err := g.SetFrequency(f)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("%g kHz: expected a *RangeError, got %v", f, err)
		}
	}
	if len(m.Calls) != 0 {
		t.Errorf("range rejection touched the bridge: %v", m.Calls)
	}
}

func TestSetAmplitudeRejectsOutOfRangeWithoutHardware(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	for _, a := range []float64{-0.1, 5.01} {
		err := g.SetAmplitude(a)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("%g Vpp: expected a *RangeError, got %v", a, err)
		}
	}
	if len(m.Calls) != 0 {
		t.Errorf("range rejection touched the bridge: %v", m.Calls)
	}
}

func TestSetAmplitudeSequence(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	if err := g.SetAmplitude(2.5); err != nil {
		t.Fatal(err)
	}
	want := []string{"SelectCS", "SPIWrite", "DisableCS"}
	if diff := cmp.Diff(want, m.CallNames()); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{128}, m.LastWrite()); diff != "" {
		t.Errorf("amplitude payload mismatch (-want +got):\n%s", diff)
	}
	if m.Calls[0].Args != "1" || m.Calls[2].Args != "1" {
		t.Errorf("amplitude did not use channel 1: %v", m.Calls)
	}
}

func TestSetFrequencySequence(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	if err := g.SetFrequency(25000); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"SetGPIO", "SetGPIO", // CTRL, INTERRUPT low
		"SetGPIO", "SetGPIO", // INTERRUPT pulse
		"SelectCS", "SPIWrite", "DisableCS",
		"SetGPIO", "SetGPIO", // CTRL pulse latches Fstart
	}
	if diff := cmp.Diff(want, m.CallNames()); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	wantBlock := []byte{
		0x10, 0x00, 0x20, 0x00, 0x30, 0x00, 0x40, 0x00,
		0xC0, 0x00, 0xD8, 0x00,
	}
	if diff := cmp.Diff(wantBlock, m.LastWrite()); diff != "" {
		t.Errorf("register block mismatch (-want +got):\n%s", diff)
	}
}

func TestSetWaveformSequence(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	if err := g.SetTriangleWave(); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"SetGPIO", "SetGPIO",
		"SelectCS", "SPIWrite", "DisableCS",
		"SetGPIO", "SetGPIO",
	}
	if diff := cmp.Diff(want, m.CallNames()); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x0D, 0xDF}, m.LastWrite()); diff != "" {
		t.Errorf("control word mismatch (-want +got):\n%s", diff)
	}
}

func TestClearWritesZeroFrequencySineAndZeroAmplitude(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	if err := g.Clear(); err != nil {
		t.Fatal(err)
	}
	if len(m.Writes) != 2 {
		t.Fatalf("expected 2 SPI writes, got %d", len(m.Writes))
	}
	block := m.Writes[0]
	if block[0] != 0x0F || block[1] != 0xDF {
		t.Errorf("clear did not select sine: % X", block[:2])
	}
	if block[8] != 0xC0 || block[9] != 0x00 || block[10] != 0xD0 || block[11] != 0x00 {
		t.Errorf("clear did not zero the start frequency: % X", block[8:12])
	}
	if diff := cmp.Diff([]byte{0}, m.Writes[1]); diff != "" {
		t.Errorf("clear did not zero the amplitude (-want +got):\n%s", diff)
	}
}

func TestStartStopPulseTheRightPins(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	want := []BridgeCall{
		{"SetGPIO", "2, false"},
		{"SetGPIO", "3, false"},
		{"SetGPIO", "2, true"},
		{"SetGPIO", "2, false"},
	}
	if diff := cmp.Diff(want, m.Calls); diff != "" {
		t.Errorf("start sequence mismatch (-want +got):\n%s", diff)
	}

	m.ResetCalls()
	if err := g.Stop(); err != nil {
		t.Fatal(err)
	}
	want = []BridgeCall{
		{"SetGPIO", "2, false"},
		{"SetGPIO", "3, false"},
		{"SetGPIO", "3, true"},
		{"SetGPIO", "3, false"},
	}
	if diff := cmp.Diff(want, m.Calls); diff != "" {
		t.Errorf("stop sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSetupChannelModes(t *testing.T) {
	m := NewMockBridge()
	g := New(m)
	if err := g.SetupChannels(); err != nil {
		t.Fatal(err)
	}
	want := []BridgeCall{
		{"ConfigureSPIMode", "0, {CSModePushPull:true ClockFreq:0 CPOL:true CPHA:false}"},
		{"DisableSPIDelays", "0"},
		{"ConfigureSPIMode", "1, {CSModePushPull:true ClockFreq:0 CPOL:false CPHA:false}"},
		{"DisableSPIDelays", "1"},
	}
	if diff := cmp.Diff(want, m.Calls); diff != "" {
		t.Errorf("channel setup mismatch (-want +got):\n%s", diff)
	}
}

func TestSequencesContinueThroughFailuresAndAccumulate(t *testing.T) {
	m := NewMockBridge()
	m.Fail = map[string]error{
		"SetGPIO":  errors.New("stall"),
		"SelectCS": errors.New("stall"),
	}
	g := New(m)
	err := g.SetFrequency(1000)
	var de *DeviceError
	if !errors.As(err, &de) {
		t.Fatalf("expected a *DeviceError, got %v", err)
	}
	// 6 GPIO sets + 1 chip select fail; the write and deselect still ran
	if de.Count() != 7 {
		t.Errorf("expected 7 failed steps, got %d: %v", de.Count(), de)
	}
	want := []string{
		"SetGPIO", "SetGPIO", "SetGPIO", "SetGPIO",
		"SelectCS", "SPIWrite", "DisableCS",
		"SetGPIO", "SetGPIO",
	}
	if diff := cmp.Diff(want, m.CallNames()); diff != "" {
		t.Errorf("failure did not run every step (-want +got):\n%s", diff)
	}
}

func TestHardwareRevisionReadsUSBConfig(t *testing.T) {
	m := NewMockBridge()
	m.Config.MajorRelease = 3
	m.Config.MinorRelease = 1
	g := New(m)
	rev, err := g.HardwareRevision()
	if err != nil {
		t.Fatal(err)
	}
	if rev != "B1" {
		t.Errorf("expected revision B1, got %q", rev)
	}
}
