package gf1

import (
	"fmt"
	"sync"

	"github.com/lab-instruments/gf1ctl/cp2130"
)

// BridgeCall is one recorded bridge invocation: the method name followed
// by a human-readable rendering of its arguments
type BridgeCall struct {
	Method string
	Args   string
}

func (c BridgeCall) String() string {
	if c.Args == "" {
		return c.Method
	}
	return c.Method + "(" + c.Args + ")"
}

// MockBridge is an in-memory Bridge that records every call in order.  It
// backs the package tests and the server's mock mode, so the HTTP layer
// can be exercised with no hardware attached.
type MockBridge struct {
	sync.Mutex

	// Calls is every bridge invocation since the last ResetCalls
	Calls []BridgeCall

	// Writes holds the payload of every SPIWrite, newest last
	Writes [][]byte

	// Fail maps a method name to an error that method should return
	Fail map[string]error

	// Config is returned by USBConfig
	Config cp2130.USBConfig

	open         bool
	disconnected bool
}

// NewMockBridge returns an open mock with a rev A USB configuration
func NewMockBridge() *MockBridge {
	return &MockBridge{
		open:   true,
		Config: cp2130.USBConfig{VID: VID, PID: PID, MajorRelease: 2, MinorRelease: 0},
	}
}

// ResetCalls clears the recorded calls and writes
func (m *MockBridge) ResetCalls() {
	m.Lock()
	defer m.Unlock()
	m.Calls = nil
	m.Writes = nil
}

// CallNames returns the Method of every recorded call, in order
func (m *MockBridge) CallNames() []string {
	m.Lock()
	defer m.Unlock()
	names := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		names[i] = c.Method
	}
	return names
}

// LastWrite returns the most recent SPIWrite payload, or nil
func (m *MockBridge) LastWrite() []byte {
	m.Lock()
	defer m.Unlock()
	if len(m.Writes) == 0 {
		return nil
	}
	return m.Writes[len(m.Writes)-1]
}

func (m *MockBridge) record(method, args string) error {
	m.Lock()
	defer m.Unlock()
	m.Calls = append(m.Calls, BridgeCall{Method: method, Args: args})
	return m.Fail[method]
}

// Close marks the mock closed
func (m *MockBridge) Close() error {
	m.open = false
	return m.record("Close", "")
}

// Reset records the reset request
func (m *MockBridge) Reset() error {
	return m.record("Reset", "")
}

// IsOpen reports whether Close has been called
func (m *MockBridge) IsOpen() bool { return m.open }

// Disconnected reports the value of the Disconnect test hook
func (m *MockBridge) Disconnected() bool { return m.disconnected }

// Disconnect simulates the device leaving the bus
func (m *MockBridge) Disconnect() { m.disconnected = true }

// SelectCS records an exclusive chip select enable
func (m *MockBridge) SelectCS(channel uint8) error {
	return m.record("SelectCS", fmt.Sprintf("%d", channel))
}

// DisableCS records a chip select disable
func (m *MockBridge) DisableCS(channel uint8) error {
	return m.record("DisableCS", fmt.Sprintf("%d", channel))
}

// ConfigureSPIMode records the per-channel SPI mode
func (m *MockBridge) ConfigureSPIMode(channel uint8, mode cp2130.SPIMode) error {
	return m.record("ConfigureSPIMode", fmt.Sprintf("%d, %+v", channel, mode))
}

// DisableSPIDelays records the delay disable
func (m *MockBridge) DisableSPIDelays(channel uint8) error {
	return m.record("DisableSPIDelays", fmt.Sprintf("%d", channel))
}

// SPIWrite records the payload and endpoint
func (m *MockBridge) SPIWrite(p []byte, endpoint byte) error {
	m.Lock()
	m.Writes = append(m.Writes, append([]byte(nil), p...))
	m.Unlock()
	return m.record("SPIWrite", fmt.Sprintf("% X, 0x%02X", p, endpoint))
}

// SetGPIO records the pin and level
func (m *MockBridge) SetGPIO(pin uint8, high bool) error {
	return m.record("SetGPIO", fmt.Sprintf("%d, %v", pin, high))
}

// ManufacturerDesc returns a fixed string
func (m *MockBridge) ManufacturerDesc() (string, error) {
	return "Mock Instruments", m.record("ManufacturerDesc", "")
}

// ProductDesc returns a fixed string
func (m *MockBridge) ProductDesc() (string, error) {
	return "GF1 (mock)", m.record("ProductDesc", "")
}

// SerialDesc returns a fixed string
func (m *MockBridge) SerialDesc() (string, error) {
	return "MOCK0001", m.record("SerialDesc", "")
}

// USBConfig returns the configurable Config field
func (m *MockBridge) USBConfig() (cp2130.USBConfig, error) {
	return m.Config, m.record("USBConfig", "")
}

// SiliconVersion returns a fixed version
func (m *MockBridge) SiliconVersion() (cp2130.SiliconVersion, error) {
	return cp2130.SiliconVersion{Major: 1, Minor: 0}, m.record("SiliconVersion", "")
}
