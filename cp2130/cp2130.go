/*Package cp2130 drives the Silicon Labs CP2130 USB-to-SPI bridge.

The CP2130 exposes its configuration interface as vendor control requests
(the AN792 command set) and moves SPI payload over a pair of bulk endpoints.
This package implements the subset needed to act as the SPI and GPIO bridge
inside instruments built around the chip: chip select gating, per-channel
SPI mode, GPIO level control, descriptor and USB configuration retrieval,
and bulk SPI writes.

Command encoding is kept in pure functions (see commands.go) so the bit
packing can be tested without hardware on the bus.
*/
package cp2130

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/google/gousb"
)

const (
	// requestTypeOut is the bmRequestType for host-to-device vendor requests
	requestTypeOut = 0x40

	// requestTypeIn is the bmRequestType for device-to-host vendor requests
	requestTypeIn = 0xC0

	// AN792 command IDs
	cmdResetDevice      = 0x10
	cmdGetVersion       = 0x11
	cmdSetGPIOValues    = 0x21
	cmdSetChipSelect    = 0x25
	cmdSetSPIWord       = 0x31
	cmdSetSPIDelay      = 0x33
	cmdGetUSBConfig     = 0x60
	cmdGetManufString1  = 0x62
	cmdGetManufString2  = 0x64
	cmdGetProdString1   = 0x66
	cmdGetProdString2   = 0x68
	cmdGetSerialString  = 0x6A
	descriptorBlockSize = 64
)

var (
	// ErrNotOpen is generated when an operation is attempted on a closed device
	ErrNotOpen = errors.New("cp2130: device is not open")

	// ErrNotFound is generated by Open when no matching device is attached
	ErrNotFound = errors.New("cp2130: no matching device found")
)

// SPIMode holds the per-channel SPI configuration of the bridge.
// The zero value is open-drain chip select, 12 MHz, CPOL0/CPHA0.
type SPIMode struct {
	// CSModePushPull selects push-pull (vs open-drain) drive for the chip select pin
	CSModePushPull bool

	// ClockFreq is one of the ClockFreq* constants
	ClockFreq byte

	// CPOL is the clock polarity bit; true means the clock idles high (active low)
	CPOL bool

	// CPHA is the clock phase bit
	CPHA bool
}

// SPI clock frequency codes, AN792 Set_SPI_Word
const (
	ClockFreq12M  = 0x00
	ClockFreq6M   = 0x01
	ClockFreq3M   = 0x02
	ClockFreq1M5  = 0x03
	ClockFreq750K = 0x04
	ClockFreq375K = 0x05
)

// USBConfig mirrors the 9-byte Get_USB_Config response
type USBConfig struct {
	VID           uint16
	PID           uint16
	MaxPower      byte
	PowerMode     byte
	MajorRelease  byte
	MinorRelease  byte
	TransferPrior byte
}

// SiliconVersion is the read-only version of the bridge silicon
type SiliconVersion struct {
	Major byte
	Minor byte
}

// Device is an open CP2130, holding the USB handle and the bulk OUT endpoint
// used for SPI data.  It is not safe for concurrent use; callers serialize.
type Device struct {
	ctx          *gousb.Context
	dev          *gousb.Device
	iface        *gousb.Interface
	out          *gousb.OutEndpoint
	closer       func()
	disconnected bool
}

// Open finds a CP2130-based device by VID/PID and an optional serial number
// (empty matches any) and claims its default interface.
func Open(vid, pid uint16, serial string) (*Device, error) {
	d := &Device{ctx: gousb.NewContext()}
	devs, err := d.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(vid) && desc.Product == gousb.ID(pid)
	})
	// gousb returns the devices it did open even on error; close the ones
	// we do not keep either way
	if err != nil && len(devs) == 0 {
		d.ctx.Close()
		return nil, err
	}
	for _, dev := range devs {
		if d.dev != nil {
			dev.Close()
			continue
		}
		if serial != "" {
			sn, snErr := dev.SerialNumber()
			if snErr != nil || sn != serial {
				dev.Close()
				continue
			}
		}
		d.dev = dev
	}
	if d.dev == nil {
		d.ctx.Close()
		return nil, ErrNotFound
	}
	if err := d.dev.SetAutoDetach(true); err != nil {
		d.Close()
		return nil, err
	}
	d.iface, d.closer, err = d.dev.DefaultInterface()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.out, err = d.iface.OutEndpoint(1)
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// ListDevices returns the serial numbers of all attached devices matching vid/pid
func ListDevices(vid, pid uint16) ([]string, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(vid) && desc.Product == gousb.ID(pid)
	})
	serials := make([]string, 0, len(devs))
	for _, dev := range devs {
		sn, snErr := dev.SerialNumber()
		if snErr == nil {
			serials = append(serials, sn)
		}
		dev.Close()
	}
	return serials, err
}

// IsOpen returns true if the device holds a live USB handle
func (d *Device) IsOpen() bool {
	return d != nil && d.dev != nil
}

// Disconnected returns true if a previous transfer failed because the
// device left the bus
func (d *Device) Disconnected() bool {
	return d.disconnected
}

// Close releases the interface and USB handle.  Safe to call when not open.
func (d *Device) Close() error {
	if d == nil || d.dev == nil {
		return nil
	}
	if d.closer != nil {
		d.closer()
		d.closer = nil
		d.iface = nil
	}
	err := d.dev.Close()
	d.dev = nil
	d.ctx.Close()
	d.ctx = nil
	return err
}

// control performs a vendor control transfer and records disconnection
func (d *Device) control(reqType, req byte, data []byte) error {
	if !d.IsOpen() {
		return ErrNotOpen
	}
	_, err := d.dev.Control(reqType, req, 0, 0, data)
	if err != nil {
		if errors.Is(err, gousb.ErrorNoDevice) {
			d.disconnected = true
		}
		return fmt.Errorf("cp2130: control request 0x%02X: %w", req, err)
	}
	return nil
}

// Reset issues a Reset_Device command.  The bridge re-enumerates afterwards,
// so the handle should be closed and reopened by the caller.
func (d *Device) Reset() error {
	return d.control(requestTypeOut, cmdResetDevice, nil)
}

// SiliconVersion reads the read-only version of the bridge
func (d *Device) SiliconVersion() (SiliconVersion, error) {
	buf := make([]byte, 2)
	err := d.control(requestTypeIn, cmdGetVersion, buf)
	return SiliconVersion{Major: buf[0], Minor: buf[1]}, err
}

// SetGPIO drives a single GPIO pin (0-10) to the given level, leaving the
// other pins untouched
func (d *Device) SetGPIO(pin uint8, high bool) error {
	payload, err := encodeGPIOValues(pin, high)
	if err != nil {
		return err
	}
	return d.control(requestTypeOut, cmdSetGPIOValues, payload[:])
}

// SelectCS enables the chip select for the given channel and disables
// all others (the AN792 "enable exclusive" control code)
func (d *Device) SelectCS(channel uint8) error {
	payload := encodeChipSelect(channel, csEnableExclusive)
	return d.control(requestTypeOut, cmdSetChipSelect, payload[:])
}

// DisableCS disables the chip select for the given channel
func (d *Device) DisableCS(channel uint8) error {
	payload := encodeChipSelect(channel, csDisable)
	return d.control(requestTypeOut, cmdSetChipSelect, payload[:])
}

// ConfigureSPIMode sets the SPI word (chip select drive, clock frequency,
// polarity, phase) for the given channel
func (d *Device) ConfigureSPIMode(channel uint8, mode SPIMode) error {
	payload := encodeSPIWord(channel, mode)
	return d.control(requestTypeOut, cmdSetSPIWord, payload[:])
}

// DisableSPIDelays zeroes the inter-byte, post-assert and pre-deassert
// delays for the given channel
func (d *Device) DisableSPIDelays(channel uint8) error {
	payload := encodeSPIDelay(channel, 0, 0, 0, 0)
	return d.control(requestTypeOut, cmdSetSPIDelay, payload[:])
}

// SPIWrite shifts p out on the currently selected channel via the bulk OUT
// endpoint.  endpoint is the bulk endpoint address, 0x01 on every CP2130
// configuration seen in the wild.
func (d *Device) SPIWrite(p []byte, endpoint byte) error {
	if !d.IsOpen() {
		return ErrNotOpen
	}
	if d.out.Desc.Address != gousb.EndpointAddress(endpoint) {
		return fmt.Errorf("cp2130: endpoint 0x%02X not claimed (have 0x%02X)", endpoint, d.out.Desc.Address)
	}
	buf := append(encodeBulkWriteHeader(len(p)), p...)
	n, err := d.out.Write(buf)
	if err != nil {
		if errors.Is(err, gousb.ErrorNoDevice) {
			d.disconnected = true
		}
		return fmt.Errorf("cp2130: bulk write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("cp2130: bulk write truncated, %d of %d bytes", n, len(buf))
	}
	return nil
}

// USBConfig reads the 9-byte USB configuration block from the OTP ROM
func (d *Device) USBConfig() (USBConfig, error) {
	buf := make([]byte, 9)
	if err := d.control(requestTypeIn, cmdGetUSBConfig, buf); err != nil {
		return USBConfig{}, err
	}
	return decodeUSBConfig(buf), nil
}

// ManufacturerDesc reads the manufacturer string from the OTP ROM
func (d *Device) ManufacturerDesc() (string, error) {
	return d.twoPartString(cmdGetManufString1, cmdGetManufString2)
}

// ProductDesc reads the product string from the OTP ROM
func (d *Device) ProductDesc() (string, error) {
	return d.twoPartString(cmdGetProdString1, cmdGetProdString2)
}

// SerialDesc reads the serial string from the OTP ROM
func (d *Device) SerialDesc() (string, error) {
	buf := make([]byte, descriptorBlockSize)
	if err := d.control(requestTypeIn, cmdGetSerialString, buf); err != nil {
		return "", err
	}
	return decodeStringDescriptor(buf, nil)
}

// twoPartString reads the manufacturer or product string, which spans two
// 64-byte OTP blocks; only the first carries the descriptor header
func (d *Device) twoPartString(cmd1, cmd2 byte) (string, error) {
	buf1 := make([]byte, descriptorBlockSize)
	if err := d.control(requestTypeIn, cmd1, buf1); err != nil {
		return "", err
	}
	buf2 := make([]byte, descriptorBlockSize)
	if err := d.control(requestTypeIn, cmd2, buf2); err != nil {
		return "", err
	}
	return decodeStringDescriptor(buf1, buf2)
}

// decodeStringDescriptor converts a USB string descriptor block (and an
// optional headerless continuation block) to a Go string.  The first block
// is [length, 0x03, UTF-16LE chars...]; length counts the 2 header bytes.
func decodeStringDescriptor(first, continuation []byte) (string, error) {
	if len(first) < 2 {
		return "", errors.New("cp2130: string descriptor too short")
	}
	length := int(first[0])
	if first[1] != 0x03 {
		return "", fmt.Errorf("cp2130: not a string descriptor (type 0x%02X)", first[1])
	}
	if length < 2 {
		return "", nil
	}
	payload := first[2:]
	if continuation != nil {
		payload = append(payload, continuation...)
	}
	n := length - 2
	if n > len(payload) {
		n = len(payload)
	}
	payload = payload[:n&^1]
	codes := make([]uint16, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		codes = append(codes, uint16(payload[i])|uint16(payload[i+1])<<8)
	}
	return strings.TrimRight(string(utf16.Decode(codes)), "\x00"), nil
}
