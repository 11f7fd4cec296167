package cp2130

import (
	"encoding/binary"
	"fmt"
)

// Chip select control codes, AN792 Set_GPIO_Chip_Select
const (
	csDisable         = 0x00
	csEnable          = 0x01
	csEnableExclusive = 0x02
)

// encodeChipSelect builds the 2-byte Set_GPIO_Chip_Select payload
func encodeChipSelect(channel, control uint8) [2]byte {
	return [2]byte{channel, control}
}

// encodeSPIWord builds the 2-byte Set_SPI_Word payload.  The word packs
// CPOL at bit 5, CPHA at bit 4, chip select drive at bit 3 and the clock
// frequency code in bits 2:0.
func encodeSPIWord(channel uint8, mode SPIMode) [2]byte {
	var word byte
	if mode.CPOL {
		word |= 1 << 5
	}
	if mode.CPHA {
		word |= 1 << 4
	}
	if mode.CSModePushPull {
		word |= 1 << 3
	}
	word |= mode.ClockFreq & 0x07
	return [2]byte{channel, word}
}

// encodeSPIDelay builds the 8-byte Set_SPI_Delay payload.  mask enables the
// individual delays; the three delay values are big-endian and in units of
// 10 us.  A zero mask with zero delays disables them all.
func encodeSPIDelay(channel, mask uint8, interByte, postAssert, preDeassert uint16) [8]byte {
	var out [8]byte
	out[0] = channel
	out[1] = mask
	binary.BigEndian.PutUint16(out[2:4], interByte)
	binary.BigEndian.PutUint16(out[4:6], postAssert)
	binary.BigEndian.PutUint16(out[6:8], preDeassert)
	return out
}

// encodeGPIOValues builds the 4-byte Set_GPIO_Values payload driving one
// pin.  The 16-bit level and mask words lay out GPIO.7-GPIO.0 in the first
// byte and GPIO.10-GPIO.8 in bits 7:5 of the second.
func encodeGPIOValues(pin uint8, high bool) ([4]byte, error) {
	var out [4]byte
	bit, err := gpioBit(pin)
	if err != nil {
		return out, err
	}
	var level uint16
	if high {
		level = bit
	}
	binary.BigEndian.PutUint16(out[0:2], level)
	binary.BigEndian.PutUint16(out[2:4], bit)
	return out, nil
}

// gpioBit maps a pin index to its position in the GPIO level/mask words
func gpioBit(pin uint8) (uint16, error) {
	switch {
	case pin <= 7:
		return 1 << (8 + uint16(pin)), nil
	case pin <= 10:
		return 1 << (5 + uint16(pin) - 8), nil
	default:
		return 0, fmt.Errorf("cp2130: GPIO pin %d out of range [0,10]", pin)
	}
}

// encodeBulkWriteHeader builds the 8-byte command block that precedes SPI
// payload on the bulk OUT endpoint: reserved, reserved, command (Write),
// reserved, then the payload length little-endian.
func encodeBulkWriteHeader(datalen int) []byte {
	out := make([]byte, 8, 8+datalen)
	out[2] = 0x01 // Write
	binary.LittleEndian.PutUint32(out[4:8], uint32(datalen))
	return out
}

// decodeUSBConfig parses the 9-byte Get_USB_Config response
func decodeUSBConfig(buf []byte) USBConfig {
	return USBConfig{
		VID:           binary.LittleEndian.Uint16(buf[0:2]),
		PID:           binary.LittleEndian.Uint16(buf[2:4]),
		MaxPower:      buf[4],
		PowerMode:     buf[5],
		MajorRelease:  buf[6],
		MinorRelease:  buf[7],
		TransferPrior: buf[8],
	}
}
