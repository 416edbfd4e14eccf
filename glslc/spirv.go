package glslc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MagicNumber is the first word of every SPIR-V module.
const MagicNumber uint32 = 0x07230203

// HeaderSize is the size of the SPIR-V header in bytes.
const HeaderSize = 5 * 4

var (
	// ErrShortModule is returned when the data cannot hold a header.
	ErrShortModule = errors.New("spirv: module shorter than header")

	// ErrBadMagic is returned when the first word is not MagicNumber.
	ErrBadMagic = errors.New("spirv: invalid magic number")
)

// Header is the five-word SPIR-V module header.
type Header struct {
	Magic     uint32
	Version   uint32
	Generator uint32
	Bound     uint32
	Schema    uint32
}

// ParseHeader decodes the header of a little-endian SPIR-V module.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortModule, len(data))
	}
	if len(data)%4 != 0 {
		return Header{}, fmt.Errorf("spirv: size %d is not a multiple of 4", len(data))
	}
	h := Header{
		Magic:     binary.LittleEndian.Uint32(data[0:4]),
		Version:   binary.LittleEndian.Uint32(data[4:8]),
		Generator: binary.LittleEndian.Uint32(data[8:12]),
		Bound:     binary.LittleEndian.Uint32(data[12:16]),
		Schema:    binary.LittleEndian.Uint32(data[16:20]),
	}
	if h.Magic != MagicNumber {
		return h, fmt.Errorf("%w: 0x%08X", ErrBadMagic, h.Magic)
	}
	return h, nil
}

// MajorMinor returns the SPIR-V version encoded in the version word.
func (h Header) MajorMinor() (major, minor uint8) {
	return uint8(h.Version >> 16), uint8(h.Version >> 8) //nolint:gosec // G115: byte extraction
}

// String formats the header like a disassembler preamble.
func (h Header) String() string {
	major, minor := h.MajorMinor()
	return fmt.Sprintf("SPIR-V %d.%d, generator 0x%08X, bound %d, schema %d", major, minor, h.Generator, h.Bound, h.Schema)
}

// Words returns the number of 32-bit words in data.
func Words(data []byte) int { return len(data) / 4 }
