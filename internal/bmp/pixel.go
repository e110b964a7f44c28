package bmp

import (
	"fmt"
	"strings"
)

// Byte counts of the supported pixel layouts.
const (
	DeepColorByteSize  = 4
	TrueColorByteSize  = 3
	MonochromeByteSize = 1

	maxPixelSize = DeepColorByteSize
)

// Pixel holds the channel bytes of one sample in memory order:
// red, green, blue and, for deep-color pixels, alpha.
//
// Pixel is a value type. Assigning or passing it copies the bytes.
type Pixel struct {
	size uint16
	data [maxPixelSize]byte
}

// NewPixel returns a zeroed pixel of the given byte count.
func NewPixel(size int) (Pixel, error) {
	if size < 0 || size > maxPixelSize {
		return Pixel{}, fmt.Errorf("%w: %d bytes", ErrInvalidPixelAccess, size)
	}
	return Pixel{size: uint16(size)}, nil
}

// PixelFromBytes copies size bytes from src into a new pixel.
func PixelFromBytes(size int, src []byte) (Pixel, error) {
	p, err := NewPixel(size)
	if err != nil {
		return Pixel{}, err
	}
	if len(src) < size {
		return Pixel{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidPixelAccess, size, len(src))
	}
	copy(p.data[:size], src)
	return p, nil
}

// RGB returns a true-color pixel.
func RGB(red, green, blue uint8) Pixel {
	return Pixel{size: TrueColorByteSize, data: [maxPixelSize]byte{red, green, blue}}
}

// RGBA returns a deep-color pixel.
func RGBA(red, green, blue, alpha uint8) Pixel {
	return Pixel{size: DeepColorByteSize, data: [maxPixelSize]byte{red, green, blue, alpha}}
}

// Size returns the pixel byte count.
func (p Pixel) Size() int {
	return int(p.size)
}

// Bytes returns a copy of the channel bytes.
func (p Pixel) Bytes() []byte {
	b := make([]byte, p.size)
	copy(b, p.data[:p.size])
	return b
}

func (p Pixel) hasColor() bool {
	return p.size == TrueColorByteSize || p.size == DeepColorByteSize
}

func (p Pixel) channel(i int, name string) (uint8, error) {
	if !p.hasColor() {
		return 0, fmt.Errorf("%w: %d bytes has no %s component", ErrInvalidPixelAccess, p.size, name)
	}
	return p.data[i], nil
}

func (p Pixel) Red() (uint8, error) {
	return p.channel(0, "red")
}

func (p Pixel) Green() (uint8, error) {
	return p.channel(1, "green")
}

func (p Pixel) Blue() (uint8, error) {
	return p.channel(2, "blue")
}

// Alpha fails for anything but a 4-byte pixel.
func (p Pixel) Alpha() (uint8, error) {
	if p.size != DeepColorByteSize {
		return 0, fmt.Errorf("%w: %d bytes has no alpha component", ErrInvalidPixelAccess, p.size)
	}
	return p.data[3], nil
}

func (p Pixel) String() string {
	parts := make([]string, p.size)
	for i := range parts {
		parts[i] = fmt.Sprint(p.data[i])
	}
	return strings.Join(parts, " ")
}
