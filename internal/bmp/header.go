package bmp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Layout constants of the BMP container.
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapv4header
const (
	FileHeaderSize   = 14
	InfoHeaderSize   = 40
	V4InfoHeaderSize = 108

	ColorPlanes = 1
	BiRGB       = 0
	BiBitfields = 3

	DefaultResolution = 1

	maxPixels = 1<<31 - 1

	// pixelPrealloc caps the capacity reserved before pixel data is read.
	pixelPrealloc = 1 << 16

	RedChannelMask   = 0x00FF0000
	GreenChannelMask = 0x0000FF00
	BlueChannelMask  = 0x000000FF
	AlphaChannelMask = 0xFF000000

	DeepColorBits  = 32
	TrueColorBits  = 24
	GrayScaleBits  = 8
	MonochromeBits = 1
)

var (
	signature         = [2]byte{'B', 'M'}
	windowsColorSpace = [4]byte{'W', 'i', 'n', ' '}
	littleEndian      = binary.LittleEndian
)

// FileHeader is the 14-byte BITMAPFILEHEADER.
type FileHeader struct {
	Type       [2]byte // Must be "BM".
	FileSize   uint32  // Size of the whole file, in bytes.
	Reserved1  uint16  // Reserved; must be zero.
	Reserved2  uint16  // Reserved; must be zero.
	OffsetData uint32  // Offset from the start of the file to the pixel array.
}

// InfoHeader is the 40-byte BITMAPINFOHEADER.
type InfoHeader struct {
	Size            uint32 // Size of this header, in bytes.
	Width           int32  // Width of the bitmap, in pixels.
	Height          int32  // Height of the bitmap, in pixels.
	Planes          uint16 // Number of color planes, always 1.
	BitCount        uint16 // Bits per pixel.
	Compression     uint32 // Compression method.
	SizeImage       uint32 // Size of the raw pixel data, without row padding.
	XPixelsPerMeter int32  // Horizontal resolution.
	YPixelsPerMeter int32  // Vertical resolution.
	ColorsUsed      uint32 // Number of palette colors.
	ColorsImportant uint32 // Number of important colors.
}

// V4InfoHeader is the 108-byte BITMAPV4HEADER.
type V4InfoHeader struct {
	InfoHeader
	RedMask    uint32
	GreenMask  uint32
	BlueMask   uint32
	AlphaMask  uint32
	CSType     [4]byte // Color space type.
	RedX       int32
	RedY       int32
	RedZ       int32
	GreenX     int32
	GreenY     int32
	GreenZ     int32
	BlueX      int32
	BlueY      int32
	BlueZ      int32
	GammaRed   uint32
	GammaGreen uint32
	GammaBlue  uint32
}

// variant tags which info header is live for an image.
type variant uint8

const (
	trueColor variant = iota
	deepColor
)

func (v variant) headerSize() uint32 {
	if v == deepColor {
		return V4InfoHeaderSize
	}
	return InfoHeaderSize
}

func (v variant) String() string {
	if v == deepColor {
		return "deep-color"
	}
	return "true-color"
}

// variantForBits selects the header variant that can hold bitCount.
func variantForBits(bitCount uint16) (variant, error) {
	switch bitCount {
	case TrueColorBits:
		return trueColor, nil
	case DeepColorBits:
		return deepColor, nil
	}
	return 0, fmt.Errorf("%w: %d bits per pixel", ErrInvalidBitDepth, bitCount)
}

// variantForOffset selects the header variant from the file header's pixel data offset.
func variantForOffset(offset uint32) (variant, error) {
	switch offset {
	case FileHeaderSize + InfoHeaderSize:
		return trueColor, nil
	case FileHeaderSize + V4InfoHeaderSize:
		return deepColor, nil
	}
	return 0, fmt.Errorf("%w: pixel data offset %d", ErrUnsupportedLayout, offset)
}

// byteCount maps a bit depth to the in-memory pixel size.
// Gray-scale is stored in 4-byte samples.
func byteCount(bitCount uint16) (int, error) {
	switch bitCount {
	case DeepColorBits:
		return DeepColorByteSize, nil
	case TrueColorBits:
		return TrueColorByteSize, nil
	case GrayScaleBits:
		return DeepColorByteSize, nil
	case MonochromeBits:
		return MonochromeByteSize, nil
	}
	return 0, fmt.Errorf("%w: invalid bit count %d", ErrInvalidBitDepth, bitCount)
}

// rowPadding is the number of zero bytes that align a row to 4 bytes.
func rowPadding(width, bytesPerPixel int) int {
	return (4 - (width*bytesPerPixel)%4) % 4
}

func newInfoHeader(bitCount uint16) InfoHeader {
	return InfoHeader{
		Size:            InfoHeaderSize,
		Planes:          ColorPlanes,
		BitCount:        bitCount,
		Compression:     BiRGB,
		XPixelsPerMeter: DefaultResolution,
		YPixelsPerMeter: DefaultResolution,
	}
}

func newV4InfoHeader() V4InfoHeader {
	base := newInfoHeader(DeepColorBits)
	base.Size = V4InfoHeaderSize
	base.Compression = BiBitfields
	return V4InfoHeader{
		InfoHeader: base,
		RedMask:    RedChannelMask,
		GreenMask:  GreenChannelMask,
		BlueMask:   BlueChannelMask,
		AlphaMask:  AlphaChannelMask,
		CSType:     windowsColorSpace,
	}
}

// readFileHeader reads and checks the BITMAPFILEHEADER.
func readFileHeader(r io.Reader) (FileHeader, error) {
	var fh FileHeader
	if err := binary.Read(r, littleEndian, &fh); err != nil {
		return FileHeader{}, fmt.Errorf("reading file header: %w", err)
	}
	if fh.Type != signature {
		return FileHeader{}, fmt.Errorf("%w: signature %q", ErrNotBMP, fh.Type[:])
	}
	return fh, nil
}

// checkInfoHeader validates the fields the codec relies on for variant v.
func checkInfoHeader(h *InfoHeader, v variant) error {
	if h.Size != v.headerSize() {
		return fmt.Errorf("%w: %s header declares %d bytes", ErrUnsupportedLayout, v, h.Size)
	}
	wantCompression, wantBits := uint32(BiRGB), uint16(TrueColorBits)
	if v == deepColor {
		wantCompression, wantBits = BiBitfields, DeepColorBits
	}
	if h.Compression != wantCompression {
		return fmt.Errorf("%w: %s image uses method %d", ErrUnsupportedCompression, v, h.Compression)
	}
	if h.BitCount != wantBits {
		return fmt.Errorf("%w: %s image declares %d bits per pixel", ErrInvalidBitDepth, v, h.BitCount)
	}
	if h.Width <= 0 || h.Height <= 0 || int64(h.Width)*int64(h.Height) > maxPixels {
		return fmt.Errorf("%w: %dx%d", ErrUnsupportedLayout, h.Width, h.Height)
	}
	return nil
}
