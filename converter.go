package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Raimguzhinov/bmpedit/internal/bmp"
)

type ColorRGB struct {
	R, G, B byte
}

type PCXHeader struct {
	Manufacturer byte
	Version      byte
	Encoding     byte
	BitsPerPixel byte
	XMin, YMin   uint16
	XMax, YMax   uint16
	HDpi, VDpi   uint16
	Colormap     [48]byte
	Reserved     byte
	NumPlanes    byte
	BytesPerLine uint16
	PaletteInfo  uint16
	HScreenSize  uint16
	VScreenSize  uint16
	Filler       [54]byte
}

const (
	PCXManufacturer  = 0x0A
	PCXPaletteMarker = 0x0C
	RLEThreshold     = 192
	PCXPaletteSize   = 768
	PCXHeaderSize    = 128
	PCXPaletteOffset = 769
)

var (
	errNotPCX         = errors.New("not a PCX file")
	errUnsupportedPCX = errors.New("unsupported PCX format")
)

// LoadPCX reads an 8-bit paletted PCX file into a true-color image.
func LoadPCX(filename string) (*bmp.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodePCX(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return img, nil
}

// DecodePCX decodes a run-length encoded PCX stream. The 256-color palette
// trailing the data is used when present, the header's 16-color map otherwise.
func DecodePCX(r io.ReadSeeker) (*bmp.Image, error) {
	var hdr PCXHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Manufacturer != PCXManufacturer || hdr.XMax < hdr.XMin || hdr.YMax < hdr.YMin {
		return nil, errNotPCX
	}
	if hdr.BitsPerPixel != 8 || hdr.NumPlanes != 1 {
		return nil, fmt.Errorf("%w: %d bits x %d planes", errUnsupportedPCX, hdr.BitsPerPixel, hdr.NumPlanes)
	}
	w := int(hdr.XMax) - int(hdr.XMin) + 1
	h := int(hdr.YMax) - int(hdr.YMin) + 1
	if int(hdr.BytesPerLine) < w {
		return nil, fmt.Errorf("%w: %d bytes per line for width %d", errNotPCX, hdr.BytesPerLine, w)
	}

	palette, err := readPalette(r, &hdr)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(PCXHeaderSize, io.SeekStart); err != nil {
		return nil, err
	}

	img, err := bmp.NewSized(w, h, bmp.TrueColorBits)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	bytesPerLine := int(hdr.BytesPerLine)
	put := func(x, y int, index byte) {
		if x < w {
			c := palette[index]
			_ = img.SetRGB(x, y, c.R, c.G, c.B)
		}
	}

	var x, y int
	for y < h {
		b, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading scanline %d: %w", y, io.ErrUnexpectedEOF)
		}
		if b >= RLEThreshold {
			count := b & 0x3F
			c, err := br.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("reading scanline %d: %w", y, io.ErrUnexpectedEOF)
			}
			for j := 0; j < int(count) && x < bytesPerLine; j++ {
				put(x, y, c)
				x++
			}
		} else {
			put(x, y, b)
			x++
		}
		if x >= bytesPerLine {
			x = 0
			y++
		}
	}
	return img, nil
}

func readPalette(r io.ReadSeeker, hdr *PCXHeader) ([256]ColorRGB, error) {
	var palette [256]ColorRGB

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return palette, err
	}
	if end >= PCXHeaderSize+PCXPaletteOffset {
		if _, err := r.Seek(end-PCXPaletteOffset, io.SeekStart); err != nil {
			return palette, err
		}
		palData := make([]byte, PCXPaletteOffset)
		if _, err := io.ReadFull(r, palData); err != nil {
			return palette, err
		}
		if palData[0] == PCXPaletteMarker {
			for i := 0; i < 256; i++ {
				palette[i] = ColorRGB{
					R: palData[1+i*3+0],
					G: palData[1+i*3+1],
					B: palData[1+i*3+2],
				}
			}
			return palette, nil
		}
	}
	for i := 0; i < 16; i++ {
		palette[i] = ColorRGB{
			R: hdr.Colormap[i*3+0],
			G: hdr.Colormap[i*3+1],
			B: hdr.Colormap[i*3+2],
		}
	}
	return palette, nil
}
