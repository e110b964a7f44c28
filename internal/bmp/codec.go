package bmp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load replaces the image with the bitmap read from path. On failure the
// image is left unchanged.
func (img *Image) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileNotOpenable, err)
	}
	defer file.Close()

	if err := img.Decode(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Info("image loaded", "path", path, "width", img.Width(), "height", img.Height(), "bits", img.BitCount())
	return nil
}

// Decode replaces the image with the bitmap read from r.
func (img *Image) Decode(r io.Reader) error {
	fileHeader, err := readFileHeader(r)
	if err != nil {
		return err
	}
	v, err := variantForOffset(fileHeader.OffsetData)
	if err != nil {
		return err
	}

	next := Image{
		fileHeader:   fileHeader,
		infoHeader:   newInfoHeader(TrueColorBits),
		v4InfoHeader: newV4InfoHeader(),
		active:       v,
	}
	switch v {
	case trueColor:
		err = binary.Read(r, littleEndian, &next.infoHeader)
	case deepColor:
		err = binary.Read(r, littleEndian, &next.v4InfoHeader)
	}
	if err != nil {
		return fmt.Errorf("reading %s info header: %w", v, err)
	}
	if err := checkInfoHeader(next.header(), v); err != nil {
		return err
	}
	if err := next.readPixels(r); err != nil {
		return err
	}

	*img = next
	return nil
}

// readPixels reads height rows of width samples, swapping each sample from
// disk order (blue, green, red[, alpha]) and skipping the row padding.
// Storage grows with the data actually read, so a header claiming huge
// dimensions fails on the short stream instead of allocating for them.
func (img *Image) readPixels(r io.Reader) error {
	width, height := img.Width(), img.Height()
	size := img.bytesPerPixel()
	br := bufio.NewReader(r)
	sample := make([]byte, size)
	padding := make([]byte, rowPadding(width, size))

	img.pixels = make([]Pixel, 0, min(width*height, pixelPrealloc))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if _, err := io.ReadFull(br, sample); err != nil {
				return fmt.Errorf("reading pixel (%d, %d): %w", x, y, err)
			}
			sample[0], sample[2] = sample[2], sample[0]
			p, err := PixelFromBytes(size, sample)
			if err != nil {
				return err
			}
			img.pixels = append(img.pixels, p)
		}
		if _, err := io.ReadFull(br, padding); err != nil {
			return fmt.Errorf("reading padding of row %d: %w", y, err)
		}
	}
	return nil
}

// Save writes the image to path, appending ".bmp" when the path lacks it,
// and returns the path actually written.
func (img *Image) Save(path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".bmp") {
		path += ".bmp"
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileNotOpenable, err)
	}
	defer file.Close()

	// Create a buffer (to reduce syscalls)
	w := bufio.NewWriter(file)
	if err := img.Encode(w); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	logger.Info("image saved", "path", path, "bytes", img.fileHeader.FileSize)
	return path, nil
}

// Encode writes the file header, the active info header and the padded
// pixel rows to w.
func (img *Image) Encode(w io.Writer) error {
	if err := binary.Write(w, littleEndian, img.file()); err != nil {
		return fmt.Errorf("writing file header: %w", err)
	}
	if err := img.writeInfoHeader(w); err != nil {
		return err
	}
	return img.writePixels(w)
}

func (img *Image) writeInfoHeader(w io.Writer) error {
	var err error
	switch {
	case img.active == trueColor && img.infoHeader.BitCount == TrueColorBits:
		err = binary.Write(w, littleEndian, &img.infoHeader)
	case img.active == deepColor && img.v4InfoHeader.BitCount == DeepColorBits:
		err = binary.Write(w, littleEndian, &img.v4InfoHeader)
	default:
		return fmt.Errorf("%w: %s header with %d bits per pixel", ErrInconsistentHeader, img.active, img.BitCount())
	}
	if err != nil {
		return fmt.Errorf("writing %s info header: %w", img.active, err)
	}
	return nil
}

func (img *Image) writePixels(w io.Writer) error {
	width, height := img.Width(), img.Height()
	size := img.bytesPerPixel()
	padding := make([]byte, rowPadding(width, size))
	var scratch [maxPixelSize]byte

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sample, err := diskSample(img.pixels[y*width+x], size, scratch[:size])
			if err != nil {
				return fmt.Errorf("pixel (%d, %d): %w", x, y, err)
			}
			if _, err := w.Write(sample); err != nil {
				return err
			}
		}
		if _, err := w.Write(padding); err != nil {
			return err
		}
	}
	return nil
}

// diskSample fills buf with p's channels in blue, green, red[, alpha] order.
func diskSample(p Pixel, size int, buf []byte) ([]byte, error) {
	var err error
	if buf[0], err = p.Red(); err != nil {
		return nil, err
	}
	buf[1], _ = p.Green()
	buf[2], _ = p.Blue()
	if size == DeepColorByteSize {
		if buf[3], err = p.Alpha(); err != nil {
			return nil, err
		}
	}
	buf[0], buf[2] = buf[2], buf[0]
	return buf, nil
}
