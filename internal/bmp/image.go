// Package bmp reads, edits and writes uncompressed 24-bit (BITMAPINFOHEADER)
// and 32-bit (BITMAPV4HEADER) bitmap images.
package bmp

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Image is a bitmap held in memory as a flat row-major slice of pixels,
// indexed by y*width + x.
//
// Both info header records are kept. The active one, selected by bit depth
// when constructing or by the data offset when loading, describes geometry
// and pixel format. The zero Image is an empty true-color image. An Image
// must not be used from several goroutines.
type Image struct {
	fileHeader   FileHeader
	infoHeader   InfoHeader
	v4InfoHeader V4InfoHeader
	active       variant
	pixels       []Pixel
}

// New returns an empty image of the given bit depth (24 or 32).
func New(bitCount uint16) (*Image, error) {
	v, err := variantForBits(bitCount)
	if err != nil {
		return nil, err
	}
	img := &Image{active: v}
	img.reset()
	return img, nil
}

// NewSized returns a width x height image of the given bit depth with every
// pixel zeroed.
func NewSized(width, height int, bitCount uint16) (*Image, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	img, err := New(bitCount)
	if err != nil {
		return nil, err
	}
	h := img.header()
	h.Width, h.Height = int32(width), int32(height)
	img.pixels = img.blankPixels(width * height)
	img.updateHeaders()
	return img, nil
}

// Open loads the bitmap at path into a new image.
func Open(path string) (*Image, error) {
	img := &Image{}
	if err := img.Load(path); err != nil {
		return nil, err
	}
	return img, nil
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	dup := *img
	dup.pixels = make([]Pixel, len(img.pixels))
	copy(dup.pixels, img.pixels)
	return &dup
}

// header returns the active info header. For the deep-color variant it is
// the base part of the V4 header, so both variants share field access.
func (img *Image) header() *InfoHeader {
	if img.active == deepColor {
		return &img.v4InfoHeader.InfoHeader
	}
	if img.fileHeader.Type != signature {
		img.reset()
	}
	return &img.infoHeader
}

// file returns the file header, initializing a zero Image first.
func (img *Image) file() *FileHeader {
	img.header()
	return &img.fileHeader
}

// reset installs blank headers for the active variant and drops the pixels.
func (img *Image) reset() {
	img.fileHeader = FileHeader{Type: signature}
	img.infoHeader = newInfoHeader(TrueColorBits)
	img.v4InfoHeader = newV4InfoHeader()
	img.pixels = nil
	img.updateHeaders()
}

func (img *Image) bytesPerPixel() int {
	n, err := byteCount(img.header().BitCount)
	if err != nil {
		// Constructors and Load only ever activate 24 or 32 bits.
		panic(err)
	}
	return n
}

func (img *Image) blankPixels(n int) []Pixel {
	size := img.bytesPerPixel()
	pixels := make([]Pixel, n)
	for i := range pixels {
		pixels[i] = Pixel{size: uint16(size)}
	}
	return pixels
}

// updateHeaders recomputes the size fields after any geometry, pixel array
// or resolution change.
func (img *Image) updateHeaders() {
	h := img.header()
	stride := int(h.Width)*img.bytesPerPixel() + rowPadding(int(h.Width), img.bytesPerPixel())
	h.SizeImage = uint32(int(h.Width) * int(h.Height) * img.bytesPerPixel())
	img.fileHeader.Type = signature
	img.fileHeader.OffsetData = FileHeaderSize + h.Size
	img.fileHeader.FileSize = img.fileHeader.OffsetData + uint32(stride*int(h.Height))
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidArgument, width, height)
	}
	if int64(width)*int64(height) > maxPixels {
		return fmt.Errorf("%w: %dx%d is too large", ErrInvalidArgument, width, height)
	}
	return nil
}

// Width returns the image width in pixels.
func (img *Image) Width() int {
	return int(img.header().Width)
}

// Height returns the image height in pixels.
func (img *Image) Height() int {
	return int(img.header().Height)
}

// BitCount returns the bits per pixel of the active header.
func (img *Image) BitCount() uint16 {
	return img.header().BitCount
}

// SizeImage returns the raw pixel data size recorded in the active header.
func (img *Image) SizeImage() uint32 {
	return img.header().SizeImage
}

// FileSize returns the file size recorded in the file header.
func (img *Image) FileSize() uint32 {
	return img.file().FileSize
}

// DataOffset returns the pixel data offset recorded in the file header.
func (img *Image) DataOffset() uint32 {
	return img.file().OffsetData
}

// HeaderSize returns the size of the active info header.
func (img *Image) HeaderSize() uint32 {
	return img.header().Size
}

// HasAlpha reports whether pixels carry an alpha channel.
func (img *Image) HasAlpha() bool {
	return img.active == deepColor
}

// Resolution returns the horizontal and vertical resolution in pixels per meter.
func (img *Image) Resolution() (x, y int32) {
	h := img.header()
	return h.XPixelsPerMeter, h.YPixelsPerMeter
}

// SetResolution sets the horizontal and vertical resolution.
func (img *Image) SetResolution(x, y int32) {
	h := img.header()
	h.XPixelsPerMeter, h.YPixelsPerMeter = x, y
	img.updateHeaders()
}

// SetUniformResolution sets both resolutions to the same value.
func (img *Image) SetUniformResolution(resolution int32) {
	img.SetResolution(resolution, resolution)
}

func (img *Image) inBounds(x, y int) error {
	if x < 0 || y < 0 || x >= img.Width() || y >= img.Height() {
		return fmt.Errorf("%w: (%d, %d) in %dx%d image", ErrOutOfBounds, x, y, img.Width(), img.Height())
	}
	return nil
}

// PixelAt returns a copy of the pixel at column x, row y.
func (img *Image) PixelAt(x, y int) (Pixel, error) {
	if err := img.inBounds(x, y); err != nil {
		return Pixel{}, err
	}
	return img.pixels[y*img.Width()+x], nil
}

// SetPixel stores a pixel built from the given channels. A 24-bit image has
// no alpha channel: a non-zero a is dropped with a warning.
func (img *Image) SetPixel(x, y int, r, g, b, a uint8) error {
	if err := img.inBounds(x, y); err != nil {
		return err
	}
	i := y*img.Width() + x
	switch img.header().BitCount {
	case DeepColorBits:
		img.pixels[i] = RGBA(r, g, b, a)
	case TrueColorBits:
		if a != 0 {
			logger.Warn("image has no alpha channel, alpha discarded", "x", x, "y", y, "alpha", a)
		}
		img.pixels[i] = RGB(r, g, b)
	}
	return nil
}

// SetRGB is SetPixel with a zero alpha.
func (img *Image) SetRGB(x, y int, r, g, b uint8) error {
	return img.SetPixel(x, y, r, g, b, 0)
}

// SetPixelUnchecked stores p at index y*width+x without validating the
// coordinates or the pixel size. An x past the row end lands on a later
// row; an index past the buffer panics.
func (img *Image) SetPixelUnchecked(x, y int, p Pixel) {
	img.pixels[y*img.Width()+x] = p
}

// Image returns the pixels as an image.NRGBA. Pixels without alpha are opaque.
func (img *Image) Image() (*image.NRGBA, error) {
	w, h := img.Width(), img.Height()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := img.pixels[y*w+x]
			c, err := nrgba(p)
			if err != nil {
				return nil, fmt.Errorf("pixel (%d, %d): %w", x, y, err)
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

func nrgba(p Pixel) (color.NRGBA, error) {
	r, err := p.Red()
	if err != nil {
		return color.NRGBA{}, err
	}
	g, _ := p.Green()
	b, _ := p.Blue()
	c := color.NRGBA{R: r, G: g, B: b, A: 0xff}
	if p.Size() == DeepColorByteSize {
		c.A, _ = p.Alpha()
	}
	return c, nil
}

// String summarizes the headers in human-readable form.
func (img *Image) String() string {
	var sb strings.Builder
	fmt.Fprintln(&sb, "Image information:")
	fmt.Fprintf(&sb, " - File size: %d bytes\n", img.file().FileSize)
	fmt.Fprintf(&sb, " - Width: %d\n", img.Width())
	fmt.Fprintf(&sb, " - Height: %d\n", img.Height())
	fmt.Fprintf(&sb, " - Bit count: %d (%s)\n", img.BitCount(), img.active)
	x, y := img.Resolution()
	fmt.Fprintf(&sb, " - Resolution: %dx%d px/m\n", x, y)
	return sb.String()
}
