package bmp

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
)

// sampleImage returns the 2x2 true-color image: white, red / green, blue.
func sampleImage(t *testing.T) *Image {
	t.Helper()
	img, err := NewSized(2, 2, TrueColorBits)
	require.NoError(t, err)
	require.NoError(t, img.SetRGB(0, 0, 255, 255, 255))
	require.NoError(t, img.SetRGB(1, 0, 255, 0, 0))
	require.NoError(t, img.SetRGB(0, 1, 0, 255, 0))
	require.NoError(t, img.SetRGB(1, 1, 0, 0, 255))
	return img
}

// patternImage fills every pixel with values derived from its coordinates.
func patternImage(t *testing.T, width, height int, bits uint16) *Image {
	t.Helper()
	img, err := NewSized(width, height, bits)
	require.NoError(t, err)
	var alpha uint8
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if bits == DeepColorBits {
				alpha = uint8(255 - x - y)
			}
			require.NoError(t, img.SetPixel(x, y, uint8(x*7), uint8(y*13), uint8(x+y), alpha))
		}
	}
	return img
}

func encode(t *testing.T, img *Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, img.Encode(&buf))
	return buf.Bytes()
}

func requireSamePixels(t *testing.T, want, got *Image) {
	t.Helper()
	require.Equal(t, want.Width(), got.Width())
	require.Equal(t, want.Height(), got.Height())
	require.Equal(t, want.BitCount(), got.BitCount())
	for y := 0; y < want.Height(); y++ {
		for x := 0; x < want.Width(); x++ {
			wp, err := want.PixelAt(x, y)
			require.NoError(t, err)
			gp, err := got.PixelAt(x, y)
			require.NoError(t, err)
			require.Equal(t, wp.Bytes(), gp.Bytes(), "pixel (%d, %d)", x, y)
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	data := encode(t, sampleImage(t))
	require.Len(t, data, 70)

	assert.Equal(t, []byte("BM"), data[0:2])
	assert.Equal(t, uint32(70), binary.LittleEndian.Uint32(data[2:6]))
	assert.Equal(t, uint32(54), binary.LittleEndian.Uint32(data[10:14]))
	assert.Equal(t, uint32(40), binary.LittleEndian.Uint32(data[14:18]))
	assert.Equal(t, uint16(24), binary.LittleEndian.Uint16(data[28:30]))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(data[34:38]))

	want := []byte{
		0xff, 0xff, 0xff, 0x00, 0x00, 0xff, 0x00, 0x00,
		0x00, 0xff, 0x00, 0xff, 0x00, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, want, data[54:])
}

func TestEncodeDeepColorLayout(t *testing.T) {
	img, err := NewSized(1, 1, DeepColorBits)
	require.NoError(t, err)
	require.NoError(t, img.SetPixel(0, 0, 1, 2, 3, 4))

	data := encode(t, img)
	require.Len(t, data, 14+108+4)
	assert.Equal(t, uint32(122), binary.LittleEndian.Uint32(data[10:14]))
	assert.Equal(t, uint32(108), binary.LittleEndian.Uint32(data[14:18]))
	assert.Equal(t, uint32(BiBitfields), binary.LittleEndian.Uint32(data[30:34]))
	assert.Equal(t, uint32(RedChannelMask), binary.LittleEndian.Uint32(data[54:58]))
	assert.Equal(t, uint32(AlphaChannelMask), binary.LittleEndian.Uint32(data[66:70]))
	assert.Equal(t, []byte("Win "), data[70:74])
	assert.Equal(t, []byte{3, 2, 1, 4}, data[122:])
}

func TestRoundTrip(t *testing.T) {
	for _, bits := range []uint16{TrueColorBits, DeepColorBits} {
		for width := 1; width <= 5; width++ {
			img := patternImage(t, width, 3, bits)
			img.SetResolution(2835, 2835)

			var got Image
			require.NoError(t, got.Decode(bytes.NewReader(encode(t, img))), "%d bits, width %d", bits, width)
			requireSamePixels(t, img, &got)
			assert.Equal(t, img.FileSize(), got.FileSize())
			x, y := got.Resolution()
			assert.Equal(t, [2]int32{2835, 2835}, [2]int32{x, y})
			requireConsistentHeaders(t, &got)
		}
	}
}

func TestSaveLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path, err := sampleImage(t).Save(filepath.Join(dir, "sample"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sample.bmp"), path)

	loaded, err := Open(path)
	require.NoError(t, err)
	requireSamePixels(t, sampleImage(t), loaded)

	again, err := loaded.Save(path)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	reloaded, err := Open(path)
	require.NoError(t, err)
	requireSamePixels(t, sampleImage(t), reloaded)
	assert.Equal(t, uint32(14+40+4*2*2), reloaded.FileSize())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(reloaded.FileSize()), info.Size())
}

func TestSaveKeepsBMPSuffix(t *testing.T) {
	path, err := sampleImage(t).Save(filepath.Join(t.TempDir(), "UPPER.BMP"))
	require.NoError(t, err)
	assert.Equal(t, "UPPER.BMP", filepath.Base(path))
}

func TestDecodeMatchesReferenceDecoder(t *testing.T) {
	for width := 1; width <= 4; width++ {
		img := patternImage(t, width, 2, TrueColorBits)
		ref, err := xbmp.Decode(bytes.NewReader(encode(t, img)))
		require.NoError(t, err)
		require.Equal(t, width, ref.Bounds().Dx())

		// The reference decoder treats the first stored row as the bottom one.
		for y := 0; y < img.Height(); y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := ref.At(x, img.Height()-1-y).RGBA()
				p, err := img.PixelAt(x, y)
				require.NoError(t, err)
				assert.Equal(t, p.Bytes(), []byte{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}, "pixel (%d, %d)", x, y)
			}
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := encode(t, sampleImage(t))
	deep := encode(t, patternImage(t, 2, 2, DeepColorBits))

	mutate := func(src []byte, f func(b []byte)) []byte {
		b := bytes.Clone(src)
		f(b)
		return b
	}

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"signature", mutate(valid, func(b []byte) { copy(b, "MB") }), ErrNotBMP},
		{"offset", mutate(valid, func(b []byte) { binary.LittleEndian.PutUint32(b[10:], 138) }), ErrUnsupportedLayout},
		{"header size", mutate(valid, func(b []byte) { binary.LittleEndian.PutUint32(b[14:], 124) }), ErrUnsupportedLayout},
		{"true-color compression", mutate(valid, func(b []byte) { binary.LittleEndian.PutUint32(b[30:], BiBitfields) }), ErrUnsupportedCompression},
		{"true-color bits", mutate(valid, func(b []byte) { binary.LittleEndian.PutUint16(b[28:], 32) }), ErrInvalidBitDepth},
		{"deep-color compression", mutate(deep, func(b []byte) { binary.LittleEndian.PutUint32(b[30:], BiRGB) }), ErrUnsupportedCompression},
		{"deep-color bits", mutate(deep, func(b []byte) { binary.LittleEndian.PutUint16(b[28:], 24) }), ErrInvalidBitDepth},
		{"oversized", mutate(valid, func(b []byte) {
			binary.LittleEndian.PutUint32(b[18:], 1<<16)
			binary.LittleEndian.PutUint32(b[22:], 1<<16)
		}), ErrUnsupportedLayout},
		{"negative height", mutate(valid, func(b []byte) { binary.LittleEndian.PutUint32(b[22:], 0xfffffffe) }), ErrUnsupportedLayout},
		{"truncated pixels", valid[:len(valid)-3], io.ErrUnexpectedEOF},
		{"truncated header", valid[:30], io.ErrUnexpectedEOF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var img Image
			assert.ErrorIs(t, img.Decode(bytes.NewReader(tc.data)), tc.want)
		})
	}
}

func TestDecodeHugeHeaderWithoutPixels(t *testing.T) {
	for _, dims := range [][2]uint32{{46000, 46000}, {1<<31 - 1, 1}} {
		header := encode(t, sampleImage(t))[:FileHeaderSize+InfoHeaderSize]
		binary.LittleEndian.PutUint32(header[18:], dims[0])
		binary.LittleEndian.PutUint32(header[22:], dims[1])

		var img Image
		err := img.Decode(bytes.NewReader(header))
		assert.ErrorIs(t, err, io.EOF, "%dx%d", dims[0], dims[1])
		assert.Equal(t, 0, img.Width())
	}
}

func TestLoadFailureKeepsImage(t *testing.T) {
	img := sampleImage(t)
	path := filepath.Join(t.TempDir(), "broken.bmp")
	require.NoError(t, os.WriteFile(path, []byte("BMnot really a bitmap"), 0o644))

	require.Error(t, img.Load(path))
	requireSamePixels(t, sampleImage(t), img)
}

func TestFileNotOpenable(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.bmp"))
	assert.ErrorIs(t, err, ErrFileNotOpenable)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = sampleImage(t).Save(filepath.Join(dir, "no", "such", "dir", "out"))
	assert.ErrorIs(t, err, ErrFileNotOpenable)
}

func TestEncodeRejectsForeignPixel(t *testing.T) {
	img, err := NewSized(2, 1, DeepColorBits)
	require.NoError(t, err)
	img.SetPixelUnchecked(1, 0, RGB(1, 2, 3))

	var buf bytes.Buffer
	assert.ErrorIs(t, img.Encode(&buf), ErrInvalidPixelAccess)
}

func TestEncodeInconsistentHeader(t *testing.T) {
	img := sampleImage(t)
	img.infoHeader.BitCount = 32

	var buf bytes.Buffer
	assert.ErrorIs(t, img.Encode(&buf), ErrInconsistentHeader)
}
