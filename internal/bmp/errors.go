package bmp

import "errors"

var (
	// ErrFileNotOpenable is returned when a load or save target cannot be opened.
	ErrFileNotOpenable = errors.New("bmp: file cannot be opened")
	// ErrNotBMP is returned when the file signature is not "BM".
	ErrNotBMP = errors.New("bmp: not a BMP file")
	// ErrUnsupportedLayout is returned when the pixel data offset matches
	// neither the BITMAPINFOHEADER nor the BITMAPV4HEADER layout.
	ErrUnsupportedLayout = errors.New("bmp: unsupported header layout")
	// ErrUnsupportedCompression is returned when the compression method does
	// not match the one expected for the detected header.
	ErrUnsupportedCompression = errors.New("bmp: unsupported compression")
	// ErrInvalidBitDepth is returned for bit depths the codec cannot handle.
	ErrInvalidBitDepth = errors.New("bmp: invalid bit depth")
	// ErrOutOfBounds is returned for pixel coordinates outside the image.
	ErrOutOfBounds = errors.New("bmp: pixel coordinates out of bounds")
	// ErrInvalidArgument is returned for non-positive dimensions and zero
	// scale factors.
	ErrInvalidArgument = errors.New("bmp: invalid argument")
	// ErrInvalidPixelAccess is returned when a channel is read from a pixel
	// whose size has no such channel.
	ErrInvalidPixelAccess = errors.New("bmp: unsupported pixel size")
	// ErrInconsistentHeader means the active header disagrees with its own
	// variant. It is not reachable through the public API.
	ErrInconsistentHeader = errors.New("bmp: inconsistent header state")
)
