package bmp

import (
	"fmt"
	"math"
)

// Resize changes the canvas to newWidth x newHeight. Pixels in the overlap
// with the old canvas keep their value; new cells are zeroed pixels.
func (img *Image) Resize(newWidth, newHeight int) error {
	if err := checkDimensions(newWidth, newHeight); err != nil {
		return err
	}
	width, height := img.Width(), img.Height()
	if newWidth == width && newHeight == height {
		logger.Info("image already has the requested dimensions", "width", width, "height", height)
		return nil
	}

	pixels := img.blankPixels(newWidth * newHeight)
	minWidth, minHeight := min(width, newWidth), min(height, newHeight)
	for y := 0; y < minHeight; y++ {
		copy(pixels[y*newWidth:y*newWidth+minWidth], img.pixels[y*width:y*width+minWidth])
	}
	img.replacePixels(pixels, newWidth, newHeight)
	logger.Info("image resized", "width", newWidth, "height", newHeight)
	return nil
}

// SetWidth resizes the image keeping its height.
func (img *Image) SetWidth(width int) error {
	return img.Resize(width, img.Height())
}

// SetHeight resizes the image keeping its width.
func (img *Image) SetHeight(height int) error {
	return img.Resize(img.Width(), height)
}

// MultiplySize scales both dimensions by factor with nearest-neighbor
// sampling. A negative factor also mirrors the image through its origin:
// destination (x, y) samples source (width - x/|factor|, height - y/|factor|),
// clamped to the last column and row.
func (img *Image) MultiplySize(factor float64) error {
	if factor == 0 {
		return fmt.Errorf("%w: factor must not be zero", ErrInvalidArgument)
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("%w: factor %v", ErrInvalidArgument, factor)
	}
	reverse := factor < 0
	if reverse {
		factor = -factor
		logger.Debug("reversing image")
	}

	width, height := img.Width(), img.Height()
	scaledWidth := math.Floor(float64(width) * factor)
	scaledHeight := math.Floor(float64(height) * factor)
	if scaledWidth < 1 || scaledHeight < 1 || scaledWidth*scaledHeight > maxPixels {
		return fmt.Errorf("%w: factor %v turns %dx%d into %.0fx%.0f", ErrInvalidArgument, factor, width, height, scaledWidth, scaledHeight)
	}
	newWidth, newHeight := int(scaledWidth), int(scaledHeight)

	pixels := img.blankPixels(newWidth * newHeight)
	for y := 0; y < newHeight; y++ {
		srcY := sourceIndex(y, height, factor, reverse)
		if srcY >= height {
			continue
		}
		for x := 0; x < newWidth; x++ {
			srcX := sourceIndex(x, width, factor, reverse)
			if srcX >= width {
				continue
			}
			pixels[y*newWidth+x] = img.pixels[srcY*width+srcX]
		}
	}
	img.replacePixels(pixels, newWidth, newHeight)

	if factor > 1 {
		logger.Info("image widened", "width", newWidth, "height", newHeight)
	} else {
		logger.Info("image shrunk", "width", newWidth, "height", newHeight)
	}
	return nil
}

// sourceIndex maps destination coordinate i to the source coordinate it
// samples along an axis of length dim.
func sourceIndex(i, dim int, factor float64, reverse bool) int {
	step := float64(i) / factor
	if !reverse {
		return int(step)
	}
	src := int(float64(dim) - step)
	return min(max(src, 0), dim-1)
}

func (img *Image) replacePixels(pixels []Pixel, width, height int) {
	h := img.header()
	h.Width, h.Height = int32(width), int32(height)
	img.pixels = pixels
	img.updateHeaders()
}
