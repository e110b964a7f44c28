package main

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Raimguzhinov/bmpedit/internal/bmp"
)

// Mandelbrot renders the Mandelbrot set as a gray-scale true-color image.
// The escape count of z = z*z + c maps linearly to the gray level, so points
// inside the set are white.
func Mandelbrot(width, height, iterations int) (*bmp.Image, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	img, err := bmp.NewSized(width, height, bmp.TrueColorBits)
	if err != nil {
		return nil, err
	}

	gray := make([]byte, width*height)
	numCPU := runtime.NumCPU()
	var wg sync.WaitGroup

	step := height / numCPU
	for i := 0; i < numCPU; i++ {
		start := i * step
		end := start + step
		if i == numCPU-1 {
			end = height
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				for x := 0; x < width; x++ {
					n := escapeTime(x, y, width, height, iterations)
					gray[y*width+x] = byte(n * 255 / iterations)
				}
			}
		}(start, end)
	}
	wg.Wait()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := gray[y*width+x]
			if err := img.SetRGB(x, y, g, g, g); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

// escapeTime returns how many iterations the point for pixel (x, y) stays
// bounded. The shorter side spans 3 units of the complex plane.
func escapeTime(x, y, width, height, iterations int) int {
	scale := 3.0 / float64(min(width, height))
	cr := (float64(x) - float64(width)*0.65) * scale
	ci := (float64(y) - float64(height)/2) * scale

	var zr, zi float64
	n := 0
	for ; n < iterations && zr*zr+zi*zi <= 4; n++ {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
	}
	return n
}
