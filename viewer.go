package main

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Raimguzhinov/bmpedit/internal/bmp"
)

// SDL calls must come from the main OS thread; Open is only ever called
// from the main goroutine.
func init() {
	runtime.LockOSThread()
}

// Opener shows a saved image to the user.
type Opener interface {
	Open(path string) error
}

func newOpener(kind string) (Opener, error) {
	switch kind {
	case "sdl":
		return sdlViewer{}, nil
	case "system":
		return systemOpener{goos: runtime.GOOS, run: runCommand}, nil
	case "none":
		return noopOpener{}, nil
	}
	return nil, fmt.Errorf("unknown viewer %q", kind)
}

type noopOpener struct{}

func (noopOpener) Open(string) error { return nil }

// systemOpener hands the file to the operating system's default viewer.
type systemOpener struct {
	goos string
	run  func(name string, args ...string) error
}

func (o systemOpener) Open(path string) error {
	name, args := o.command(path)
	if err := o.run(name, args...); err != nil {
		return fmt.Errorf("opening %s with %s: %w", path, name, err)
	}
	return nil
}

func (o systemOpener) command(path string) (string, []string) {
	switch o.goos {
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// sdlViewer shows the image in an SDL window until it is closed.
type sdlViewer struct{}

func (sdlViewer) Open(path string) error {
	img, err := bmp.Open(path)
	if err != nil {
		return err
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("SDL init: %w", err)
	}
	defer sdl.Quit()

	win, rend, tex, err := createWindowAndTexture(path, img, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED)
	if err != nil {
		return err
	}
	defer win.Destroy()
	defer rend.Destroy()
	defer tex.Destroy()

	showLoop(win, rend, tex)
	return nil
}

func showLoop(win *sdl.Window, rend *sdl.Renderer, tex *sdl.Texture) {
	winID, _ := win.GetID()
	for {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_CLOSE && e.WindowID == winID {
					log.Println("preview window closed")
					return
				}
			}
		}
		renderWindow(rend, tex)
		sdl.Delay(16) // ~60 FPS
	}
}

func renderWindow(rend *sdl.Renderer, tex *sdl.Texture) {
	rend.SetDrawColor(0, 0, 0, 255)
	rend.Clear()
	rend.Copy(tex, nil, nil)
	rend.Present()
}

func createWindowAndTexture(title string, img *bmp.Image, x, y int32) (*sdl.Window, *sdl.Renderer, *sdl.Texture, error) {
	w, h := img.Width(), img.Height()
	view, err := img.Image()
	if err != nil {
		return nil, nil, nil, err
	}

	win, err := sdl.CreateWindow(title, x, y, int32(w), int32(h), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, nil, nil, err
	}
	rend, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.Destroy()
		return nil, nil, nil, err
	}
	// ABGR8888 is R, G, B, A in memory on little-endian hosts, the NRGBA layout.
	tex, err := rend.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		rend.Destroy()
		win.Destroy()
		return nil, nil, nil, err
	}
	tex.SetBlendMode(sdl.BLENDMODE_BLEND)

	pixels, pitch, err := tex.Lock(nil)
	if err != nil {
		tex.Destroy()
		rend.Destroy()
		win.Destroy()
		return nil, nil, nil, err
	}
	for row := 0; row < h; row++ {
		src := view.Pix[row*view.Stride : row*view.Stride+w*4]
		copy(pixels[row*pitch:row*pitch+w*4], src)
	}
	tex.Unlock()
	return win, rend, tex, nil
}
