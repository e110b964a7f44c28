package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Raimguzhinov/bmpedit/internal/bmp"
)

var errQuit = errors.New("quit")

// session drives the interactive menus over in and out.
type session struct {
	in     *bufio.Reader
	out    io.Writer
	lister Lister
	opener Opener
	cfg    Config
}

func newSession(in io.Reader, out io.Writer, lister Lister, opener Opener, cfg Config) *session {
	return &session{in: bufio.NewReader(in), out: out, lister: lister, opener: opener, cfg: cfg}
}

func (s *session) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errQuit
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *session) prompt(label string) (string, error) {
	fmt.Fprintf(s.out, "%s: ", label)
	return s.readLine()
}

// selectOption prints title and the numbered options and returns the chosen
// index, asking again until the answer is valid.
func (s *session) selectOption(title string, options []string) (int, error) {
	for {
		fmt.Fprintf(s.out, "\n%s\n", title)
		for i, opt := range options {
			fmt.Fprintf(s.out, "%d. %s\n", i+1, opt)
		}
		answer, err := s.prompt("Select an option")
		if err != nil {
			return 0, err
		}
		idx, err := strconv.Atoi(answer)
		if err == nil && idx >= 1 && idx <= len(options) {
			return idx - 1, nil
		}
		fmt.Fprintf(s.out, "invalid selection '%s': please enter a number between 1 and %d\n", answer, len(options))
	}
}

// Run shows the main menu until the user exits or input ends.
func (s *session) Run() error {
	options := []string{"Open existing image", "Generate new image", "Import PCX image", "Exit"}
	for {
		choice, err := s.selectOption("Welcome to the BMP image editor", options)
		if err != nil {
			return ignoreQuit(err)
		}

		var img *bmp.Image
		switch choice {
		case 0:
			img, err = s.openImage()
		case 1:
			img, err = s.generateImage()
		case 2:
			img, err = s.importPCX()
		case 3:
			fmt.Fprintln(s.out, "Exiting program...")
			return nil
		}
		if err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.out, "Error: %v\n", err)
			continue
		}
		if err := s.manipulate(img); err != nil {
			return ignoreQuit(err)
		}
	}
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// pickFile lets the user choose a listed file by number or type a name.
func (s *session) pickFile() (string, error) {
	files, err := s.lister.List()
	if err != nil {
		fmt.Fprintf(s.out, "cannot list images: %v\n", err)
	}
	if len(files) > 0 {
		fmt.Fprintln(s.out, "\nAvailable images:")
		for i, f := range files {
			fmt.Fprintf(s.out, "%d. %s\n", i+1, filepath.Base(f))
		}
	}
	answer, err := s.prompt("Enter the filename or number")
	if err != nil {
		return "", err
	}
	if idx, err := strconv.Atoi(answer); err == nil && idx >= 1 && idx <= len(files) {
		return files[idx-1], nil
	}
	if answer == "" {
		return "", fmt.Errorf("no file selected")
	}
	if !filepath.IsAbs(answer) && filepath.Dir(answer) == "." {
		answer = filepath.Join(s.cfg.Dir, answer)
	}
	return answer, nil
}

func (s *session) openImage() (*bmp.Image, error) {
	path, err := s.pickFile()
	if err != nil {
		return nil, err
	}
	return bmp.Open(path)
}

func (s *session) importPCX() (*bmp.Image, error) {
	path, err := s.prompt("Enter the PCX filename")
	if err != nil {
		return nil, err
	}
	return LoadPCX(path)
}

func (s *session) generateImage() (*bmp.Image, error) {
	choice, err := s.selectOption("What to generate?", []string{"Blank image", "Mandelbrot fractal"})
	if err != nil {
		return nil, err
	}
	answer, err := s.prompt("Enter the size (WIDTHxHEIGHT)")
	if err != nil {
		return nil, err
	}
	width, height, err := ParseSize(answer)
	if err != nil {
		return nil, err
	}
	if choice == 1 {
		return Mandelbrot(width, height, s.cfg.Iterations)
	}
	img, err := bmp.NewSized(width, height, s.cfg.Depth)
	if err != nil {
		return nil, err
	}
	if s.cfg.Resolution != 0 {
		img.SetUniformResolution(s.cfg.Resolution)
	}
	return img, nil
}

func (s *session) manipulate(img *bmp.Image) error {
	options := []string{
		"Apply a factor to the size",
		"Manual resize",
		"Set resolution",
		"Show information",
		"Save",
		"Return to menu",
	}
	saved := false
	for {
		choice, err := s.selectOption("What to do?", options)
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			err = s.scale(img)
		case 1:
			err = s.resize(img)
		case 2:
			err = s.setResolution(img)
		case 3:
			fmt.Fprint(s.out, img)
		case 4:
			err = s.save(img)
		case 5:
			if saved {
				return nil
			}
			answer, err := s.selectOption("Do you want to save the image before exiting?", []string{"Yes", "No"})
			if err != nil {
				return err
			}
			if answer == 0 {
				if err := s.save(img); err != nil {
					fmt.Fprintf(s.out, "Error: %v\n", err)
					continue
				}
			}
			return nil
		}
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			continue
		}
		if choice == 4 {
			saved = true
		} else if choice != 3 {
			saved = false
		}
	}
}

func (s *session) scale(img *bmp.Image) error {
	answer, err := s.prompt("Enter the factor")
	if err != nil {
		return err
	}
	factor, err := ParseFactor(answer)
	if err != nil {
		return err
	}
	return img.MultiplySize(factor)
}

func (s *session) resize(img *bmp.Image) error {
	w, err := s.promptInt("Enter the new width")
	if err != nil {
		return err
	}
	h, err := s.promptInt("Enter the new height")
	if err != nil {
		return err
	}
	return img.Resize(w, h)
}

func (s *session) setResolution(img *bmp.Image) error {
	x, err := s.promptInt("Enter the horizontal resolution (px/m)")
	if err != nil {
		return err
	}
	y, err := s.promptInt("Enter the vertical resolution (px/m)")
	if err != nil {
		return err
	}
	img.SetResolution(int32(x), int32(y))
	return nil
}

func (s *session) promptInt(label string) (int, error) {
	answer, err := s.prompt(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", answer)
	}
	return n, nil
}

func (s *session) save(img *bmp.Image) error {
	answer, err := s.prompt("Enter the filename")
	if err != nil {
		return err
	}
	if answer == "" {
		return fmt.Errorf("no file name given")
	}
	if !filepath.IsAbs(answer) && filepath.Dir(answer) == "." {
		answer = filepath.Join(s.cfg.Dir, answer)
	}
	path, err := img.Save(answer)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Image saved to %s\n", path)
	if err := s.opener.Open(path); err != nil {
		fmt.Fprintf(s.out, "cannot open %s: %v\n", path, err)
	}
	return nil
}
