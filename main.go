package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/Raimguzhinov/bmpedit/internal/bmp"
)

const version = "bmpedit 1.0.0"

const detailedHelp = `Usage: bmpedit [options] [input]

Reads, edits and writes uncompressed 24-bit and 32-bit BMP images.

Without an input file (and without --fractal) an interactive menu is shown.
With an input the requested edits are applied in order and the result saved:
  1. --resize WxH     crop or extend the canvas, keeping the top-left pixels
  2. --scale EXPR     nearest-neighbor scaling; a negative factor mirrors
                      the image, e.g. --scale=-1, --scale 1/3
  3. --resolution N   set both resolutions (pixels per meter)

Options:
  -o, --output FILE   output BMP file (default <input>_edited.bmp)
  -s, --show          open the saved image
      --viewer KIND   sdl, system or none (default system)
  -d, --dir DIR       directory listed by the interactive file picker
      --depth BITS    bit depth of generated images, 24 or 32
      --fractal WxH   generate a Mandelbrot image instead of reading input
      --iterations N  fractal iteration limit
      --pcx           read the input as a PCX file
  -c, --config FILE   YAML file with default settings
      --verbose       log debug messages
  -v, --version       print the version and exit
  -h, --help          print this help and exit
`

type Options struct {
	Output     string `short:"o" long:"output" description:"Output BMP file name"`
	Show       bool   `short:"s" long:"show" description:"Open the image after saving"`
	Viewer     string `long:"viewer" choice:"sdl" choice:"system" choice:"none" description:"How saved images are opened"`
	Dir        string `short:"d" long:"dir" description:"Directory listed by the file picker"`
	Depth      uint16 `long:"depth" description:"Bit depth of generated images"`
	Resize     string `long:"resize" value-name:"WxH" description:"New canvas size"`
	Scale      string `long:"scale" value-name:"EXPR" description:"Scale factor"`
	Resolution int32  `long:"resolution" description:"Resolution in pixels per meter"`
	Fractal    string `long:"fractal" value-name:"WxH" description:"Generate a Mandelbrot image"`
	Iterations int    `long:"iterations" description:"Fractal iteration limit"`
	PCX        bool   `long:"pcx" description:"Read the input as PCX"`
	Config     string `short:"c" long:"config" description:"YAML defaults file"`
	Verbose    bool   `long:"verbose" description:"Log debug messages"`
	Version    bool   `short:"v" long:"version" description:"Show version and exit"`
	Help       bool   `short:"h" long:"help" description:"Show help and exit"`
}

func main() {
	var opts Options

	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	args, err := parser.Parse()
	if opts.Help {
		fmt.Print(detailedHelp)
		return
	}
	if opts.Version {
		fmt.Println(version)
		return
	}
	if err != nil {
		fmt.Print(detailedHelp)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	bmp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := defaultConfig()
	if opts.Config != "" {
		if cfg, err = LoadConfig(opts.Config); err != nil {
			log.Fatal(err)
		}
	}
	if cfg, err = cfg.apply(&opts); err != nil {
		log.Fatal(err)
	}
	opener, err := newOpener(cfg.Viewer)
	if err != nil {
		log.Fatal(err)
	}

	if len(args) == 0 && opts.Fractal == "" {
		s := newSession(os.Stdin, os.Stdout, dirLister{dir: cfg.Dir}, opener, cfg)
		if err := s.Run(); err != nil {
			log.Fatal(err)
		}
		return
	}

	job, err := newJob(&opts, args, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	saved, err := job.run(context.Background())
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}
	log.Println("file written:", saved)

	if cfg.Show {
		if err := opener.Open(saved); err != nil {
			log.Fatal(err)
		}
	}
}

// operation is one edit applied to the image in the pipeline.
type operation struct {
	name  string
	apply func(*bmp.Image) error
}

// job loads or generates an image, applies the edits and saves it.
type job struct {
	source func() (*bmp.Image, error)
	ops    []operation
	output string
}

func newJob(opts *Options, args []string, cfg Config) (*job, error) {
	j := &job{output: opts.Output}

	switch {
	case opts.Fractal != "":
		w, h, err := ParseSize(opts.Fractal)
		if err != nil {
			return nil, err
		}
		j.source = func() (*bmp.Image, error) { return Mandelbrot(w, h, cfg.Iterations) }
		if j.output == "" {
			j.output = "mandelbrot.bmp"
		}
	case len(args) == 0:
		return nil, fmt.Errorf("no input file")
	default:
		input := args[0]
		if opts.PCX {
			j.source = func() (*bmp.Image, error) { return LoadPCX(input) }
		} else {
			j.source = func() (*bmp.Image, error) { return bmp.Open(input) }
		}
		if j.output == "" {
			j.output = strings.TrimSuffix(input, filepath.Ext(input)) + "_edited.bmp"
		}
	}

	if opts.Resize != "" {
		w, h, err := ParseSize(opts.Resize)
		if err != nil {
			return nil, err
		}
		j.ops = append(j.ops, operation{"resize", func(img *bmp.Image) error { return img.Resize(w, h) }})
	}
	if opts.Scale != "" {
		factor, err := ParseFactor(opts.Scale)
		if err != nil {
			return nil, err
		}
		j.ops = append(j.ops, operation{"scale", func(img *bmp.Image) error { return img.MultiplySize(factor) }})
	}
	if cfg.Resolution != 0 {
		res := cfg.Resolution
		j.ops = append(j.ops, operation{"resolution", func(img *bmp.Image) error {
			img.SetUniformResolution(res)
			return nil
		}})
	}
	return j, nil
}

// run passes the image through the load, edit and save stages. Each stage
// owns the image while it holds it.
func (j *job) run(ctx context.Context) (string, error) {
	g, ctx := errgroup.WithContext(ctx)
	loaded := make(chan *bmp.Image, 1)
	edited := make(chan *bmp.Image, 1)
	var saved string

	g.Go(func() error {
		defer close(loaded)
		img, err := j.source()
		if err != nil {
			return err
		}
		loaded <- img
		return nil
	})

	g.Go(func() error {
		defer close(edited)
		for img := range loaded {
			for _, op := range j.ops {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := op.apply(img); err != nil {
					return fmt.Errorf("%s: %w", op.name, err)
				}
			}
			edited <- img
		}
		return nil
	})

	g.Go(func() error {
		for img := range edited {
			path, err := img.Save(j.output)
			if err != nil {
				return err
			}
			saved = path
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}
	return saved, nil
}
