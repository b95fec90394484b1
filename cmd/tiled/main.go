package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/tiled"
	"github.com/bodgit/tiled/batch"
	"github.com/bodgit/tiled/bundle"
	"github.com/bodgit/tiled/image"
	"github.com/bodgit/tiled/store"
	"github.com/urfave/cli/v2"
)

const defaultDB = "tiled.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

var codecFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "tile-dim",
		Value: 8,
		Usage: "tile width and height in pixels",
	},
	&cli.IntFlag{
		Name:  "chunk-dim",
		Value: 1,
		Usage: "chunk width and height in tiles",
	},
	&cli.IntFlag{
		Name:  "palette-size",
		Value: 16,
		Usage: "colors per sub-palette",
	},
	&cli.IntFlag{
		Name:  "palette-offset",
		Usage: "sub-palette bias added to every pixel",
	},
	&cli.IntFlag{
		Name:  "width",
		Usage: "expected image width, defaults to the image width",
	},
	&cli.IntFlag{
		Name:  "height",
		Usage: "expected image height, defaults to the image height",
	},
	&cli.BoolFlag{
		Name:  "optimize",
		Value: true,
		Usage: "remove duplicate and flipped tiles",
	},
	&cli.BoolFlag{
		Name:  "strict",
		Usage: "fail on pixels outside their tile's sub-palette",
	},
	&cli.BoolFlag{
		Name:  "compress",
		Usage: "compress bundles",
	},
	&cli.BoolFlag{
		Name:  "dither",
		Usage: "dither images that need color reduction",
	},
	&cli.IntFlag{
		Name:  "palettes",
		Value: 16,
		Usage: "maximum number of sub-palettes colors are packed into",
	},
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func codecConfig(c *cli.Context) tiled.Config {
	return tiled.Config{
		TileDim:           c.Int("tile-dim"),
		Width:             c.Int("width"),
		Height:            c.Int("height"),
		ChunkDim:          c.Int("chunk-dim"),
		SinglePaletteSize: c.Int("palette-size"),
		PaletteOffset:     c.Int("palette-offset"),
		OptimizeChunks:    c.Bool("optimize"),
		Strict:            c.Bool("strict"),
	}
}

func imageOptions(c *cli.Context) image.Options {
	return image.Options{
		TileDim:  c.Int("tile-dim"),
		Palettes: c.Int("palettes"),
		Dither:   c.Bool("dither"),
	}
}

func readBundle(c *cli.Context, arg string) (*bundle.Bundle, error) {
	var (
		data []byte
		err  error
	)
	if c.Bool("from-db") {
		s, err := store.Open(c.String("db"))
		if err != nil {
			return nil, err
		}
		defer s.Close()

		if data, err = s.FindByName(arg); err != nil {
			return nil, err
		}
		if data == nil {
			return nil, fmt.Errorf("no bundle named \"%s\"", arg)
		}
	} else if data, err = os.ReadFile(arg); err != nil {
		return nil, err
	}

	b := new(bundle.Bundle)
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return b, nil
}

func importAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	m, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return cli.Exit(err, 1)
	}

	img, err := image.FromImage(m, imageOptions(c))
	if err != nil {
		return cli.Exit(err, 1)
	}

	cfg := codecConfig(c)
	key := store.Key(data, cfg, imageOptions(c), c.Bool("compress"))
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = img.Raster.Width, img.Raster.Height
	}

	conv, err := tiled.New(cfg, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}

	t, err := conv.ToTiled(img)
	if err != nil {
		return cli.Exit(err, 1)
	}

	b := bundle.New(cfg, t)
	b.Compress = c.Bool("compress")

	out, err := b.MarshalBinary()
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := os.WriteFile(c.Args().Get(1), out, 0o666); err != nil {
		return cli.Exit(err, 1)
	}

	if c.Bool("store") {
		s, err := store.Open(c.String("db"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer s.Close()

		name := strings.TrimSuffix(filepath.Base(c.Args().Get(0)), filepath.Ext(c.Args().Get(0)))
		if _, err := s.Put(name, key, out); err != nil {
			return cli.Exit(err, 1)
		}
	}

	logger.Printf("Wrote %d tiles and %d tilemap entries to \"%s\"\n", len(t.Tiles), len(t.Tilemap), c.Args().Get(1))

	return nil
}

func exportAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	b, err := readBundle(c, c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	conv, err := tiled.New(b.Config(), newLogger(c))
	if err != nil {
		return cli.Exit(err, 1)
	}

	img, err := conv.ToNative(tiled.Entries(b.Tilemap), b.Tiles, b.Depth, b.Palette)
	if err != nil {
		return cli.Exit(err, 1)
	}

	m, err := image.ToImage(img)
	if err != nil {
		return cli.Exit(err, 1)
	}

	format := c.String("format")
	if format == "" {
		format = image.FormatFromFilename(c.Args().Get(1))
	}

	// Nothing is written unless the image encodes
	buf := new(bytes.Buffer)
	if err := image.Encode(buf, m, format); err != nil {
		return cli.Exit(err, 1)
	}

	if err := os.WriteFile(c.Args().Get(1), buf.Bytes(), 0o666); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func infoAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	b, err := readBundle(c, c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Image:       %dx%d\n", b.Width, b.Height)
	fmt.Fprintf(w, "Tiles:       %d (%dx%d, %v)\n", len(b.Tiles), b.TileDim, b.TileDim, b.Depth)
	fmt.Fprintf(w, "Tilemap:     %d entries\n", len(b.Tilemap))
	fmt.Fprintf(w, "Palettes:    %d\n", len(image.SubPalettes(b.Palette)))

	if b.ChunkDim > 1 {
		chunks, _, err := tiled.ChunkTable(b.Tilemap, b.ChunkDim)
		if err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintf(w, "Chunks:      %d unique (%dx%d tiles)\n", len(chunks), b.ChunkDim, b.ChunkDim)
	}

	return nil
}

func scanAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	opts := batch.Options{
		Workers:  c.Int("workers"),
		Compress: c.Bool("compress"),
		Image:    imageOptions(c),
	}
	if c.Bool("verbose") {
		opts.Progress = os.Stderr
	}

	if c.Bool("store") {
		s, err := store.Open(c.String("db"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer s.Close()
		opts.Store = s
	}

	if _, err := batch.New(codecConfig(c), opts, logger).Run(context.Background(), c.Args().First()); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func listAction(c *cli.Context) error {
	s, err := store.Open(c.String("db"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer s.Close()

	tilesets, err := s.List()
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, t := range tilesets {
		fmt.Fprintf(c.App.Writer, "%-32s %s %8d\n", t.Name, t.SHA1, t.Size)
	}

	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "tiled"
	app.Usage = "Tiled indexed image conversion utility"
	app.Version = "1.0.0"

	db := defaultDB
	if cwd, err := os.Getwd(); err == nil {
		db = filepath.Join(cwd, defaultDB)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TILED_DB"},
			Value:   db,
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	fromDB := &cli.BoolFlag{
		Name:  "from-db",
		Usage: "treat BUNDLE as the name of a stored bundle",
	}
	storeFlag := &cli.BoolFlag{
		Name:  "store",
		Usage: "also store bundles in the database",
	}

	app.Commands = []*cli.Command{
		{
			Name:      "import",
			Usage:     "Convert an image into a tile bundle",
			ArgsUsage: "IMAGE BUNDLE",
			Flags:     append([]cli.Flag{storeFlag}, codecFlags...),
			Action:    importAction,
		},
		{
			Name:      "export",
			Usage:     "Convert a tile bundle back into an image",
			ArgsUsage: "BUNDLE IMAGE",
			Flags: []cli.Flag{
				fromDB,
				&cli.StringFlag{
					Name:  "format",
					Usage: "output format, png or bmp, defaults to the file extension",
				},
			},
			Action: exportAction,
		},
		{
			Name:      "info",
			Usage:     "Describe a tile bundle",
			ArgsUsage: "BUNDLE",
			Flags:     []cli.Flag{fromDB},
			Action:    infoAction,
		},
		{
			Name:      "scan",
			Usage:     "Convert every image under a directory",
			ArgsUsage: "DIRECTORY",
			Flags: append([]cli.Flag{
				storeFlag,
				&cli.IntFlag{
					Name:  "workers",
					Value: 10,
					Usage: "number of images converted at once",
				},
			}, codecFlags...),
			Action: scanAction,
		},
		{
			Name:   "list",
			Usage:  "List stored tile bundles",
			Action: listAction,
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
