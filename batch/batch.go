/*
Package batch converts every image found under a directory into a bundle
written alongside it, using a pool of workers.
*/
package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bodgit/tiled"
	"github.com/bodgit/tiled/bundle"
	"github.com/bodgit/tiled/image"
	"github.com/bodgit/tiled/store"
	"github.com/schollz/progressbar/v3"
)

const defaultWorkers = 10

var errWalkCancelled = errors.New("batch: walk cancelled")

// Options configure a Batch.
type Options struct {
	// Workers is the number of images converted at once
	Workers int
	// Store, if set, caches bundles by source image
	Store *store.Store
	// Progress, if set, receives a progress spinner
	Progress io.Writer
	// Compress bundles with zstd
	Compress bool
	// Image controls how non-paletted images are reduced
	Image image.Options
}

// Result counts what happened to each image found.
type Result struct {
	Converted int
	Cached    int
	Failed    int
}

// Batch converts directories of images. It is safe to call Run from more
// than one goroutine.
type Batch struct {
	cfg    tiled.Config
	opts   Options
	logger *log.Logger
}

type counters struct {
	converted, cached, failed atomic.Int64
}

func (c *counters) result() Result {
	return Result{
		Converted: int(c.converted.Load()),
		Cached:    int(c.cached.Load()),
		Failed:    int(c.failed.Load()),
	}
}

// New returns a Batch converting images with cfg. A zero Width or Height in
// cfg means the dimensions of each image are used.
func New(cfg tiled.Config, opts Options, logger *log.Logger) *Batch {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Image.TileDim == 0 {
		opts.Image.TileDim = cfg.TileDim
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Batch{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
	}
}

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png", ".gif", ".jpg", ".jpeg", ".bmp":
		return true
	}
	return false
}

func (b *Batch) findFiles(ctx context.Context, base string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if ctx.Err() != nil {
				return errWalkCancelled
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !isImage(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errWalkCancelled
			}

			return nil
		})
	}()
	return out, errc
}

func (b *Batch) convert(data []byte) ([]byte, error) {
	m, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	img, err := image.FromImage(m, b.opts.Image)
	if err != nil {
		return nil, err
	}

	cfg := b.cfg
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = img.Raster.Width, img.Raster.Height
	}

	c, err := tiled.New(cfg, b.logger)
	if err != nil {
		return nil, err
	}

	t, err := c.ToTiled(img)
	if err != nil {
		return nil, err
	}

	bn := bundle.New(cfg, t)
	bn.Compress = b.opts.Compress

	return bn.MarshalBinary()
}

// key identifies the bundle converted from data with the settings of b.
func (b *Batch) key(data []byte) string {
	return store.Key(data, b.cfg, b.opts.Image, b.opts.Compress)
}

func (b *Batch) process(file string, c *counters) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	var key string
	var out []byte
	if b.opts.Store != nil {
		key = b.key(data)
		if out, err = b.opts.Store.FindBySHA1(key); err != nil {
			return err
		}
	}

	if out != nil {
		c.cached.Add(1)
	} else {
		if out, err = b.convert(data); err != nil {
			// A bad image shouldn't stop the rest of the batch
			b.logger.Printf("Unable to convert \"%s\": %v\n", file, err)
			c.failed.Add(1)
			return nil
		}
		if b.opts.Store != nil {
			if _, err := b.opts.Store.Put(name, key, out); err != nil {
				return err
			}
		}
		c.converted.Add(1)
	}

	return os.WriteFile(strings.TrimSuffix(file, filepath.Ext(file))+bundle.Ext, out, 0o666)
}

func (b *Batch) fileWorker(ctx context.Context, in <-chan string, c *counters, bar *progressbar.ProgressBar) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				return
			}
			if err := b.process(file, c); err != nil {
				errc <- err
				return
			}
			_ = bar.Add(1)
		}
	}()
	return errc
}

// waitForPipeline returns the first error from errs. The pipeline is
// cancelled on that error and every stage has stopped when it returns.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run converts every image under path.
func (b *Batch) Run(ctx context.Context, path string) (Result, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return Result{}, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	c := new(counters)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(b.opts.Progress),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
	)

	var errcList []<-chan error

	files, errc := b.findFiles(ctx, dir)
	errcList = append(errcList, errc)

	for i := 0; i < b.opts.Workers; i++ {
		errcList = append(errcList, b.fileWorker(ctx, files, c, bar))
	}

	err = waitForPipeline(cancelFunc, errcList...)
	_ = bar.Finish()

	result := c.result()
	b.logger.Printf("Converted %d, cached %d, failed %d\n", result.Converted, result.Cached, result.Failed)

	return result, err
}
