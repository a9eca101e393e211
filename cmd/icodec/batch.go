package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/sync/errgroup"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
	"github.com/cocosip/go-icodec/metrics"
)

// batchFlags are shared by encode and decode.
type batchFlags struct {
	outDir  string
	jobs    int
	verbose bool
	stats   bool
}

func (b *batchFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&b.outDir, "o", ".", "output directory")
	fs.IntVar(&b.jobs, "j", runtime.NumCPU(), "files converted in parallel")
	fs.BoolVar(&b.verbose, "v", false, "log every codec call")
	fs.BoolVar(&b.stats, "stats", false, "log call counters when done")
}

// batch runs convert on every input with at most jobs in flight. The first
// failure cancels inputs not yet started.
type batch struct {
	batchFlags
	logger   *log.Logger
	codecs   *codec.Registry
	registry *prometheus.Registry
	metrics  *metrics.Config
}

func newBatch(flags batchFlags, logger *log.Logger) *batch {
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	reg := prometheus.NewRegistry()
	return &batch{
		batchFlags: flags,
		logger:     logger,
		codecs:     codec.NewRegistry(),
		registry:   reg,
		metrics:    metrics.Prometheus(reg),
	}
}

// use registers c with the batch's own registry, wrapped in the call
// counters, and returns the name to dispatch it by. Dispatch through the
// registry is what emits the per-call debug records.
func (b *batch) use(c codec.Codec) string {
	if _, err := b.codecs.Get(c.Name()); err != nil {
		b.codecs.Register(metrics.Instrument(c, b.metrics))
	}
	return c.Name()
}

func (b *batch) run(inputs []string, convert func(path string) (string, error)) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input files: %w", errUsage)
	}
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(b.jobs, 1))
	for _, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out, err := convert(in)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			b.logger.Info("converted", "in", in, "out", out, "duration", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	err := g.Wait()
	if b.stats {
		b.logStats()
	}
	return err
}

func (b *batch) logStats() {
	families, err := b.registry.Gather()
	if err != nil {
		b.logger.Warn("gather metrics", "err", err)
		return
	}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			kv := []any{"value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				kv = append(kv, lp.GetName(), lp.GetValue())
			}
			b.logger.Info(mf.GetName(), kv...)
		}
	}
}

func (b *batch) output(in, ext string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(b.outDir, base+"."+ext)
}

// codecFor finds the codec registered for a file's extension.
func codecFor(path string) (codec.Codec, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%s: no extension: %w", path, codec.ErrUnsupportedFormat)
	}
	return codec.Get(ext)
}

// loadImage reads path with a registered codec when its extension has one,
// otherwise with the standard library image decoders.
func loadImage(path string) (*codec.ImageBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if c, err := codecFor(path); err == nil {
		return c.Decode(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return pixel.FromImage(img), nil
}
