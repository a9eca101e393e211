package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cocosip/go-icodec/codec"
)

func runEncode(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	var (
		flags  batchFlags
		format string
		opts   = optionFlags{}
	)
	flags.register(fs)
	fs.StringVar(&format, "f", "", "output format (name, MIME type or extension)")
	fs.Var(opts, "opt", "encoder option as key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if format == "" {
		return fmt.Errorf("encode: -f is required: %w", errUsage)
	}

	c, err := codec.Get(format)
	if err != nil {
		return fmt.Errorf("%s: %w", format, err)
	}
	options, err := opts.bind(c.Name())
	if err != nil {
		return err
	}

	b := newBatch(flags, logger)
	key := b.use(c)
	return b.run(fs.Args(), func(in string) (string, error) {
		img, err := loadImage(in)
		if err != nil {
			return "", err
		}
		data, err := b.codecs.Encode(key, codec.EncodeParams{
			Pixels:   img.Pixels,
			Width:    img.Width,
			Height:   img.Height,
			Channels: img.Channels,
			BitDepth: img.BitDepth,
			Options:  options,
		})
		if err != nil {
			return "", err
		}
		out := b.output(in, c.Extension())
		return out, os.WriteFile(out, data, 0o644)
	})
}
