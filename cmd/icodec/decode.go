package main

import (
	"flag"
	"image/png"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cocosip/go-icodec/codec"
)

func runDecode(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var (
		flags  batchFlags
		format string
	)
	flags.register(fs)
	fs.StringVar(&format, "f", "", "input format; defaults to each file's extension")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b := newBatch(flags, logger)
	return b.run(fs.Args(), func(in string) (string, error) {
		var (
			c   codec.Codec
			err error
		)
		if format != "" {
			c, err = codec.Get(format)
		} else {
			c, err = codecFor(in)
		}
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return "", err
		}
		img, err := b.codecs.Decode(b.use(c), data)
		if err != nil {
			return "", err
		}

		out := b.output(in, "png")
		f, err := os.Create(out)
		if err != nil {
			return "", err
		}
		if err := png.Encode(f, img.Image()); err != nil {
			_ = f.Close()
			return "", err
		}
		return out, f.Close()
	})
}
