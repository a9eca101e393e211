package main

import (
	"fmt"
	"strings"

	"github.com/cocosip/go-icodec/avif"
	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/heic"
	"github.com/cocosip/go-icodec/jxl"
	"github.com/cocosip/go-icodec/mozjpeg"
	"github.com/cocosip/go-icodec/qoi"
	"github.com/cocosip/go-icodec/vvic"
	"github.com/cocosip/go-icodec/webp"
	"github.com/cocosip/go-icodec/webp2"
)

// newOptions returns the default option record for each format name.
var newOptions = map[string]func() codec.Options{
	"avif":    func() codec.Options { return avif.NewOptions() },
	"heic":    func() codec.Options { return heic.NewOptions() },
	"vvic":    func() codec.Options { return vvic.NewOptions() },
	"jxl":     func() codec.Options { return jxl.NewOptions() },
	"mozjpeg": func() codec.Options { return mozjpeg.NewOptions() },
	"qoi":     func() codec.Options { return &qoi.Options{} },
	"webp":    func() codec.Options { return webp.NewOptions() },
	"webp2":   func() codec.Options { return webp2.NewOptions() },
}

// optionFlags collects repeated -opt key=value flags.
type optionFlags map[string]any

func (o optionFlags) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (o optionFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("option %q is not key=value", s)
	}
	o[k] = v
	return nil
}

// bind builds the option record for format from the collected flags. No
// flags selects the codec defaults.
func (o optionFlags) bind(format string) (codec.Options, error) {
	if len(o) == 0 {
		return nil, nil
	}
	ctor, ok := newOptions[format]
	if !ok {
		return nil, fmt.Errorf("%s takes no options", format)
	}
	opts := ctor()
	if err := codec.BindOptions(format, o, opts); err != nil {
		return nil, err
	}
	return opts, opts.Validate()
}
