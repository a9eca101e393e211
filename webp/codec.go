// Package webp adapts WebP through a pure Go VP8/VP8L implementation.
package webp

import (
	"bytes"
	"fmt"

	gowebp "github.com/deepteams/webp"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "webp"

var _ codec.Codec = (*Codec)(nil)

// Codec implements codec.Codec for WebP
type Codec struct {
	defaults *Options
}

// Option configures a Codec.
type Option func(*Codec)

// WithDefaults sets the options used when a call passes none.
func WithDefaults(o *Options) Option {
	return func(c *Codec) { c.defaults = o }
}

// NewCodec creates a new WebP codec
func NewCodec(opts ...Option) *Codec {
	c := &Codec{defaults: NewOptions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the format name
func (c *Codec) Name() string { return name }

// MIMEType returns the media type
func (c *Codec) MIMEType() string { return "image/webp" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "webp" }

// Decode decodes a WebP stream into 8-bit RGBA
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	img, err := gowebp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.Cause{Err: err})
	}
	buf := pixel.FromImage(img)
	if buf.BitDepth != 8 {
		buf = pixel.Depth(buf.Width, buf.Height, buf.Pixels, buf.BitDepth, codec.DepthNormalize8)
	}
	return buf, nil
}

// Encode encodes pixels as WebP
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	opts := c.defaults
	if params.Options != nil {
		o, ok := params.Options.(*Options)
		if !ok {
			return nil, codec.Errorf(name, codec.StageConfigure, "unexpected options type %T", params.Options)
		}
		if o != nil {
			opts = o
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	src, err := pixel.RGBA8(params.Buffer())
	if err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}
	if src.Width > gowebp.MaxDimension || src.Height > gowebp.MaxDimension {
		return nil, codec.Errorf(name, codec.StageConfigure,
			"dimensions %dx%d exceed %d", src.Width, src.Height, gowebp.MaxDimension)
	}

	var out bytes.Buffer
	if err := gowebp.Encode(&out, src.Image(), encoderOptions(opts)); err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.Cause{Err: fmt.Errorf("webp encode: %w", err)})
	}
	return out.Bytes(), nil
}

// encoderOptions maps Options onto the encoder configuration. Sharp YUV and
// preprocessing make the encoder work from the ARGB source directly.
func encoderOptions(o *Options) *gowebp.EncoderOptions {
	e := gowebp.DefaultOptions()
	e.Lossless = o.Lossless
	e.Quality = float32(o.Quality)
	e.Method = o.Method
	e.Preset = o.ImageHint.preset()
	e.TargetSize = o.TargetSize
	e.TargetPSNR = o.TargetPSNR
	e.Segments = o.Segments
	e.SNSStrength = o.SNSStrength
	e.FilterStrength = o.FilterStrength
	e.FilterSharpness = o.FilterSharpness
	e.FilterType = o.FilterType
	e.AlphaCompression = o.AlphaCompression
	e.AlphaFiltering = o.AlphaFiltering
	e.AlphaQuality = o.AlphaQuality
	e.Pass = o.Pass
	e.Preprocessing = o.Preprocessing
	e.Partitions = o.Partitions
	e.EmulateJpegSize = o.EmulateJPEGSize
	e.Exact = o.Exact
	e.UseSharpYUV = o.UseSharpYUV
	e.QMin = 0
	e.QMax = 100
	return e
}

func init() {
	codec.Register(NewCodec())
}
