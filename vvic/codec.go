// Package vvic adapts VVC-coded HEIF images. It shares the container path
// with heic and differs only in compression and options.
package vvic

import (
	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/heif"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "vvic"

var _ codec.Codec = (*Codec)(nil)

// Backend is the libheif surface the codec needs.
type Backend = heif.Backend

// Options contains encoding options for VVIC
type Options struct {
	codec.BaseOptions

	Lossless bool   `json:"lossless"`
	Chroma   string `json:"chroma" validate:"oneof=420 422 444"`
	SharpYUV bool   `json:"sharpYUV"`
	BitDepth int    `json:"bitDepth" validate:"oneof=8 10 12"`
}

// NewOptions returns the default options
func NewOptions() *Options {
	return &Options{BaseOptions: codec.BaseOptions{Quality: 50}, Chroma: "420", BitDepth: 8}
}

// Validate validates the options
func (o *Options) Validate() error {
	return codec.ValidateOptions(name, o)
}

// Codec implements codec.Codec for VVIC
type Codec struct {
	backend  Backend
	depth    codec.DepthPolicy
	defaults *Options
}

// Option configures a Codec.
type Option func(*Codec)

// WithDepthPolicy overrides codec.DefaultDepthPolicy for decoding.
func WithDepthPolicy(p codec.DepthPolicy) Option {
	return func(c *Codec) { c.depth = p }
}

// WithDefaults sets the options used when a call passes none.
func WithDefaults(o *Options) Option {
	return func(c *Codec) { c.defaults = o }
}

// NewCodec creates a VVIC codec driving backend
func NewCodec(backend Backend, opts ...Option) *Codec {
	c := &Codec{backend: backend, depth: codec.DefaultDepthPolicy, defaults: NewOptions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the format name
func (c *Codec) Name() string { return name }

// MIMEType returns the media type
func (c *Codec) MIMEType() string { return "image/vvic" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "vvic" }

// Encode encodes pixels as VVIC
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

	src, err := pixel.RGBA(params.Buffer(), opts.BitDepth)
	if err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}

	return heif.Encode(c.backend, src, heif.EncodeConfig{
		Format:      name,
		Compression: heif.CompressionVVC,
		Quality:     opts.Quality,
		Lossless:    opts.Lossless,
		Chroma:      opts.Chroma,
		SharpYUV:    opts.SharpYUV,
		BitDepth:    opts.BitDepth,
	})
}

// Decode decodes the primary image of a VVIC file
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	return heif.Decode(c.backend, name, data, c.depth)
}
