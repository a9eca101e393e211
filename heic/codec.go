// Package heic adapts HEVC-coded HEIF images onto a libheif-shaped backend.
package heic

import (
	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/heif"
	"github.com/cocosip/go-icodec/internal/param"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "heic"

var _ codec.Codec = (*Codec)(nil)

// Backend is the libheif surface the codec needs.
type Backend = heif.Backend

// Codec implements codec.Codec for HEIC
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

// NewCodec creates a HEIC codec driving backend
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
func (c *Codec) MIMEType() string { return "image/heic" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "heic" }

// Encode encodes pixels as HEIC
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

	var x265 param.List[any]
	x265.Add("preset", opts.Preset)
	x265.Add("tune", opts.Tune)
	x265.Add("tu-intra-depth", opts.TuIntraDepth)
	x265.Add("complexity", opts.Complexity)

	return heif.Encode(c.backend, src, heif.EncodeConfig{
		Format:      name,
		Compression: heif.CompressionHEVC,
		Quality:     opts.Quality,
		Lossless:    opts.Lossless,
		Chroma:      opts.Chroma,
		SharpYUV:    opts.SharpYUV,
		BitDepth:    opts.BitDepth,
		Params:      x265,
	})
}

// Decode decodes the primary image of a HEIC file
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	return heif.Decode(c.backend, name, data, c.depth)
}
