// Package webp2 adapts the experimental WebP 2 format onto a libwebp2-shaped
// Backend.
package webp2

import (
	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/guard"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "webp2"

var _ codec.Codec = (*Codec)(nil)

// Codec implements codec.Codec for WebP2
type Codec struct {
	backend  Backend
	defaults *Options
}

// Option configures a Codec.
type Option func(*Codec)

// WithDefaults sets the options used when a call passes none.
func WithDefaults(o *Options) Option {
	return func(c *Codec) { c.defaults = o }
}

// NewCodec creates a WebP2 codec driving backend
func NewCodec(backend Backend, opts ...Option) *Codec {
	c := &Codec{backend: backend, defaults: NewOptions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the format name
func (c *Codec) Name() string { return name }

// MIMEType returns the media type
func (c *Codec) MIMEType() string { return "image/webp2" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "wp2" }

// Encode encodes pixels as WebP2
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
	if c.backend == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	format := FormatArgbPremultiplied
	if opts.exact() {
		format = FormatARGB
	}

	var scope guard.Scope
	defer scope.Close()

	buf := c.backend.NewBuffer(format)
	if buf == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, buf, Buffer.Destroy)

	if err := buf.Import(FormatRGBA, src.Width, src.Height, src.Pixels, src.Stride()); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
	}
	out, err := c.backend.Encode(buf, opts.config())
	if err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	return out, nil
}

// Decode decodes a WebP2 stream into 8-bit RGBA
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	if c.backend == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	var scope guard.Scope
	defer scope.Close()

	buf := c.backend.NewBuffer(FormatRGBA)
	if buf == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, buf, Buffer.Destroy)

	if err := c.backend.Decode(data, buf); err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.SourceOf(err))
	}
	rows, stride := buf.Pixels()
	px, err := pixel.Export(rows, stride, buf.Width(), buf.Height(), 4, 1)
	if err != nil {
		return nil, codec.Translate(name, pixel.Stage(err), codec.Cause{Err: err})
	}
	return &codec.ImageBuffer{Width: buf.Width(), Height: buf.Height(), Channels: 4, BitDepth: 8, Pixels: px}, nil
}
