// Package mozjpeg adapts baseline and progressive JPEG encoding onto a
// mozjpeg libjpeg backend.
package mozjpeg

import (
	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/guard"
	"github.com/cocosip/go-icodec/internal/param"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "mozjpeg"

var _ codec.Codec = (*Codec)(nil)

// Codec implements codec.Codec for JPEG
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

// NewCodec creates a JPEG codec driving backend
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
func (c *Codec) MIMEType() string { return "image/jpeg" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "jpg" }

// Encode encodes pixels as JPEG. Alpha is discarded by the library.
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

	var scope guard.Scope
	defer scope.Close()

	cinfo, err := c.backend.NewCompressor()
	if err != nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.SourceOf(err))
	}
	guard.Acquire(&scope, cinfo, Compressor.Destroy)

	cinfo.SetImage(src.Width, src.Height)
	if err := cinfo.SetDefaults(); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
	}
	if err := cinfo.SetColorspace(opts.ColorSpace); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
	}
	cinfo.SetCoding(opts.coding())
	if err := tuning(opts).Apply(applyTo(cinfo)); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}
	if err := cinfo.SetQualityRatings(opts.QualityRatings(), opts.Baseline); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{
			Err: &param.Error{Key: "quality", Value: opts.QualityRatings(), Err: err},
		})
	}

	if opts.manualSubsample() {
		cinfo.SetLumaSampling(opts.ChromaSubsample, opts.ChromaSubsample)
		if opts.ChromaSubsample > 2 {
			// the encoder fails on wide sampling with the default scan mode
			if err := cinfo.SetIntParam(DCScanOptMode, 1); err != nil {
				return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{
					Err: &param.Error{Key: "dcScanOptMode", Value: 1, Err: err},
				})
			}
		}
	}

	if opts.Progressive && !opts.Baseline {
		if err := cinfo.SimpleProgression(); err != nil {
			return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
		}
	} else {
		cinfo.ClearScans()
	}

	out, err := cinfo.Compress(src.Pixels, src.Stride())
	if err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	return out, nil
}

// Decode decodes a JPEG file into 8-bit RGBA
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	if c.backend == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	var scope guard.Scope
	defer scope.Close()

	dinfo, err := c.backend.NewDecompressor()
	if err != nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.SourceOf(err))
	}
	guard.Acquire(&scope, dinfo, Decompressor.Destroy)

	width, height, err := dinfo.ReadHeader(data)
	if err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.SourceOf(err))
	}
	rows, stride, err := dinfo.Decompress()
	if err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	px, err := pixel.Export(rows, stride, width, height, 4, 1)
	if err != nil {
		return nil, codec.Translate(name, pixel.Stage(err), codec.Cause{Err: err})
	}
	return &codec.ImageBuffer{Width: width, Height: height, Channels: 4, BitDepth: 8, Pixels: px}, nil
}
