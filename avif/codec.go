// Package avif adapts AV1 Image File Format encoding and decoding onto a
// libavif-shaped Backend.
package avif

import (
	"strconv"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/guard"
	"github.com/cocosip/go-icodec/internal/param"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "avif"

var _ codec.Codec = (*Codec)(nil)

// Codec implements codec.Codec for AVIF
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

// NewCodec creates an AVIF codec driving backend
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
func (c *Codec) MIMEType() string { return "image/avif" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "avif" }

// Encode encodes pixels as AVIF
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
	o := opts.resolved()

	src, err := pixel.RGBA8(params.Buffer())
	if err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}
	if c.backend == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	var scope guard.Scope
	defer scope.Close()

	img := c.backend.NewImage(src.Width, src.Height, 8, PixelFormat(o.Subsample))
	if img == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, img, Image.Destroy)

	if o.lossless() {
		img.SetMatrixCoefficients(MatrixIdentity)
	} else {
		img.SetMatrixCoefficients(MatrixBT601)
	}

	rgb, err := img.NewRGB(8, o.SharpYUV)
	if err != nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.SourceOf(err))
	}
	staged := guard.Acquire(&scope, rgb, RGBImage.Free)
	if err := pixel.Import(rgb.Pixels(), rgb.RowBytes(), src.Pixels, src.Width, src.Height, 4, 1); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}
	if err := img.FromRGB(rgb); err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	staged.Release()

	enc := c.backend.NewEncoder()
	if enc == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, enc, Encoder.Destroy)

	enc.Configure(EncoderConfig{
		Quality:      o.Quality,
		QualityAlpha: o.QualityAlpha,
		Speed:        o.Speed,
		MaxThreads:   1,
		AutoTiling:   o.AutoTiling,
		TileRowsLog2: o.TileRowsLog2,
		TileColsLog2: o.TileColsLog2,
	})
	if err := codecOptions(&o).Apply(enc.SetCodecOption); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}

	out, err := enc.Write(img)
	if err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	return out, nil
}

// codecOptions lists the libaom settings passed by key, in the order they are
// applied.
func codecOptions(o *Options) param.List[string] {
	var l param.List[string]
	l.Add("sharpness", strconv.Itoa(o.Sharpness))
	l.Add("color:denoise-noise-level", strconv.Itoa(o.DenoiseLevel))
	l.AddIf(o.tuneSSIM(), "tune", "ssim")
	l.AddIf(o.ChromaDeltaQ, "color:enable-chroma-deltaq", "1")
	return l
}

// Decode decodes an AVIF stream into RGBA
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	if c.backend == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	var scope guard.Scope
	defer scope.Close()

	dec := c.backend.NewDecoder()
	if dec == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, dec, Decoder.Destroy)
	dec.SetMaxThreads(1)

	if err := dec.Parse(data); err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.SourceOf(err))
	}
	img, err := dec.NextImage()
	if err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.SourceOf(err))
	}

	depth := c.depth.OutputDepth(img.Depth())
	rgb, err := img.NewRGB(depth, false)
	if err != nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.SourceOf(err))
	}
	guard.Acquire(&scope, rgb, RGBImage.Free)

	if err := img.ToRGB(rgb); err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	px, err := pixel.Export(rgb.Pixels(), rgb.RowBytes(), img.Width(), img.Height(), 4, (depth+7)/8)
	if err != nil {
		return nil, codec.Translate(name, pixel.Stage(err), codec.Cause{Err: err})
	}
	return &codec.ImageBuffer{Width: img.Width(), Height: img.Height(), Channels: 4, BitDepth: depth, Pixels: px}, nil
}
