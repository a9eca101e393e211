// Package jxl adapts JPEG XL encoding and decoding onto a libjxl-shaped
// backend.
package jxl

import (
	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/guard"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const (
	name = "jxl"

	// initialOutput is the first output buffer size; it doubles while the
	// encoder has more to write.
	initialOutput = 4096
)

var _ codec.Codec = (*Codec)(nil)

// Codec implements codec.Codec for JPEG XL
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

// NewCodec creates a JPEG XL codec driving backend
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
func (c *Codec) MIMEType() string { return "image/jxl" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "jxl" }

// Encode encodes pixels as JPEG XL
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

	enc := c.backend.NewEncoder()
	if enc == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, enc, Encoder.Destroy)

	info := BasicInfo{
		Width:               src.Width,
		Height:              src.Height,
		BitsPerSample:       8,
		AlphaBits:           8,
		ExtraChannels:       1,
		UsesOriginalProfile: opts.Lossless,
	}
	if err := enc.SetBasicInfo(info); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
	}
	if err := enc.SetColorEncodingSRGB(); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
	}

	fs := enc.NewFrameSettings()
	if fs == nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.OutOfMemory{})
	}
	if opts.Lossless {
		if err := fs.SetLossless(true); err != nil {
			return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
		}
	} else {
		if err := fs.SetDistance(DistanceFromQuality(opts.Quality)); err != nil {
			return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
		}
		if err := fs.SetExtraChannelDistance(0, DistanceFromQuality(opts.alphaQuality())); err != nil {
			return nil, codec.Translate(name, codec.StageConfigure, codec.SourceOf(err))
		}
	}
	if err := frameOptions(opts).Apply(applyTo(fs)); err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}

	if err := enc.AddImageFrame(fs, src.Pixels); err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	enc.CloseInput()

	out, err := readOutput(enc)
	if err != nil {
		return nil, codec.Translate(name, codec.StageProcess, codec.SourceOf(err))
	}
	return out, nil
}

func readOutput(enc Encoder) ([]byte, error) {
	buf := make([]byte, initialOutput)
	n := 0
	for {
		written, more, err := enc.ProcessOutput(buf[n:])
		n += written
		if err != nil {
			return nil, err
		}
		if !more {
			return buf[:n], nil
		}
		buf = append(buf, make([]byte, len(buf))...)
	}
}

// Decode decodes a JPEG XL codestream or container into RGBA
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

	if err := dec.SetInput(data); err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.SourceOf(err))
	}
	if st := dec.ProcessInput(); st != StatusBasicInfo {
		return nil, codec.Errorf(name, codec.StageParse, "expected basic info, got %s", st)
	}
	info, err := dec.BasicInfo()
	if err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.SourceOf(err))
	}
	if st := dec.ProcessInput(); st != StatusNeedImageOutBuffer {
		return nil, codec.Errorf(name, codec.StageParse, "expected image out buffer request, got %s", st)
	}

	deep := info.BitsPerSample > 8
	bps := 1
	if deep {
		bps = 2
	}
	out, err := dec.SetOutBuffer(deep)
	if err != nil {
		return nil, codec.Translate(name, codec.StageAllocation, codec.SourceOf(err))
	}
	row := pixel.RowBytes(info.Width, 4, bps)
	if len(out) != row*info.Height {
		return nil, codec.Errorf(name, codec.StageProcess, "output buffer is %d bytes, want %d", len(out), row*info.Height)
	}
	if st := dec.ProcessInput(); st != StatusFullImage {
		return nil, codec.Errorf(name, codec.StageProcess, "expected full image, got %s", st)
	}

	px, err := pixel.Export(out, row, info.Width, info.Height, 4, bps)
	if err != nil {
		return nil, codec.Translate(name, pixel.Stage(err), codec.Cause{Err: err})
	}
	if !deep {
		return pixel.Depth(info.Width, info.Height, px, 8, c.depth), nil
	}
	// libjxl scales 16-bit output to the full range whatever the coded depth,
	// so go straight from 16 to the output depth.
	depth := c.depth.OutputDepth(min(info.BitsPerSample, 16))
	if depth != 16 {
		px = pixel.Rescale(px, 16, depth)
	}
	return &codec.ImageBuffer{Width: info.Width, Height: info.Height, Channels: 4, BitDepth: depth, Pixels: px}, nil
}
