package heif

import (
	"fmt"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/guard"
	"github.com/cocosip/go-icodec/internal/param"
	"github.com/cocosip/go-icodec/internal/pixel"
)

// EncodeConfig describes one encode call.
type EncodeConfig struct {
	Format      string
	Compression Compression
	Quality     int
	Lossless    bool
	Chroma      string
	SharpYUV    bool
	// BitDepth is the depth of the staged plane; src must already be coded
	// at it. Zero means 8.
	BitDepth int
	// Params are encoder-specific parameters applied after quality and
	// lossless and before chroma.
	Params param.List[any]
}

// Settings returns the full ordered parameter list for the encoder.
func (cfg *EncodeConfig) Settings() param.List[any] {
	var l param.List[any]
	l.Add("threads", 1)
	l.Add("quality", cfg.Quality)
	l.Add("lossless", cfg.Lossless)
	l = append(l, cfg.Params...)
	l.AddIf(cfg.Chroma != "", "chroma", cfg.Chroma)
	return l
}

func apply(enc Encoder) func(key string, value any) error {
	return func(key string, value any) error {
		switch key {
		case "quality":
			return enc.SetLossyQuality(value.(int))
		case "lossless":
			return enc.SetLossless(value.(bool))
		}
		switch v := value.(type) {
		case int:
			return enc.SetInteger(key, v)
		case string:
			return enc.SetString(key, v)
		case bool:
			return enc.SetBoolean(key, v)
		}
		return fmt.Errorf("unsupported parameter type %T", value)
	}
}

func (cfg *EncodeConfig) depth() int {
	if cfg.BitDepth == 0 {
		return 8
	}
	return cfg.BitDepth
}

// Encode compresses an RGBA buffer coded at cfg.BitDepth into a HEIF
// container.
func Encode(b Backend, src *codec.ImageBuffer, cfg EncodeConfig) ([]byte, error) {
	if b == nil {
		return nil, codec.Translate(cfg.Format, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	var scope guard.Scope
	defer scope.Close()

	ctx := b.NewContext()
	if ctx == nil {
		return nil, codec.Translate(cfg.Format, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, ctx, Context.Free)

	enc, err := ctx.Encoder(cfg.Compression)
	if err != nil {
		return nil, codec.Translate(cfg.Format, codec.StageAllocation, codec.SourceOf(err))
	}
	guard.Acquire(&scope, enc, Encoder.Release)

	if err := cfg.Settings().Apply(apply(enc)); err != nil {
		return nil, codec.Translate(cfg.Format, codec.StageConfigure, codec.Cause{Err: err})
	}

	depth := cfg.depth()
	if src.BitDepth != depth {
		return nil, codec.Errorf(cfg.Format, codec.StageConfigure, "staged %d-bit samples for a %d-bit plane", src.BitDepth, depth)
	}
	img, err := b.NewImage(src.Width, src.Height, depth)
	if err != nil {
		return nil, codec.Translate(cfg.Format, codec.StageAllocation, codec.SourceOf(err))
	}
	guard.Acquire(&scope, img, Image.Release)

	plane, stride := img.Plane()
	if err := pixel.Import(plane, stride, src.Pixels, src.Width, src.Height, 4, (depth+7)/8); err != nil {
		return nil, codec.Translate(cfg.Format, codec.StageConfigure, codec.Cause{Err: err})
	}

	opts := EncodingOptions{SharpYUV: cfg.SharpYUV}
	// exact lossless needs the RGB matrix; chroma subsampling would lose data anyway
	if cfg.Lossless && cfg.Chroma == "444" {
		opts.NCLX = &NCLX{MatrixCoefficients: MatrixRGBGBR}
	}
	if err := ctx.Encode(img, enc, opts); err != nil {
		return nil, codec.Translate(cfg.Format, codec.StageProcess, codec.SourceOf(err))
	}
	out, err := ctx.Write()
	if err != nil {
		return nil, codec.Translate(cfg.Format, codec.StageProcess, codec.SourceOf(err))
	}
	return out, nil
}

// Decode reads the primary image of a HEIF container into RGBA.
func Decode(b Backend, format string, data []byte, policy codec.DepthPolicy) (*codec.ImageBuffer, error) {
	if b == nil {
		return nil, codec.Translate(format, codec.StageAllocation, codec.Cause{Err: codec.ErrNoBackend})
	}

	var scope guard.Scope
	defer scope.Close()

	ctx := b.NewContext()
	if ctx == nil {
		return nil, codec.Translate(format, codec.StageAllocation, codec.OutOfMemory{})
	}
	guard.Acquire(&scope, ctx, Context.Free)

	if err := ctx.Read(data); err != nil {
		return nil, codec.Translate(format, codec.StageParse, codec.SourceOf(err))
	}
	handle, err := ctx.PrimaryImage()
	if err != nil {
		return nil, codec.Translate(format, codec.StageParse, codec.SourceOf(err))
	}
	guard.Acquire(&scope, handle, ImageHandle.Release)

	srcDepth := handle.LumaBitDepth()
	deep := srcDepth > 8
	img, err := handle.Decode(deep)
	if err != nil {
		return nil, codec.Translate(format, codec.StageProcess, codec.SourceOf(err))
	}
	guard.Acquire(&scope, img, Image.Release)

	bps := 1
	if deep {
		bps = 2
	}
	plane, stride := img.Plane()
	px, err := pixel.Export(plane, stride, handle.Width(), handle.Height(), 4, bps)
	if err != nil {
		return nil, codec.Translate(format, pixel.Stage(err), codec.Cause{Err: err})
	}
	if !deep {
		srcDepth = 8
	}
	return pixel.Depth(handle.Width(), handle.Height(), px, srcDepth, policy), nil
}
