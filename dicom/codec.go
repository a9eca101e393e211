// Package dicom exposes icodec adapters as go-dicom external codecs, so a
// DICOM transcoder can encapsulate frames with any registered format.
package dicom

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	dcodec "github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

// Parameter names read from go-dicom codec parameters.
const (
	// ParamQuality is bound onto the options' quality field.
	ParamQuality = "quality"
	// ParamOptions carries a full option bag (map[string]any).
	ParamOptions = "options"
)

var _ dcodec.Codec = (*Codec)(nil)

// Codec adapts a codec.Codec to go-dicom's external codec interface
type Codec struct {
	inner          codec.Codec
	transferSyntax *transfer.Syntax
	newOptions     func() codec.Options
}

// Option configures a Codec.
type Option func(*Codec)

// WithOptions sets the constructor for the inner codec's option record.
// Without it, parameters are ignored and the inner codec's defaults apply.
func WithOptions(newOptions func() codec.Options) Option {
	return func(c *Codec) { c.newOptions = newOptions }
}

// NewCodec wraps c for transfer syntax ts
func NewCodec(c codec.Codec, ts *transfer.Syntax, opts ...Option) *Codec {
	dc := &Codec{inner: c, transferSyntax: ts}
	for _, opt := range opts {
		opt(dc)
	}
	return dc
}

// Register wraps c and installs it in go-dicom's global codec registry
func Register(c codec.Codec, ts *transfer.Syntax, opts ...Option) {
	dcodec.GetGlobalRegistry().RegisterCodec(ts, NewCodec(c, ts, opts...))
}

// Name returns the codec name
func (c *Codec) Name() string {
	return fmt.Sprintf("icodec %s", c.inner.Name())
}

// TransferSyntax returns the transfer syntax this codec handles
func (c *Codec) TransferSyntax() *transfer.Syntax {
	return c.transferSyntax
}

// GetDefaultParameters returns empty parameters; unset keys keep the inner
// codec's defaults.
func (c *Codec) GetDefaultParameters() dcodec.Parameters {
	return dcodec.NewBaseParameters()
}

// options builds the inner option record from parameters, or returns nil for
// the inner defaults.
func (c *Codec) options(parameters dcodec.Parameters) (codec.Options, error) {
	if parameters == nil || c.newOptions == nil {
		return nil, nil
	}
	bag := map[string]any{}
	if m, ok := parameters.GetParameter(ParamOptions).(map[string]any); ok {
		for k, v := range m {
			bag[k] = v
		}
	}
	if q := parameters.GetParameter(ParamQuality); q != nil {
		bag[ParamQuality] = q
	}
	if len(bag) == 0 {
		return nil, nil
	}
	opts := c.newOptions()
	if err := codec.BindOptions(c.inner.Name(), bag, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Encode compresses every frame of oldPixelData into newPixelData
func (c *Codec) Encode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters dcodec.Parameters) error {
	if oldPixelData == nil || newPixelData == nil {
		return fmt.Errorf("source and destination PixelData cannot be nil")
	}
	frameInfo := oldPixelData.GetFrameInfo()
	if frameInfo == nil {
		return fmt.Errorf("failed to get frame info from source pixel data")
	}
	if frameInfo.BitsAllocated != 8 {
		return fmt.Errorf("%s: only 8-bit samples are supported, got %d bits: %w",
			c.inner.Name(), frameInfo.BitsAllocated, codec.ErrUnsupported)
	}
	samples := int(frameInfo.SamplesPerPixel)
	if samples != 1 && samples != 3 {
		return fmt.Errorf("%s: unsupported samples per pixel %d: %w", c.inner.Name(), samples, codec.ErrUnsupported)
	}
	opts, err := c.options(parameters)
	if err != nil {
		return err
	}

	width, height := int(frameInfo.Width), int(frameInfo.Height)
	for frameIndex := 0; frameIndex < oldPixelData.FrameCount(); frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) != width*height*samples {
			return fmt.Errorf("frame %d has %d bytes, want %d", frameIndex, len(frameData), width*height*samples)
		}

		rgb := frameData
		switch {
		case samples == 1:
			rgb = grayToRGB(frameData)
		case frameInfo.PlanarConfiguration == 1:
			rgb = interleave(frameData, width*height)
		}

		encoded, err := c.inner.Encode(codec.EncodeParams{
			Pixels:   rgb,
			Width:    width,
			Height:   height,
			Channels: 3,
			BitDepth: 8,
			Options:  opts,
		})
		if err != nil {
			return fmt.Errorf("encode failed for frame %d: %w", frameIndex, err)
		}
		if err := newPixelData.AddFrame(encoded); err != nil {
			return fmt.Errorf("failed to add encoded frame %d: %w", frameIndex, err)
		}
	}
	return nil
}

// Decode expands every encapsulated frame of oldPixelData into newPixelData.
// Output frames are interleaved with the source's samples per pixel.
func (c *Codec) Decode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters dcodec.Parameters) error {
	if oldPixelData == nil || newPixelData == nil {
		return fmt.Errorf("source and destination PixelData cannot be nil")
	}
	frameInfo := oldPixelData.GetFrameInfo()
	if frameInfo == nil {
		return fmt.Errorf("failed to get frame info from source pixel data")
	}

	for frameIndex := 0; frameIndex < oldPixelData.FrameCount(); frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) == 0 {
			return fmt.Errorf("frame %d pixel data is empty", frameIndex)
		}

		img, err := c.inner.Decode(frameData)
		if err != nil {
			return fmt.Errorf("decode failed for frame %d: %w", frameIndex, err)
		}
		if frameInfo.Width > 0 && img.Width != int(frameInfo.Width) {
			return fmt.Errorf("decoded width (%d) doesn't match expected (%d)", img.Width, frameInfo.Width)
		}
		if frameInfo.Height > 0 && img.Height != int(frameInfo.Height) {
			return fmt.Errorf("decoded height (%d) doesn't match expected (%d)", img.Height, frameInfo.Height)
		}
		if img.BitDepth != 8 {
			img = pixel.Depth(img.Width, img.Height, img.Pixels, img.BitDepth, codec.DepthNormalize8)
		}

		out := img.Pixels
		if img.Channels == 4 {
			out = pixel.DropAlpha(out, 8)
		}
		if frameInfo.SamplesPerPixel == 1 {
			out = rgbToGray(out)
		}
		if err := newPixelData.AddFrame(out); err != nil {
			return fmt.Errorf("failed to add decoded frame %d: %w", frameIndex, err)
		}
	}
	return nil
}

func grayToRGB(gray []byte) []byte {
	out := make([]byte, len(gray)*3)
	for i, v := range gray {
		out[i*3], out[i*3+1], out[i*3+2] = v, v, v
	}
	return out
}

// rgbToGray keeps the first sample; frames widened by grayToRGB carry equal
// samples.
func rgbToGray(rgb []byte) []byte {
	out := make([]byte, len(rgb)/3)
	for i := range out {
		out[i] = rgb[i*3]
	}
	return out
}

// interleave converts planar R..G..B.. samples to RGBRGB...
func interleave(planar []byte, n int) []byte {
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		out[i*3] = planar[i]
		out[i*3+1] = planar[n+i]
		out[i*3+2] = planar[2*n+i]
	}
	return out
}
