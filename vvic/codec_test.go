package vvic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/heif"
	"github.com/cocosip/go-icodec/internal/heif/heiftest"
	"github.com/cocosip/go-icodec/internal/pixel"
)

func params(w, h int, opts *Options) codec.EncodeParams {
	px := make([]byte, w*h*4)
	for i := range px {
		px[i] = byte(255 - i)
	}
	return codec.EncodeParams{Pixels: px, Width: w, Height: h, Channels: 4, BitDepth: 8, Options: opts}
}

func TestEncodeUsesVVC(t *testing.T) {
	b := &heiftest.Backend{}
	opts := NewOptions()
	opts.Quality = 64
	opts.Lossless = true
	opts.Chroma = "444"
	opts.SharpYUV = true

	_, err := NewCodec(b).Encode(params(2, 2, opts))
	require.NoError(t, err)

	enc := b.LastEncoder()
	assert.Equal(t, heif.CompressionVVC, enc.Compression)
	assert.Equal(t, []string{"threads=1", "quality=64", "lossless=true", "chroma=444"}, enc.Params)

	got := b.LastOptions()
	assert.True(t, got.SharpYUV)
	require.NotNil(t, got.NCLX)
	assert.Equal(t, heif.MatrixRGBGBR, got.NCLX.MatrixCoefficients)
}

func TestRoundTrip(t *testing.T) {
	b := &heiftest.Backend{RowPad: 3}
	c := NewCodec(b)
	in := params(4, 2, nil)

	data, err := c.Encode(in)
	require.NoError(t, err)
	img, err := c.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, in.Pixels, img.Pixels)
	assert.Zero(t, b.Live.Load())
}

func TestInvalidOptions(t *testing.T) {
	b := &heiftest.Backend{}
	opts := NewOptions()
	opts.Chroma = "400"

	_, err := NewCodec(b).Encode(params(1, 1, opts))
	require.Error(t, err)
	stage, _ := codec.StageOf(err)
	assert.Equal(t, codec.StageConfigure, stage)
	assert.Contains(t, err.Error(), "chroma")
	assert.Zero(t, b.Allocs.Load())
}

func TestWrongOptionsType(t *testing.T) {
	p := params(1, 1, nil)
	p.Options = &codec.BaseOptions{Quality: 1}
	_, err := NewCodec(&heiftest.Backend{}).Encode(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected options type")
}

func TestDecodeGarbage(t *testing.T) {
	b := &heiftest.Backend{}
	_, err := NewCodec(b).Decode([]byte{0, 1, 2})
	require.Error(t, err)
	stage, _ := codec.StageOf(err)
	assert.Equal(t, codec.StageParse, stage)
	assert.Zero(t, b.Live.Load())
}

func TestDecodeRejectsNarrowRows(t *testing.T) {
	data, err := NewCodec(&heiftest.Backend{}).Encode(params(3, 1, nil))
	require.NoError(t, err)

	b := &heiftest.Backend{RowPad: -1}
	_, err = NewCodec(b).Decode(data)
	require.Error(t, err)
	stage, _ := codec.StageOf(err)
	assert.Equal(t, codec.StageConfigure, stage)
	assert.Zero(t, b.Live.Load())
}

func TestTenBitPlane(t *testing.T) {
	b := &heiftest.Backend{}
	opts := NewOptions()
	opts.BitDepth = 10
	in := params(2, 1, opts)

	data, err := NewCodec(b).Encode(in)
	require.NoError(t, err)
	assert.Equal(t, pixel.Rescale(in.Pixels, 8, 10), b.LastPixels())

	img, err := NewCodec(b, WithDepthPolicy(codec.DepthNormalize8)).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 8, img.BitDepth)
	assert.Equal(t, in.Pixels, img.Pixels)
}
