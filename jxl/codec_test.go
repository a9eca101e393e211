package jxl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

func testPixels(w, h int) []byte {
	px := make([]byte, w*h*4)
	for i := range px {
		px[i] = byte(i*7 + 1)
	}
	return px
}

func encodeParams(w, h int, opts *Options) codec.EncodeParams {
	return codec.EncodeParams{Pixels: testPixels(w, h), Width: w, Height: h, Channels: 4, BitDepth: 8, Options: opts}
}

func requireStage(t *testing.T, err error, want codec.Stage) {
	t.Helper()
	require.Error(t, err)
	stage, ok := codec.StageOf(err)
	require.True(t, ok, "not a codec error: %v", err)
	assert.Equal(t, want, stage, "error: %v", err)
}

func TestRoundTripGrowsOutputBuffer(t *testing.T) {
	b := &fakeBackend{}
	c := NewCodec(b)
	opts := NewOptions()
	opts.Lossless = true

	data, err := c.Encode(encodeParams(64, 64, opts))
	require.NoError(t, err)
	assert.Greater(t, len(data), initialOutput*2)
	assert.GreaterOrEqual(t, b.encoder().outputs, 3)

	img, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 64, img.Height)
	assert.Equal(t, testPixels(64, 64), img.Pixels)
	assert.Zero(t, b.live.Load())
}

func TestBasicInfo(t *testing.T) {
	for _, lossless := range []bool{false, true} {
		b := &fakeBackend{}
		opts := NewOptions()
		opts.Lossless = lossless

		_, err := NewCodec(b).Encode(encodeParams(3, 2, opts))
		require.NoError(t, err)

		enc := b.encoder()
		assert.Equal(t, BasicInfo{
			Width: 3, Height: 2, BitsPerSample: 8, AlphaBits: 8,
			ExtraChannels: 1, UsesOriginalProfile: lossless,
		}, enc.info)
		assert.True(t, enc.srgb)
	}
}

func TestFrameSettingOrder(t *testing.T) {
	b := &fakeBackend{}
	_, err := NewCodec(b).Encode(encodeParams(2, 2, nil))
	require.NoError(t, err)

	enc := b.encoder()
	assert.Equal(t, []FrameSetting{
		SettingPhotonNoise,
		SettingEffort,
		SettingBrotliEffort,
		SettingEPF,
		SettingGaborish,
		SettingDecodingSpeed,
		SettingResponsive,
		SettingProgressiveDC,
		SettingProgressiveAC,
		SettingQProgressiveAC,
		SettingModular,
		SettingPaletteColors,
		SettingLossyPalette,
		SettingModularColorSpace,
		SettingModularPredictor,
		SettingMATreeLearningPercent,
	}, enc.settings)
	assert.Equal(t, "distance=2.350", enc.calls[0])
	assert.Equal(t, "extra0=2.350", enc.calls[1])
	assert.Contains(t, enc.calls, fmt.Sprintf("%d=7", SettingEffort))
	assert.Contains(t, enc.calls, fmt.Sprintf("%d=-1", SettingModular))
	assert.Contains(t, enc.calls, fmt.Sprintf("%d=0", SettingLossyPalette))
}

func TestLosslessSkipsDistance(t *testing.T) {
	b := &fakeBackend{}
	opts := NewOptions()
	opts.Lossless = true
	opts.Modular = true

	_, err := NewCodec(b).Encode(encodeParams(2, 2, opts))
	require.NoError(t, err)

	calls := b.encoder().calls
	assert.Equal(t, "lossless=true", calls[0])
	assert.NotContains(t, fmt.Sprint(calls), "distance")
	assert.Contains(t, calls, fmt.Sprintf("%d=1", SettingModular))
}

func TestAlphaQualityInheritance(t *testing.T) {
	c := NewCodec(&fakeBackend{})

	inherit := NewOptions()
	inherit.Quality = 42
	explicit := NewOptions()
	explicit.Quality = 42
	explicit.AlphaQuality = 42
	other := NewOptions()
	other.Quality = 42
	other.AlphaQuality = 90

	a, err := c.Encode(encodeParams(3, 3, inherit))
	require.NoError(t, err)
	b, err := c.Encode(encodeParams(3, 3, explicit))
	require.NoError(t, err)
	d, err := c.Encode(encodeParams(3, 3, other))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, d)
}

func TestDistanceFromQuality(t *testing.T) {
	tests := []struct {
		quality float32
		want    float32
	}{
		{100, 0},
		{90, 1.0},
		{75, 2.35},
		{30, 6.4},
		{0, 25},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DistanceFromQuality(tt.quality), 1e-4, "quality %v", tt.quality)
	}
}

func TestOptionRejection(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		key    string
	}{
		{"quality", func(o *Options) { o.Quality = 150 }, "quality"},
		{"alpha", func(o *Options) { o.AlphaQuality = -3 }, "alphaQuality"},
		{"effort", func(o *Options) { o.Effort = 0 }, "effort"},
		{"palette", func(o *Options) { o.PaletteColors = 70914 }, "paletteColors"},
		{"photon", func(o *Options) { o.PhotonNoiseISO = -1 }, "photonNoiseIso"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			opts := NewOptions()
			tt.mutate(opts)

			_, err := NewCodec(b).Encode(encodeParams(2, 2, opts))
			requireStage(t, err, codec.StageConfigure)
			assert.Contains(t, err.Error(), tt.key)
			assert.Zero(t, b.allocs.Load())
		})
	}
}

func TestSetterFailureNamesOption(t *testing.T) {
	epf := SettingEPF
	b := &fakeBackend{failSetting: &epf}
	_, err := NewCodec(b).Encode(encodeParams(2, 2, nil))

	requireStage(t, err, codec.StageConfigure)
	assert.Contains(t, err.Error(), "epf")
	assert.Zero(t, b.live.Load())
}

func TestAllocationFailures(t *testing.T) {
	for _, which := range []string{"encoder", "frame"} {
		b := &fakeBackend{failAlloc: which}
		_, err := NewCodec(b).Encode(encodeParams(1, 1, nil))
		requireStage(t, err, codec.StageAllocation)
		assert.Zero(t, b.live.Load(), which)
	}

	_, err := NewCodec(&fakeBackend{failAlloc: "decoder"}).Decode([]byte("x"))
	requireStage(t, err, codec.StageAllocation)

	_, err = NewCodec(nil).Encode(encodeParams(1, 1, nil))
	assert.ErrorIs(t, err, codec.ErrNoBackend)
}

func TestDecodeMalformed(t *testing.T) {
	b := &fakeBackend{}
	_, err := NewCodec(b).Decode([]byte("\xff\x0anot really"))
	requireStage(t, err, codec.StageParse)
	assert.Contains(t, err.Error(), "basic info")
	assert.Zero(t, b.live.Load())
}

func TestDecodeOutputSizeMismatch(t *testing.T) {
	stream := fakeStream(2, 2, 8, "", testPixels(2, 2))
	_, err := NewCodec(&fakeBackend{outBufferDelta: 4}).Decode(stream)
	requireStage(t, err, codec.StageProcess)
}

func TestDecodeDepthPolicy(t *testing.T) {
	src := pixel.Rescale([]byte{255, 128, 0, 255}, 8, 10)
	stream := fakeStream(1, 1, 10, "", src)

	native, err := NewCodec(&fakeBackend{}, WithDepthPolicy(codec.DepthNative)).Decode(stream)
	require.NoError(t, err)
	assert.Equal(t, 10, native.BitDepth)
	assert.Equal(t, src, native.Pixels)

	narrowed, err := NewCodec(&fakeBackend{}, WithDepthPolicy(codec.DepthNormalize8)).Decode(stream)
	require.NoError(t, err)
	assert.Equal(t, 8, narrowed.BitDepth)
	assert.Equal(t, []byte{255, 128, 0, 255}, narrowed.Pixels)
}

func TestDecodeKeepsFullSixteenBitOutput(t *testing.T) {
	stream := fakeStream(1, 1, 12, "", make([]byte, 8))
	// full-precision output a 12-bit grid cannot hold
	out := []byte{0x01, 0x80, 0x03, 0x40, 0x07, 0x00, 0xff, 0xff}

	native, err := NewCodec(&fakeBackend{deepOut: out}, WithDepthPolicy(codec.DepthNative)).Decode(stream)
	require.NoError(t, err)
	assert.Equal(t, 16, native.BitDepth)
	assert.Equal(t, out, native.Pixels)

	narrowed, err := NewCodec(&fakeBackend{deepOut: out}, WithDepthPolicy(codec.DepthNormalize8)).Decode(stream)
	require.NoError(t, err)
	assert.Equal(t, 8, narrowed.BitDepth)
	assert.Equal(t, pixel.Rescale(out, 16, 8), narrowed.Pixels)
}

func TestNoLeaksAcrossManyCalls(t *testing.T) {
	b := &fakeBackend{}
	c := NewCodec(b)
	for i := 0; i < 10000; i++ {
		data, err := c.Encode(encodeParams(1, 1, nil))
		require.NoError(t, err)
		_, err = c.Decode(data)
		require.NoError(t, err)
		if i%100 == 0 {
			_, _ = c.Decode(data[:8])
		}
	}
	assert.Zero(t, b.live.Load())
	assert.Zero(t, b.doubleFree.Load())
}

func TestConcurrentCalls(t *testing.T) {
	b := &fakeBackend{}
	c := NewCodec(b)

	var g errgroup.Group
	for n := 0; n < 8; n++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				data, err := c.Encode(encodeParams(5, 4, nil))
				if err != nil {
					return err
				}
				if _, err := c.Decode(data); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Zero(t, b.live.Load())
}

func TestBindOptions(t *testing.T) {
	opts := NewOptions()
	require.NoError(t, codec.BindOptions(name, map[string]any{
		"quality":      "88.5",
		"effort":       3,
		"lossyPalette": true,
	}, opts))
	assert.InDelta(t, 88.5, opts.Quality, 1e-6)
	assert.Equal(t, 3, opts.Effort)
	assert.True(t, opts.LossyPalette)
	assert.InDelta(t, -1, opts.AlphaQuality, 1e-6)
}
