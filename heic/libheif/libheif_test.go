package libheif

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/heic"
)

func TestRegistered(t *testing.T) {
	for _, key := range []string{"heic", "image/heic", "vvic", ".vvic"} {
		_, err := codec.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestLosslessRoundTrip(t *testing.T) {
	px := make([]byte, 8*8*4)
	for i := range px {
		px[i] = byte(i * 5)
	}
	for i := 3; i < len(px); i += 4 {
		px[i] = 255
	}
	opts := heic.NewOptions()
	opts.Lossless = true
	opts.Chroma = "444"

	c := heic.NewCodec(Backend{})
	data, err := c.Encode(codec.EncodeParams{Pixels: px, Width: 8, Height: 8, Channels: 4, BitDepth: 8, Options: opts})
	if err != nil {
		t.Skipf("no HEVC encoder available: %v", err)
	}

	img, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 8, img.Height)
	assert.Len(t, img.Pixels, len(px))
}

func TestDecodeGarbage(t *testing.T) {
	_, err := heic.NewCodec(Backend{}).Decode([]byte("garbage input"))
	require.Error(t, err)
	stage, ok := codec.StageOf(err)
	require.True(t, ok)
	assert.Equal(t, codec.StageParse, stage)
}

func TestLosslessFailsWithoutColorProfile(t *testing.T) {
	orig := newNCLX
	newNCLX = func() unsafe.Pointer { return nil }
	defer func() { newNCLX = orig }()

	opts := heic.NewOptions()
	opts.Lossless = true
	opts.Chroma = "444"
	px := make([]byte, 4*4*4)
	_, err := heic.NewCodec(Backend{}).Encode(codec.EncodeParams{Pixels: px, Width: 4, Height: 4, Channels: 4, BitDepth: 8, Options: opts})
	require.Error(t, err)
	if stage, _ := codec.StageOf(err); stage == codec.StageAllocation {
		t.Skipf("no HEVC encoder available: %v", err)
	}

	var ce *codec.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, codec.StageProcess, ce.Stage)
	// heif_error_Memory_allocation_error
	assert.Equal(t, 6, ce.Code)
	assert.Contains(t, ce.Message, "color profile")
}
