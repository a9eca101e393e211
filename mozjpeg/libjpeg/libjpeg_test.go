package libjpeg

import (
	"testing"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	dcodec "github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/mozjpeg"
)

func flat(w, h int, r, g, b byte) []byte {
	px := make([]byte, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		px = append(px, r, g, b, 255)
	}
	return px
}

func TestRoundTripKeepsDimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*mozjpeg.Options)
	}{
		{"defaults", func(*mozjpeg.Options) {}},
		{"baseline", func(o *mozjpeg.Options) { o.Baseline = true }},
		{"arithmetic", func(o *mozjpeg.Options) { o.Arithmetic = true }},
		{"manual 4x4", func(o *mozjpeg.Options) { o.AutoSubsample = false; o.ChromaSubsample = 4 }},
		{"separate chroma", func(o *mozjpeg.Options) { o.SeparateChromaQuality = true; o.ChromaQuality = 40 }},
		{"grayscale", func(o *mozjpeg.Options) { o.ColorSpace = mozjpeg.Grayscale }},
	}

	c := mozjpeg.NewCodec(Backend{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := mozjpeg.NewOptions()
			tt.mutate(opts)

			data, err := c.Encode(codec.EncodeParams{Pixels: flat(17, 9, 200, 100, 50), Width: 17, Height: 9, Channels: 4, BitDepth: 8, Options: opts})
			require.NoError(t, err)
			assert.Equal(t, []byte{0xff, 0xd8}, data[:2])

			img, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, 17, img.Width)
			assert.Equal(t, 9, img.Height)
			assert.Len(t, img.Pixels, 17*9*4)
		})
	}
}

func TestFlatColorSurvives(t *testing.T) {
	opts := mozjpeg.NewOptions()
	opts.Quality = 95
	data, err := codec.Encode("image/jpeg", codec.EncodeParams{Pixels: flat(16, 16, 10, 200, 30), Width: 16, Height: 16, Channels: 4, BitDepth: 8, Options: opts})
	require.NoError(t, err)

	img, err := codec.Decode("jpg", data)
	require.NoError(t, err)
	assert.InDelta(t, 10, int(img.Pixels[0]), 4)
	assert.InDelta(t, 200, int(img.Pixels[1]), 4)
	assert.InDelta(t, 30, int(img.Pixels[2]), 4)
	assert.Equal(t, byte(255), img.Pixels[3])
}

func TestDecodeGarbage(t *testing.T) {
	_, err := mozjpeg.NewCodec(Backend{}).Decode([]byte("definitely not a jpeg"))
	require.Error(t, err)
	stage, _ := codec.StageOf(err)
	assert.Equal(t, codec.StageParse, stage)
	assert.Contains(t, err.Error(), "JPEG")
}

func TestRegisteredForDICOM(t *testing.T) {
	c, ok := dcodec.GetGlobalRegistry().GetCodec(transfer.JPEGBaseline8Bit)
	require.True(t, ok)
	assert.Equal(t, "icodec mozjpeg", c.Name())
}
