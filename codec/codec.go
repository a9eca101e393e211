package codec

import (
	"fmt"
	"image"
)

// Codec is the universal interface for all image codecs
type Codec interface {
	// Encode encodes an interleaved pixel buffer
	Encode(params EncodeParams) ([]byte, error)

	// Decode decodes compressed data into an RGBA buffer
	Decode(data []byte) (*ImageBuffer, error)

	// Name returns the short format name used as registry key ("avif", "webp", ...)
	Name() string

	// MIMEType returns the media type of the encoded stream
	MIMEType() string

	// Extension returns the usual file extension without the dot
	Extension() string
}

// EncodeParams contains parameters for encoding
type EncodeParams struct {
	Pixels   []byte  // Interleaved samples, row-major, no padding
	Width    int     // Image width
	Height   int     // Image height
	Channels int     // 3 (RGB) or 4 (RGBA)
	BitDepth int     // Bits per sample (8, 10 or 16)
	Options  Options // Codec-specific options, nil selects defaults
}

// Buffer returns the pixel portion of the parameters as an ImageBuffer.
func (p EncodeParams) Buffer() *ImageBuffer {
	return &ImageBuffer{
		Width:    p.Width,
		Height:   p.Height,
		Channels: p.Channels,
		BitDepth: p.BitDepth,
		Pixels:   p.Pixels,
	}
}

// Options is an interface for codec-specific encoding options
type Options interface {
	// Validate checks if the options are valid
	Validate() error
}

// ImageBuffer is a dense interleaved pixel buffer.
//
// Samples wider than 8 bits are stored as little-endian uint16.
type ImageBuffer struct {
	Width    int
	Height   int
	Channels int
	BitDepth int
	Pixels   []byte
}

// NewImageBuffer allocates a zeroed buffer of the given geometry.
func NewImageBuffer(width, height, channels, bitDepth int) *ImageBuffer {
	b := &ImageBuffer{Width: width, Height: height, Channels: channels, BitDepth: bitDepth}
	b.Pixels = make([]byte, b.Len())
	return b
}

// BytesPerSample returns ceil(BitDepth/8).
func (b *ImageBuffer) BytesPerSample() int {
	return (b.BitDepth + 7) / 8
}

// Stride returns the size of one packed row in bytes.
func (b *ImageBuffer) Stride() int {
	return b.Width * b.Channels * b.BytesPerSample()
}

// Len returns the exact byte length Pixels must have.
func (b *ImageBuffer) Len() int {
	return b.Stride() * b.Height
}

// Validate checks the geometry and the length invariant.
func (b *ImageBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, b.Width, b.Height)
	}
	if b.Channels != 3 && b.Channels != 4 {
		return fmt.Errorf("%w: %d channels", ErrInvalidImage, b.Channels)
	}
	switch b.BitDepth {
	case 8, 10, 16:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrInvalidImage, b.BitDepth)
	}
	if len(b.Pixels) != b.Len() {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrInvalidImage, len(b.Pixels), b.Len())
	}
	return nil
}

// Image converts an 8-bit RGBA buffer into an *image.NRGBA sharing no memory
// with b. Deeper buffers are returned as *image.NRGBA64.
func (b *ImageBuffer) Image() image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)
	if b.BitDepth == 8 {
		img := image.NewNRGBA(rect)
		for i, j := 0, 0; i < b.Width*b.Height; i++ {
			o := i * b.Channels
			img.Pix[j] = b.Pixels[o]
			img.Pix[j+1] = b.Pixels[o+1]
			img.Pix[j+2] = b.Pixels[o+2]
			if b.Channels == 4 {
				img.Pix[j+3] = b.Pixels[o+3]
			} else {
				img.Pix[j+3] = 0xff
			}
			j += 4
		}
		return img
	}

	img := image.NewNRGBA64(rect)
	shift := uint(16 - b.BitDepth)
	opaque := uint16(1)<<b.BitDepth - 1
	for i, j := 0, 0; i < b.Width*b.Height; i++ {
		o := i * b.Channels * 2
		for c := 0; c < 4; c++ {
			v := opaque
			if c < b.Channels {
				v = uint16(b.Pixels[o+2*c]) | uint16(b.Pixels[o+2*c+1])<<8
			}
			// replicate the high bits into the low ones
			w := v<<shift | v>>(uint(b.BitDepth)-shift)
			if shift == 0 {
				w = v
			}
			img.Pix[j+2*c] = byte(w >> 8)
			img.Pix[j+2*c+1] = byte(w)
		}
		j += 8
	}
	return img
}

// BaseOptions provides common options shared by lossy codecs
type BaseOptions struct {
	// Quality factor (0-100, higher is better)
	Quality int `json:"quality" validate:"min=0,max=100"`
}

// Validate validates base options
func (o *BaseOptions) Validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return ErrInvalidQuality
	}
	return nil
}
