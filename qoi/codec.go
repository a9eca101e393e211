// Package qoi adapts the Quite OK Image format.
package qoi

import (
	"bytes"

	"github.com/xfmoulet/qoi"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

const name = "qoi"

var _ codec.Codec = (*Codec)(nil)

// Codec implements codec.Codec for QOI. QOI is always lossless and takes no
// options.
type Codec struct{}

// NewCodec creates a new QOI codec
func NewCodec() *Codec {
	return &Codec{}
}

// Options is empty; it exists so QOI takes the same call shape as the other
// formats.
type Options struct{}

// Validate validates the options
func (o *Options) Validate() error { return nil }

// Name returns the format name
func (c *Codec) Name() string { return name }

// MIMEType returns the media type
func (c *Codec) MIMEType() string { return "image/qoi" }

// Extension returns the file extension
func (c *Codec) Extension() string { return "qoi" }

// Decode decodes a QOI stream into 8-bit RGBA
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	img, err := qoi.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, codec.Translate(name, codec.StageParse, codec.Cause{Err: err})
	}
	buf := pixel.FromImage(img)
	if buf.BitDepth != 8 {
		buf = pixel.Depth(buf.Width, buf.Height, buf.Pixels, buf.BitDepth, codec.DepthNormalize8)
	}
	return buf, nil
}

// Encode encodes pixels as QOI. Color is kept as given under any alpha.
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	if params.Options != nil {
		if _, ok := params.Options.(*Options); !ok {
			return nil, codec.Errorf(name, codec.StageConfigure, "unexpected options type %T", params.Options)
		}
	}
	src, err := pixel.RGBA8(params.Buffer())
	if err != nil {
		return nil, codec.Translate(name, codec.StageConfigure, codec.Cause{Err: err})
	}

	return encode(src.Pixels, src.Width, src.Height), nil
}

func init() {
	codec.Register(NewCodec())
}
