package pixel

import (
	"encoding/binary"
	"fmt"

	"github.com/cocosip/go-icodec/codec"
)

// Rescale converts samples between bit depths. Samples deeper than 8 bits are
// little-endian uint16. The result is always a new slice.
func Rescale(src []byte, fromDepth, toDepth int) []byte {
	if fromDepth == toDepth {
		return append([]byte(nil), src...)
	}
	fromBytes, toBytes := (fromDepth+7)/8, (toDepth+7)/8
	n := len(src) / fromBytes
	out := make([]byte, n*toBytes)
	fromMax := uint32(1)<<fromDepth - 1
	toMax := uint32(1)<<toDepth - 1

	for i := 0; i < n; i++ {
		var v uint32
		if fromBytes == 1 {
			v = uint32(src[i])
		} else {
			v = uint32(binary.LittleEndian.Uint16(src[2*i:]))
			if v > fromMax {
				v = fromMax
			}
		}
		w := (v*toMax + fromMax/2) / fromMax
		if toBytes == 1 {
			out[i] = byte(w)
		} else {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(w))
		}
	}
	return out
}

// AddAlpha widens 3-channel samples to 4 with an opaque alpha of the given
// depth.
func AddAlpha(rgb []byte, bitDepth int) []byte {
	bps := (bitDepth + 7) / 8
	n := len(rgb) / (3 * bps)
	out := make([]byte, n*4*bps)
	opaque := uint16(1)<<bitDepth - 1
	for i := 0; i < n; i++ {
		copy(out[i*4*bps:i*4*bps+3*bps], rgb[i*3*bps:(i+1)*3*bps])
		if bps == 1 {
			out[i*4+3] = 0xff
		} else {
			binary.LittleEndian.PutUint16(out[i*8+6:], opaque)
		}
	}
	return out
}

// DropAlpha narrows 4-channel samples to 3.
func DropAlpha(rgba []byte, bitDepth int) []byte {
	bps := (bitDepth + 7) / 8
	n := len(rgba) / (4 * bps)
	out := make([]byte, n*3*bps)
	for i := 0; i < n; i++ {
		copy(out[i*3*bps:(i+1)*3*bps], rgba[i*4*bps:i*4*bps+3*bps])
	}
	return out
}

// Premultiply returns a copy of 8-bit RGBA with color scaled by alpha.
func Premultiply(rgba []byte) []byte {
	out := make([]byte, len(rgba))
	for i := 0; i+3 < len(rgba); i += 4 {
		a := uint32(rgba[i+3])
		out[i] = byte((uint32(rgba[i])*a + 127) / 255)
		out[i+1] = byte((uint32(rgba[i+1])*a + 127) / 255)
		out[i+2] = byte((uint32(rgba[i+2])*a + 127) / 255)
		out[i+3] = rgba[i+3]
	}
	return out
}

// Unpremultiply reverses Premultiply in place. Fully transparent pixels are
// left black.
func Unpremultiply(rgba []byte) {
	for i := 0; i+3 < len(rgba); i += 4 {
		a := uint32(rgba[i+3])
		switch a {
		case 0xff:
		case 0:
			rgba[i], rgba[i+1], rgba[i+2] = 0, 0, 0
		default:
			for c := 0; c < 3; c++ {
				v := (uint32(rgba[i+c])*255 + a/2) / a
				if v > 255 {
					v = 255
				}
				rgba[i+c] = byte(v)
			}
		}
	}
}

// RGBA8 validates buf and returns it as 4-channel 8-bit samples, converting
// when needed. The returned buffer never aliases buf.Pixels.
func RGBA8(buf *codec.ImageBuffer) (*codec.ImageBuffer, error) {
	return RGBA(buf, 8)
}

// RGBA is RGBA8 for any target depth; samples deeper than 8 bits are
// little-endian uint16.
func RGBA(buf *codec.ImageBuffer, depth int) (*codec.ImageBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	// Rescale copies even when the depths match
	px := Rescale(buf.Pixels, buf.BitDepth, depth)
	switch buf.Channels {
	case 3:
		px = AddAlpha(px, depth)
	case 4:
	default:
		return nil, fmt.Errorf("%w: %d channels", codec.ErrInvalidImage, buf.Channels)
	}
	return &codec.ImageBuffer{Width: buf.Width, Height: buf.Height, Channels: 4, BitDepth: depth, Pixels: px}, nil
}

// Depth converts a 4-channel buffer coded at srcDepth to the depth policy
// selects, returning a buffer with BitDepth set accordingly.
func Depth(width, height int, rgba []byte, srcDepth int, policy codec.DepthPolicy) *codec.ImageBuffer {
	out := policy.OutputDepth(srcDepth)
	px := rgba
	if out != srcDepth {
		px = Rescale(rgba, srcDepth, out)
	}
	return &codec.ImageBuffer{Width: width, Height: height, Channels: 4, BitDepth: out, Pixels: px}
}
