package pixel

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/cocosip/go-icodec/codec"
)

// FromImage converts img into a packed non-premultiplied RGBA buffer. 16-bit
// images keep their depth, everything else becomes 8-bit.
func FromImage(img image.Image) *codec.ImageBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.NRGBA:
		px, _ := Export(src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], src.Stride, w, h, 4, 1)
		return &codec.ImageBuffer{Width: w, Height: h, Channels: 4, BitDepth: 8, Pixels: px}
	case *image.NRGBA64:
		out := codec.NewImageBuffer(w, h, 4, 16)
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for i := 0; i < w*4; i++ {
				// big-endian in image.NRGBA64, little-endian in buffers
				out.Pixels[(y*w*4+i)*2] = row[2*i+1]
				out.Pixels[(y*w*4+i)*2+1] = row[2*i]
			}
		}
		return out
	case *image.RGBA64:
		out := codec.NewImageBuffer(w, h, 4, 16)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBA64Model.Convert(src.RGBA64At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				o := (y*w + x) * 8
				put16(out.Pixels[o:], c.R)
				put16(out.Pixels[o+2:], c.G)
				put16(out.Pixels[o+4:], c.B)
				put16(out.Pixels[o+6:], c.A)
			}
		}
		return out
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &codec.ImageBuffer{Width: w, Height: h, Channels: 4, BitDepth: 8, Pixels: dst.Pix}
}

func put16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
