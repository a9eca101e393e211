package webp2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

var fakeMagic = []byte("FWP2")

// fakeBackend stands in for libwebp2. Streams carry the buffer format, the
// encoder config and the samples as the encoder saw them.
type fakeBackend struct {
	live       atomic.Int64
	doubleFree atomic.Int64
	allocs     atomic.Int64

	failAlloc  bool
	failImport bool
	failEncode bool
	rowPad     int

	mu         sync.Mutex
	lastFormat SampleFormat
	lastConfig EncoderConfig
}

func (b *fakeBackend) release(done *bool) {
	if *done {
		b.doubleFree.Add(1)
		return
	}
	*done = true
	b.live.Add(-1)
}

func (b *fakeBackend) encoded() (SampleFormat, EncoderConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFormat, b.lastConfig
}

func (b *fakeBackend) NewBuffer(format SampleFormat) Buffer {
	if b.failAlloc {
		return nil
	}
	b.live.Add(1)
	b.allocs.Add(1)
	return &fakeBuffer{b: b, format: format}
}

func (b *fakeBackend) Encode(src Buffer, cfg EncoderConfig) ([]byte, error) {
	if b.failEncode {
		return nil, codec.StatusText{Code: 13, Text: "invalid configuration"}
	}
	fb := src.(*fakeBuffer)
	b.mu.Lock()
	b.lastFormat, b.lastConfig = fb.format, cfg
	b.mu.Unlock()

	samples, err := pixel.Export(fb.data, fb.stride, fb.w, fb.h, 4, 1)
	if err != nil {
		return nil, err
	}
	meta := fmt.Sprintf("%+v", cfg)

	var buf bytes.Buffer
	buf.Write(fakeMagic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(fb.w))
	_ = binary.Write(&buf, binary.BigEndian, uint32(fb.h))
	buf.WriteByte(byte(fb.format))
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(meta)))
	buf.WriteString(meta)
	buf.Write(samples)
	return buf.Bytes(), nil
}

func (b *fakeBackend) Decode(data []byte, dst Buffer) error {
	if len(data) < 17 || !bytes.Equal(data[:4], fakeMagic) {
		return codec.StatusText{Code: 8, Text: "bitstream error"}
	}
	w := int(binary.BigEndian.Uint32(data[4:]))
	h := int(binary.BigEndian.Uint32(data[8:]))
	format := SampleFormat(data[12])
	metaLen := int(binary.BigEndian.Uint32(data[13:]))
	if 17+metaLen > len(data) || len(data[17+metaLen:]) != w*h*4 {
		return codec.StatusText{Code: 9, Text: "not enough data"}
	}
	samples := append([]byte(nil), data[17+metaLen:]...)
	if format == FormatArgbPremultiplied {
		pixel.Unpremultiply(samples)
	}
	return dst.Import(FormatRGBA, w, h, samples, w*4)
}

type fakeBuffer struct {
	b         *fakeBackend
	format    SampleFormat
	w, h      int
	stride    int
	data      []byte
	destroyed bool
}

// Import stores samples in R G B A order whatever the format; only the
// premultiplication follows the format.
func (f *fakeBuffer) Import(format SampleFormat, w, h int, px []byte, stride int) error {
	if f.b.failImport {
		return codec.StatusText{Code: 5, Text: "bad dimension"}
	}
	if format != FormatRGBA {
		return codec.StatusText{Code: 7, Text: "unsupported feature"}
	}
	rgba, err := pixel.Export(px, stride, w, h, 4, 1)
	if err != nil {
		return err
	}
	if f.format == FormatArgbPremultiplied {
		rgba = pixel.Premultiply(rgba)
	}
	f.w, f.h = w, h
	f.stride = w*4 + f.b.rowPad
	f.data = bytes.Repeat([]byte{0xEE}, f.stride*h)
	if f.stride < w*4 {
		// left for the adapter to reject
		return nil
	}
	return pixel.Import(f.data, f.stride, rgba, w, h, 4, 1)
}

func (f *fakeBuffer) Width() int  { return f.w }
func (f *fakeBuffer) Height() int { return f.h }

func (f *fakeBuffer) Pixels() ([]byte, int) { return f.data, f.stride }

func (f *fakeBuffer) Destroy() { f.b.release(&f.destroyed) }
