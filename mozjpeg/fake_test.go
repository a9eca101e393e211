package mozjpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

var fakeMagic = []byte("FJPG")

// fakeBackend stands in for libjpeg and records every configuration call.
type fakeBackend struct {
	live       atomic.Int64
	doubleFree atomic.Int64
	allocs     atomic.Int64

	failAlloc string
	// failCall makes the call whose record starts with this prefix fail
	failCall string
	rowPad   int

	mu   sync.Mutex
	last *fakeCompressor
}

func (b *fakeBackend) acquire() {
	b.live.Add(1)
	b.allocs.Add(1)
}

func (b *fakeBackend) release(done *bool) {
	if *done {
		b.doubleFree.Add(1)
		return
	}
	*done = true
	b.live.Add(-1)
}

func (b *fakeBackend) compressor() *fakeCompressor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *fakeBackend) NewCompressor() (Compressor, error) {
	if b.failAlloc == "compressor" {
		return nil, codec.OutOfMemory{}
	}
	b.acquire()
	c := &fakeCompressor{b: b}
	b.mu.Lock()
	b.last = c
	b.mu.Unlock()
	return c, nil
}

func (b *fakeBackend) NewDecompressor() (Decompressor, error) {
	if b.failAlloc == "decompressor" {
		return nil, codec.OutOfMemory{}
	}
	b.acquire()
	return &fakeDecompressor{b: b}, nil
}

type fakeCompressor struct {
	b         *fakeBackend
	w, h      int
	calls     []string
	pixels    []byte
	destroyed bool
}

func (c *fakeCompressor) record(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	if c.b.failCall != "" && strings.HasPrefix(call, c.b.failCall) {
		return codec.StatusText{Code: 14, Text: "Bogus parameter"}
	}
	c.calls = append(c.calls, call)
	return nil
}

func (c *fakeCompressor) SetImage(w, h int) {
	c.w, c.h = w, h
	_ = c.record("image %dx%d", w, h)
}

func (c *fakeCompressor) SetDefaults() error { return c.record("defaults") }

func (c *fakeCompressor) SetColorspace(cs ColorSpace) error {
	return c.record("colorspace %d", int(cs))
}

func (c *fakeCompressor) SetIntParam(p IntParam, v int) error {
	return c.record("%s=%d", p, v)
}

func (c *fakeCompressor) SetBoolParam(p BoolParam, v bool) error {
	return c.record("%s=%t", p, v)
}

func (c *fakeCompressor) SetCoding(cd Coding) {
	_ = c.record("coding optimize=%t smoothing=%d arith=%t", cd.OptimizeCoding, cd.Smoothing, cd.Arithmetic)
}

func (c *fakeCompressor) SetQualityRatings(q string, baseline bool) error {
	return c.record("quality %s baseline=%t", q, baseline)
}

func (c *fakeCompressor) SetLumaSampling(h, v int) { _ = c.record("sampling %dx%d", h, v) }

func (c *fakeCompressor) SimpleProgression() error { return c.record("progression") }

func (c *fakeCompressor) ClearScans() { _ = c.record("sequential") }

func (c *fakeCompressor) Compress(rgba []byte, stride int) ([]byte, error) {
	px, err := pixel.Export(rgba, stride, c.w, c.h, 4, 1)
	if err != nil {
		return nil, err
	}
	c.pixels = px
	meta := strings.Join(c.calls, ";")

	var buf bytes.Buffer
	buf.Write(fakeMagic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(c.w))
	_ = binary.Write(&buf, binary.BigEndian, uint32(c.h))
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(meta)))
	buf.WriteString(meta)
	buf.Write(px)
	return buf.Bytes(), nil
}

func (c *fakeCompressor) Destroy() { c.b.release(&c.destroyed) }

type fakeDecompressor struct {
	b         *fakeBackend
	w, h      int
	samples   []byte
	destroyed bool
}

func (d *fakeDecompressor) ReadHeader(data []byte) (int, int, error) {
	if len(data) < 16 || !bytes.Equal(data[:4], fakeMagic) {
		return 0, 0, codec.StatusText{Code: 55, Text: "Not a JPEG file: starts with 0x00 0x01"}
	}
	d.w = int(binary.BigEndian.Uint32(data[4:]))
	d.h = int(binary.BigEndian.Uint32(data[8:]))
	metaLen := int(binary.BigEndian.Uint32(data[12:]))
	if 16+metaLen > len(data) {
		return 0, 0, codec.StatusText{Code: 71, Text: "Premature end of JPEG file"}
	}
	d.samples = data[16+metaLen:]
	return d.w, d.h, nil
}

func (d *fakeDecompressor) Decompress() ([]byte, int, error) {
	if len(d.samples) != d.w*d.h*4 {
		return nil, 0, codec.StatusText{Code: 71, Text: "Premature end of JPEG file"}
	}
	stride := d.w*4 + d.b.rowPad
	out := bytes.Repeat([]byte{0xEE}, stride*d.h)
	if stride < d.w*4 {
		// left for the adapter to reject
		return out, stride, nil
	}
	if err := pixel.Import(out, stride, d.samples, d.w, d.h, 4, 1); err != nil {
		return nil, 0, err
	}
	return out, stride, nil
}

func (d *fakeDecompressor) Destroy() { d.b.release(&d.destroyed) }
