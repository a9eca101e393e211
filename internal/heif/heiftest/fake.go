// Package heiftest provides an in-memory heif.Backend for adapter tests.
package heiftest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/heif"
	"github.com/cocosip/go-icodec/internal/pixel"
)

var magic = []byte("FHIF")

// Backend counts live handles and writes every setting the adapter made into
// the output, so configurations can be compared through the bytes.
type Backend struct {
	Live       atomic.Int64
	DoubleFree atomic.Int64
	Allocs     atomic.Int64

	// RowPad is added to every plane stride.
	RowPad int
	// FailParam makes the encoder reject the parameter with this key.
	FailParam string
	// FailAlloc is one of "context", "encoder", "image".
	FailAlloc string

	mu          sync.Mutex
	lastEncoder *Encoder
	lastOptions heif.EncodingOptions
	lastImage   []byte
}

var _ heif.Backend = (*Backend)(nil)

// LastEncoder returns the most recently created encoder.
func (b *Backend) LastEncoder() *Encoder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEncoder
}

// LastOptions returns the encoding options of the most recent encode.
func (b *Backend) LastOptions() heif.EncodingOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOptions
}

// LastPixels returns the packed samples the most recent encode received, as
// 16-bit little-endian values for planes deeper than 8 bits.
func (b *Backend) LastPixels() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastImage
}

func (b *Backend) acquire() {
	b.Live.Add(1)
	b.Allocs.Add(1)
}

func (b *Backend) release(done *bool) {
	if *done {
		b.DoubleFree.Add(1)
		return
	}
	*done = true
	b.Live.Add(-1)
}

// NewContext implements heif.Backend
func (b *Backend) NewContext() heif.Context {
	if b.FailAlloc == "context" {
		return nil
	}
	b.acquire()
	return &Context{b: b}
}

// NewImage implements heif.Backend
func (b *Backend) NewImage(width, height, depth int) (heif.Image, error) {
	if b.FailAlloc == "image" {
		return nil, codec.StructError{Code: 6, Subcode: 6000, Text: "Memory allocation error"}
	}
	b.acquire()
	return newImage(b, width, height, depth), nil
}

// Image is a padded interleaved plane.
type Image struct {
	b        *Backend
	w, h     int
	depth    int
	stride   int
	data     []byte
	released bool
}

func newImage(b *Backend, w, h, depth int) *Image {
	stride := w*4*bytesPerSample(depth) + b.RowPad
	return &Image{b: b, w: w, h: h, depth: depth, stride: stride, data: bytes.Repeat([]byte{0xEE}, stride*h)}
}

func bytesPerSample(depth int) int { return (depth + 7) / 8 }

// Plane implements heif.Image
func (i *Image) Plane() ([]byte, int) { return i.data, i.stride }

// Release implements heif.Image
func (i *Image) Release() { i.b.release(&i.released) }

// Encoder records parameters in the order they were set.
type Encoder struct {
	b           *Backend
	Compression heif.Compression
	Params      []string
	released    bool
}

func (e *Encoder) set(key string, value any) error {
	if key == e.b.FailParam {
		return codec.StructError{Code: 5, Subcode: 2006, Text: "Unsupported parameter value"}
	}
	e.Params = append(e.Params, fmt.Sprintf("%s=%v", key, value))
	return nil
}

// SetLossyQuality implements heif.Encoder
func (e *Encoder) SetLossyQuality(q int) error { return e.set("quality", q) }

// SetLossless implements heif.Encoder
func (e *Encoder) SetLossless(v bool) error { return e.set("lossless", v) }

// SetInteger implements heif.Encoder
func (e *Encoder) SetInteger(key string, v int) error { return e.set(key, v) }

// SetString implements heif.Encoder
func (e *Encoder) SetString(key, v string) error { return e.set(key, v) }

// SetBoolean implements heif.Encoder
func (e *Encoder) SetBoolean(key string, v bool) error { return e.set(key, v) }

// Release implements heif.Encoder
func (e *Encoder) Release() { e.b.release(&e.released) }

// Context holds at most one encoded or parsed image.
type Context struct {
	b       *Backend
	encoded []byte
	parsed  *stream
	freed   bool
}

// Encoder implements heif.Context
func (c *Context) Encoder(comp heif.Compression) (heif.Encoder, error) {
	if c.b.FailAlloc == "encoder" {
		return nil, codec.StructError{Code: 4, Subcode: 3000, Text: "Unsupported codec"}
	}
	c.b.acquire()
	enc := &Encoder{b: c.b, Compression: comp}
	c.b.mu.Lock()
	c.b.lastEncoder = enc
	c.b.mu.Unlock()
	return enc, nil
}

// Encode implements heif.Context
func (c *Context) Encode(img heif.Image, enc heif.Encoder, opts heif.EncodingOptions) error {
	i := img.(*Image)
	e := enc.(*Encoder)
	px, err := pixel.Export(i.data, i.stride, i.w, i.h, 4, bytesPerSample(i.depth))
	if err != nil {
		return err
	}
	nclx := -1
	if opts.NCLX != nil {
		nclx = opts.NCLX.MatrixCoefficients
	}
	meta := fmt.Sprintf("%s|%v|sharp=%t|nclx=%d", e.Compression, e.Params, opts.SharpYUV, nclx)
	c.encoded = Stream(i.w, i.h, i.depth, meta, px)

	c.b.mu.Lock()
	c.b.lastOptions = opts
	c.b.lastImage = px
	c.b.mu.Unlock()
	return nil
}

// Write implements heif.Context
func (c *Context) Write() ([]byte, error) {
	if c.encoded == nil {
		return nil, codec.StructError{Code: 1, Text: "No image to write"}
	}
	return c.encoded, nil
}

type stream struct {
	w, h, depth int
	samples     []byte
}

// Read implements heif.Context
func (c *Context) Read(data []byte) error {
	if len(data) < 17 || !bytes.Equal(data[:4], magic) {
		return codec.StructError{Code: 2, Subcode: 100, Text: "Invalid input: No 'ftyp' box"}
	}
	s := &stream{
		w:     int(binary.BigEndian.Uint32(data[4:])),
		h:     int(binary.BigEndian.Uint32(data[8:])),
		depth: int(data[12]),
	}
	metaLen := int(binary.BigEndian.Uint32(data[13:]))
	if 17+metaLen > len(data) {
		return codec.StructError{Code: 2, Subcode: 101, Text: "Invalid input: truncated"}
	}
	s.samples = data[17+metaLen:]
	if len(s.samples) != s.w*s.h*4*((s.depth+7)/8) {
		return codec.StructError{Code: 2, Subcode: 101, Text: "Invalid input: truncated"}
	}
	c.parsed = s
	return nil
}

// PrimaryImage implements heif.Context
func (c *Context) PrimaryImage() (heif.ImageHandle, error) {
	if c.parsed == nil {
		return nil, codec.StructError{Code: 2, Subcode: 102, Text: "No primary image"}
	}
	c.b.acquire()
	return &Handle{b: c.b, s: c.parsed}, nil
}

// Free implements heif.Context
func (c *Context) Free() { c.b.release(&c.freed) }

// Handle is the primary image of a parsed stream.
type Handle struct {
	b        *Backend
	s        *stream
	released bool
}

func (h *Handle) Width() int        { return h.s.w }
func (h *Handle) Height() int       { return h.s.h }
func (h *Handle) LumaBitDepth() int { return h.s.depth }

// Decode implements heif.ImageHandle
func (h *Handle) Decode(deep bool) (heif.Image, error) {
	h.b.acquire()
	bps, depth := 1, 8
	if deep {
		bps, depth = 2, 16
	}
	img := newImage(h.b, h.s.w, h.s.h, depth)
	samples := h.s.samples
	if deep && h.s.depth <= 8 {
		samples = pixel.Rescale(samples, 8, 16)
	}
	if !deep && h.s.depth > 8 {
		samples = pixel.Rescale(samples, h.s.depth, 8)
	}
	if img.stride < pixel.RowBytes(h.s.w, 4, bps) {
		// left for the adapter to reject
		return img, nil
	}
	if err := pixel.Import(img.data, img.stride, samples, h.s.w, h.s.h, 4, bps); err != nil {
		img.Release()
		return nil, err
	}
	return img, nil
}

// Release implements heif.ImageHandle
func (h *Handle) Release() { h.b.release(&h.released) }

// Stream builds a container the fake backend can read.
func Stream(w, h, depth int, meta string, samples []byte) []byte {
	var buf bytes.Buffer
	buf.Write(magic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(w))
	_ = binary.Write(&buf, binary.BigEndian, uint32(h))
	buf.WriteByte(byte(depth))
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(meta)))
	buf.WriteString(meta)
	buf.Write(samples)
	return buf.Bytes()
}
