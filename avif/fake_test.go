package avif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

var fakeMagic = []byte("FAVF")

// fakeBackend stands in for libavif. It counts live handles and serialises
// everything the adapter configured into the "encoded" bytes so tests can
// compare configurations through output equality.
type fakeBackend struct {
	live       atomic.Int64
	doubleFree atomic.Int64
	allocs     atomic.Int64

	rowPad     int
	failOption string
	failAlloc  string

	mu          sync.Mutex
	lastEncoder *fakeEncoder
	lastImage   *fakeImage
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

func (b *fakeBackend) NewImage(width, height, depth int, format PixelFormat) Image {
	if b.failAlloc == "image" {
		return nil
	}
	b.acquire()
	img := &fakeImage{b: b, w: width, h: height, depth: depth, format: format, matrix: -1}
	b.mu.Lock()
	b.lastImage = img
	b.mu.Unlock()
	return img
}

func (b *fakeBackend) NewEncoder() Encoder {
	if b.failAlloc == "encoder" {
		return nil
	}
	b.acquire()
	enc := &fakeEncoder{b: b}
	b.mu.Lock()
	b.lastEncoder = enc
	b.mu.Unlock()
	return enc
}

func (b *fakeBackend) NewDecoder() Decoder {
	if b.failAlloc == "decoder" {
		return nil
	}
	b.acquire()
	return &fakeDecoder{b: b}
}

type fakeImage struct {
	b         *fakeBackend
	w, h      int
	depth     int
	format    PixelFormat
	matrix    MatrixCoefficients
	sharpYUV  bool
	data      []byte
	owned     bool
	destroyed bool
}

func (i *fakeImage) Width() int  { return i.w }
func (i *fakeImage) Height() int { return i.h }
func (i *fakeImage) Depth() int  { return i.depth }

func (i *fakeImage) SetMatrixCoefficients(mc MatrixCoefficients) { i.matrix = mc }

func (i *fakeImage) NewRGB(depth int, sharpYUV bool) (RGBImage, error) {
	if i.b.failAlloc == "rgb" {
		return nil, codec.StatusText{Code: 2, Text: "Out of memory"}
	}
	i.b.acquire()
	i.sharpYUV = sharpYUV
	bps := (depth + 7) / 8
	row := i.w*4*bps + i.b.rowPad
	px := bytes.Repeat([]byte{0xEE}, row*i.h)
	return &fakeRGB{b: i.b, depth: depth, rowBytes: row, pixels: px}, nil
}

func (i *fakeImage) FromRGB(rgb RGBImage) error {
	r := rgb.(*fakeRGB)
	data, err := pixel.Export(r.pixels, r.rowBytes, i.w, i.h, 4, (r.depth+7)/8)
	if err != nil {
		return err
	}
	i.data = pixel.Rescale(data, r.depth, i.depth)
	return nil
}

func (i *fakeImage) ToRGB(rgb RGBImage) error {
	r := rgb.(*fakeRGB)
	bps := (r.depth + 7) / 8
	if r.rowBytes < pixel.RowBytes(i.w, 4, bps) {
		// left for the adapter to reject
		return nil
	}
	data := pixel.Rescale(i.data, i.depth, r.depth)
	return pixel.Import(r.pixels, r.rowBytes, data, i.w, i.h, 4, bps)
}

func (i *fakeImage) Destroy() {
	if i.owned {
		return
	}
	i.b.release(&i.destroyed)
}

type fakeRGB struct {
	b        *fakeBackend
	depth    int
	rowBytes int
	pixels   []byte
	freed    bool
}

func (r *fakeRGB) Pixels() []byte { return r.pixels }
func (r *fakeRGB) RowBytes() int  { return r.rowBytes }
func (r *fakeRGB) Free()          { r.b.release(&r.freed) }

type fakeEncoder struct {
	b         *fakeBackend
	cfg       EncoderConfig
	options   []string
	destroyed bool
}

func (e *fakeEncoder) Configure(cfg EncoderConfig) { e.cfg = cfg }

func (e *fakeEncoder) SetCodecOption(key, value string) error {
	if key == e.b.failOption {
		return codec.StatusText{Code: 3, Text: "Invalid codec-specific option"}
	}
	e.options = append(e.options, key+"="+value)
	return nil
}

func (e *fakeEncoder) Write(img Image) ([]byte, error) {
	i := img.(*fakeImage)
	meta := fmt.Sprintf("%+v|%v|%d|%d|%t", e.cfg, e.options, i.matrix, i.format, i.sharpYUV)
	return fakeStream(i.w, i.h, i.depth, meta, i.data), nil
}

func (e *fakeEncoder) Destroy() { e.b.release(&e.destroyed) }

// fakeStream lays out: magic, width, height, depth, meta length, meta, samples.
func fakeStream(w, h, depth int, meta string, data []byte) []byte {
	var buf bytes.Buffer
	buf.Write(fakeMagic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(w))
	_ = binary.Write(&buf, binary.BigEndian, uint32(h))
	buf.WriteByte(byte(depth))
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(meta)))
	buf.WriteString(meta)
	buf.Write(data)
	return buf.Bytes()
}

type fakeDecoder struct {
	b         *fakeBackend
	threads   int
	img       *fakeImage
	destroyed bool
}

func (d *fakeDecoder) SetMaxThreads(n int) { d.threads = n }

func (d *fakeDecoder) Parse(data []byte) error {
	if len(data) < 17 || !bytes.Equal(data[:4], fakeMagic) {
		return codec.StatusText{Code: 5, Text: "BMFF parsing failed"}
	}
	w := int(binary.BigEndian.Uint32(data[4:]))
	h := int(binary.BigEndian.Uint32(data[8:]))
	depth := int(data[12])
	metaLen := int(binary.BigEndian.Uint32(data[13:]))
	samples := data[17+metaLen:]
	if len(samples) != w*h*4*((depth+7)/8) {
		return codec.StatusText{Code: 7, Text: "Truncated data"}
	}
	d.img = &fakeImage{b: d.b, w: w, h: h, depth: depth, data: samples, owned: true}
	return nil
}

func (d *fakeDecoder) NextImage() (Image, error) {
	if d.img == nil {
		return nil, codec.StatusText{Code: 11, Text: "No images remaining"}
	}
	return d.img, nil
}

func (d *fakeDecoder) Destroy() { d.b.release(&d.destroyed) }
