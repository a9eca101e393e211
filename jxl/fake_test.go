package jxl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/pixel"
)

var fakeMagic = []byte("FJXL")

// fakeBackend stands in for libjxl. Encoded output carries the configuration
// so tests can compare settings through the bytes.
type fakeBackend struct {
	live       atomic.Int64
	doubleFree atomic.Int64
	allocs     atomic.Int64

	failAlloc   string
	failSetting *FrameSetting
	// outBufferDelta corrupts the decoder's output buffer size
	outBufferDelta int
	// deepOut, when set, is written as the decoder's 16-bit output
	deepOut []byte

	mu          sync.Mutex
	lastEncoder *fakeEncoder
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

func (b *fakeBackend) encoder() *fakeEncoder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEncoder
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

type fakeEncoder struct {
	b         *fakeBackend
	info      BasicInfo
	srgb      bool
	calls     []string
	settings  []FrameSetting
	pixels    []byte
	closed    bool
	stream    []byte
	written   int
	outputs   int
	destroyed bool
}

func (e *fakeEncoder) SetBasicInfo(info BasicInfo) error {
	e.info = info
	return nil
}

func (e *fakeEncoder) SetColorEncodingSRGB() error {
	e.srgb = true
	return nil
}

func (e *fakeEncoder) NewFrameSettings() FrameSettings {
	if e.b.failAlloc == "frame" {
		return nil
	}
	return &fakeFrameSettings{e: e}
}

func (e *fakeEncoder) AddImageFrame(fs FrameSettings, pixels []byte) error {
	if len(pixels) != e.info.Width*e.info.Height*4 {
		return codec.FailedCall("JxlEncoderAddImageFrame")
	}
	e.pixels = append([]byte(nil), pixels...)
	return nil
}

func (e *fakeEncoder) CloseInput() {
	e.closed = true
	meta := fmt.Sprintf("%+v|%v", e.info, e.calls)
	e.stream = fakeStream(e.info.Width, e.info.Height, 8, meta, e.pixels)
}

func (e *fakeEncoder) ProcessOutput(out []byte) (int, bool, error) {
	e.outputs++
	if !e.closed {
		return 0, false, codec.FailedCall("JxlEncoderProcessOutput")
	}
	n := copy(out, e.stream[e.written:])
	e.written += n
	return n, e.written < len(e.stream), nil
}

func (e *fakeEncoder) Destroy() { e.b.release(&e.destroyed) }

type fakeFrameSettings struct {
	e *fakeEncoder
}

func (f *fakeFrameSettings) SetLossless(v bool) error {
	f.e.calls = append(f.e.calls, fmt.Sprintf("lossless=%t", v))
	return nil
}

func (f *fakeFrameSettings) SetDistance(d float32) error {
	f.e.calls = append(f.e.calls, fmt.Sprintf("distance=%.3f", d))
	return nil
}

func (f *fakeFrameSettings) SetExtraChannelDistance(i int, d float32) error {
	f.e.calls = append(f.e.calls, fmt.Sprintf("extra%d=%.3f", i, d))
	return nil
}

func (f *fakeFrameSettings) set(id FrameSetting, v any) error {
	if f.e.b.failSetting != nil && *f.e.b.failSetting == id {
		return codec.FailedCall("JxlEncoderFrameSettingsSetOption")
	}
	f.e.settings = append(f.e.settings, id)
	f.e.calls = append(f.e.calls, fmt.Sprintf("%d=%v", id, v))
	return nil
}

func (f *fakeFrameSettings) SetOption(id FrameSetting, v int) error { return f.set(id, v) }

func (f *fakeFrameSettings) SetFloatOption(id FrameSetting, v float32) error { return f.set(id, v) }

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
	input     []byte
	state     int
	info      BasicInfo
	samples   []byte
	out       []byte
	deep      bool
	destroyed bool
}

func (d *fakeDecoder) SetInput(data []byte) error {
	d.input = data
	return nil
}

func (d *fakeDecoder) parse() bool {
	data := d.input
	if len(data) < 17 || !bytes.Equal(data[:4], fakeMagic) {
		return false
	}
	d.info.Width = int(binary.BigEndian.Uint32(data[4:]))
	d.info.Height = int(binary.BigEndian.Uint32(data[8:]))
	d.info.BitsPerSample = int(data[12])
	metaLen := int(binary.BigEndian.Uint32(data[13:]))
	if 17+metaLen > len(data) {
		return false
	}
	d.samples = data[17+metaLen:]
	return len(d.samples) == d.info.Width*d.info.Height*4*((d.info.BitsPerSample+7)/8)
}

func (d *fakeDecoder) ProcessInput() Status {
	switch d.state {
	case 0:
		if !d.parse() {
			return StatusError
		}
		d.state = 1
		return StatusBasicInfo
	case 1:
		d.state = 2
		return StatusNeedImageOutBuffer
	case 2:
		if d.out == nil {
			return StatusError
		}
		samples := d.samples
		switch {
		case d.deep && d.b.deepOut != nil:
			samples = d.b.deepOut
		case d.deep:
			samples = pixel.Rescale(samples, d.info.BitsPerSample, 16)
		case d.info.BitsPerSample > 8:
			samples = pixel.Rescale(samples, d.info.BitsPerSample, 8)
		}
		copy(d.out, samples)
		d.state = 3
		return StatusFullImage
	}
	return StatusSuccess
}

func (d *fakeDecoder) BasicInfo() (BasicInfo, error) {
	if d.state < 1 {
		return BasicInfo{}, codec.FailedCall("JxlDecoderGetBasicInfo")
	}
	return d.info, nil
}

func (d *fakeDecoder) SetOutBuffer(deep bool) ([]byte, error) {
	bps := 1
	if deep {
		bps = 2
	}
	d.deep = deep
	d.out = make([]byte, d.info.Width*d.info.Height*4*bps+d.b.outBufferDelta)
	return d.out, nil
}

func (d *fakeDecoder) Destroy() { d.b.release(&d.destroyed) }
