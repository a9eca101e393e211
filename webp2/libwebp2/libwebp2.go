// Package libwebp2 binds the webp2 adapter to libwebp2 through cgo and a
// small C++ shim. Importing it registers the codec with the codec registry.
package libwebp2

/*
#cgo CXXFLAGS: -std=c++17
#cgo LDFLAGS: -lwebp2 -lstdc++
#include <stdlib.h>
#include "shim.h"
*/
import "C"

import (
	"unsafe"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/webp2"
)

var _ webp2.Backend = Backend{}

func init() {
	codec.Register(webp2.NewCodec(Backend{}))
}

func status(s C.int) error {
	if s == 0 {
		return nil
	}
	if s == C.icodec_wp2_status_out_of_memory() {
		return codec.OutOfMemory{}
	}
	return codec.StatusText{Code: int(s), Text: C.GoString(C.icodec_wp2_status_text(s))}
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// Backend implements webp2.Backend with libwebp2.
type Backend struct{}

// NewBuffer allocates a WP2::ArgbBuffer
func (Backend) NewBuffer(format webp2.SampleFormat) webp2.Buffer {
	b := C.icodec_wp2_buffer_new(C.int(format))
	if b == nil {
		return nil
	}
	return &buffer{b: b}
}

// Encode runs WP2::Encode
func (Backend) Encode(src webp2.Buffer, cfg webp2.EncoderConfig) ([]byte, error) {
	c := C.icodec_wp2_config{
		quality:           C.float(cfg.Quality),
		alpha_quality:     C.float(cfg.AlphaQuality),
		effort:            C.int(cfg.Effort),
		pass:              C.int(cfg.Pass),
		uv_mode:           C.int(cfg.UVMode),
		sns:               C.float(cfg.SNS),
		csp_type:          C.int(cfg.CSP),
		error_diffusion:   C.int(cfg.ErrorDiffusion),
		use_random_matrix: cbool(cfg.UseRandomMatrix),
		keep_unmultiplied: cbool(cfg.KeepUnmultiplied),
		thread_level:      C.int(cfg.ThreadLevel),
	}
	var out *C.uint8_t
	var size C.size_t
	if err := status(C.icodec_wp2_encode(src.(*buffer).b, &c, &out, &size)); err != nil {
		return nil, err
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoBytes(unsafe.Pointer(out), C.int(size)), nil
}

// Decode runs WP2::Decode
func (Backend) Decode(data []byte, dst webp2.Buffer) error {
	if len(data) == 0 {
		return status(C.icodec_wp2_decode(nil, 0, dst.(*buffer).b))
	}
	in := C.CBytes(data)
	defer C.free(in)
	return status(C.icodec_wp2_decode((*C.uint8_t)(in), C.size_t(len(data)), dst.(*buffer).b))
}

type buffer struct {
	b *C.icodec_wp2_buffer
}

func (b *buffer) Import(format webp2.SampleFormat, w, h int, px []byte, stride int) error {
	if len(px) == 0 {
		return codec.StatusText{Code: -1, Text: "empty pixel buffer"}
	}
	return status(C.icodec_wp2_buffer_import(b.b, C.int(format), C.uint32_t(w), C.uint32_t(h),
		(*C.uint8_t)(unsafe.Pointer(&px[0])), C.uint32_t(stride)))
}

func (b *buffer) Width() int  { return int(C.icodec_wp2_buffer_width(b.b)) }
func (b *buffer) Height() int { return int(C.icodec_wp2_buffer_height(b.b)) }

func (b *buffer) Pixels() ([]byte, int) {
	row := C.icodec_wp2_buffer_row0(b.b)
	stride := int(C.icodec_wp2_buffer_stride(b.b))
	if row == nil {
		return nil, stride
	}
	n := stride*(b.Height()-1) + b.Width()*4
	return unsafe.Slice((*byte)(unsafe.Pointer(row)), n), stride
}

func (b *buffer) Destroy() { C.icodec_wp2_buffer_free(b.b) }
