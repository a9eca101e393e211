// Package libheif binds the heic and vvic adapters to libheif through cgo.
// Importing it registers both codecs with the codec registry.
package libheif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <string.h>
#include <libheif/heif.h>

typedef struct {
	uint8_t* data;
	size_t size;
} icodec_buffer;

static struct heif_error icodec_write(struct heif_context* ctx, const void* data, size_t size, void* userdata) {
	icodec_buffer* b = (icodec_buffer*)userdata;
	struct heif_error err = { heif_error_Ok, heif_suberror_Unspecified, "Success" };
	uint8_t* grown = (uint8_t*)realloc(b->data, b->size + size);
	if (grown == NULL) {
		err.code = heif_error_Memory_allocation_error;
		err.message = "Cannot grow output buffer";
		return err;
	}
	memcpy(grown + b->size, data, size);
	b->data = grown;
	b->size += size;
	return err;
}

static struct heif_error icodec_write_memory(struct heif_context* ctx, icodec_buffer* out) {
	struct heif_writer w;
	w.writer_api_version = 1;
	w.write = icodec_write;
	return heif_context_write(ctx, &w, out);
}

static struct heif_error icodec_encode(struct heif_context* ctx, struct heif_image* img,
		struct heif_encoder* enc, int sharp_yuv, struct heif_color_profile_nclx* nclx) {
	struct heif_encoding_options* opts = heif_encoding_options_alloc();
	struct heif_error err;
	if (opts == NULL) {
		err.code = heif_error_Memory_allocation_error;
		err.subcode = heif_suberror_Unspecified;
		err.message = "Cannot allocate encoding options";
		return err;
	}
	if (sharp_yuv) {
		opts->color_conversion_options.only_use_preferred_chroma_algorithm = 1;
		opts->color_conversion_options.preferred_chroma_downsampling_algorithm = heif_chroma_downsampling_sharp_yuv;
	}
	opts->output_nclx_profile = nclx;
	err = heif_context_encode_image(ctx, img, enc, opts, NULL);
	heif_encoding_options_free(opts);
	return err;
}
*/
import "C"

import (
	"unsafe"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/heic"
	"github.com/cocosip/go-icodec/internal/heif"
	"github.com/cocosip/go-icodec/vvic"
)

var _ heif.Backend = Backend{}

// Backend implements heif.Backend on libheif.
type Backend struct{}

func check(err C.struct_heif_error) error {
	if err.code == C.heif_error_Ok {
		return nil
	}
	return codec.StructError{Code: int(err.code), Subcode: int(err.subcode), Text: C.GoString(err.message)}
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// NewContext wraps heif_context_alloc
func (Backend) NewContext() heif.Context {
	p := C.heif_context_alloc()
	if p == nil {
		return nil
	}
	return &context{p: p}
}

// NewImage creates an interleaved RGBA heif_image, RRGGBBAA_LE above 8 bits
func (Backend) NewImage(width, height, depth int) (heif.Image, error) {
	chroma := C.enum_heif_chroma(C.heif_chroma_interleaved_RGBA)
	if depth > 8 {
		chroma = C.heif_chroma_interleaved_RRGGBBAA_LE
	}
	var p *C.struct_heif_image
	if err := check(C.heif_image_create(C.int(width), C.int(height), C.heif_colorspace_RGB, chroma, &p)); err != nil {
		return nil, err
	}
	img := &image{p: p, height: height}
	if err := check(C.heif_image_add_plane(p, C.heif_channel_interleaved, C.int(width), C.int(height), C.int(depth))); err != nil {
		img.Release()
		return nil, err
	}
	return img, nil
}

type image struct {
	p      *C.struct_heif_image
	height int
}

func (i *image) Plane() ([]byte, int) {
	var stride C.int
	data := C.heif_image_get_plane(i.p, C.heif_channel_interleaved, &stride)
	if data == nil {
		return nil, 0
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), int(stride)*i.height), int(stride)
}

func (i *image) Release() {
	if i.p == nil {
		return
	}
	C.heif_image_release(i.p)
	i.p = nil
}

type encoder struct {
	p *C.struct_heif_encoder
}

func (e *encoder) SetLossyQuality(q int) error {
	return check(C.heif_encoder_set_lossy_quality(e.p, C.int(q)))
}

func (e *encoder) SetLossless(v bool) error {
	return check(C.heif_encoder_set_lossless(e.p, cbool(v)))
}

func (e *encoder) SetInteger(key string, v int) error {
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))
	return check(C.heif_encoder_set_parameter_integer(e.p, ckey, C.int(v)))
}

func (e *encoder) SetString(key, v string) error {
	ckey, cval := C.CString(key), C.CString(v)
	defer C.free(unsafe.Pointer(ckey))
	defer C.free(unsafe.Pointer(cval))
	return check(C.heif_encoder_set_parameter_string(e.p, ckey, cval))
}

func (e *encoder) SetBoolean(key string, v bool) error {
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))
	return check(C.heif_encoder_set_parameter_boolean(e.p, ckey, cbool(v)))
}

func (e *encoder) Release() {
	if e.p == nil {
		return
	}
	C.heif_encoder_release(e.p)
	e.p = nil
}

type context struct {
	p *C.struct_heif_context
	// read-without-copy keeps pointing at this buffer
	input unsafe.Pointer
}

func (c *context) Encoder(comp heif.Compression) (heif.Encoder, error) {
	var p *C.struct_heif_encoder
	if err := check(C.heif_context_get_encoder_for_format(c.p, C.enum_heif_compression_format(comp), &p)); err != nil {
		return nil, err
	}
	return &encoder{p: p}, nil
}

// newNCLX wraps heif_nclx_color_profile_alloc; nil means it failed.
var newNCLX = func() unsafe.Pointer {
	return unsafe.Pointer(C.heif_nclx_color_profile_alloc())
}

func (c *context) Encode(img heif.Image, enc heif.Encoder, opts heif.EncodingOptions) error {
	var nclx *C.struct_heif_color_profile_nclx
	if opts.NCLX != nil {
		nclx = (*C.struct_heif_color_profile_nclx)(newNCLX())
		if nclx == nil {
			// without the matrix a lossless request would not be exact
			return codec.StructError{Code: int(C.heif_error_Memory_allocation_error), Text: "Cannot allocate color profile"}
		}
		defer C.heif_nclx_color_profile_free(nclx)
		nclx.matrix_coefficients = C.enum_heif_matrix_coefficients(opts.NCLX.MatrixCoefficients)
	}
	return check(C.icodec_encode(c.p, img.(*image).p, enc.(*encoder).p, cbool(opts.SharpYUV), nclx))
}

func (c *context) Write() ([]byte, error) {
	var out C.icodec_buffer
	defer func() { C.free(unsafe.Pointer(out.data)) }()
	if err := check(C.icodec_write_memory(c.p, &out)); err != nil {
		return nil, err
	}
	return C.GoBytes(unsafe.Pointer(out.data), C.int(out.size)), nil
}

func (c *context) Read(data []byte) error {
	if len(data) == 0 {
		return codec.StructError{Code: int(C.heif_error_Invalid_input), Text: "empty input"}
	}
	c.input = C.CBytes(data)
	return check(C.heif_context_read_from_memory_without_copy(c.p, c.input, C.size_t(len(data)), nil))
}

func (c *context) PrimaryImage() (heif.ImageHandle, error) {
	var p *C.struct_heif_image_handle
	if err := check(C.heif_context_get_primary_image_handle(c.p, &p)); err != nil {
		return nil, err
	}
	return &handle{p: p}, nil
}

func (c *context) Free() {
	if c.p != nil {
		C.heif_context_free(c.p)
		c.p = nil
	}
	if c.input != nil {
		C.free(c.input)
		c.input = nil
	}
}

type handle struct {
	p *C.struct_heif_image_handle
}

func (h *handle) Width() int        { return int(C.heif_image_handle_get_width(h.p)) }
func (h *handle) Height() int       { return int(C.heif_image_handle_get_height(h.p)) }
func (h *handle) LumaBitDepth() int { return int(C.heif_image_handle_get_luma_bits_per_pixel(h.p)) }

func (h *handle) Decode(deep bool) (heif.Image, error) {
	chroma := C.enum_heif_chroma(C.heif_chroma_interleaved_RGBA)
	if deep {
		chroma = C.heif_chroma_interleaved_RRGGBBAA_LE
	}
	var p *C.struct_heif_image
	if err := check(C.heif_decode_image(h.p, &p, C.heif_colorspace_RGB, chroma, nil)); err != nil {
		return nil, err
	}
	return &image{p: p, height: h.Height()}, nil
}

func (h *handle) Release() {
	if h.p == nil {
		return
	}
	C.heif_image_handle_release(h.p)
	h.p = nil
}

func init() {
	codec.Register(heic.NewCodec(Backend{}))
	codec.Register(vvic.NewCodec(Backend{}))
}
