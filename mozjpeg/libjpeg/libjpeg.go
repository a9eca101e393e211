// Package libjpeg binds the mozjpeg adapter to mozjpeg's libjpeg through cgo.
// Importing it registers the JPEG codec with the codec registry and exposes
// it to go-dicom for the JPEG Baseline 8-bit transfer syntax.
package libjpeg

/*
#cgo pkg-config: libjpeg
#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include <setjmp.h>
#include <jpeglib.h>

typedef struct {
	struct jpeg_error_mgr pub;
	jmp_buf jump;
	char msg[JMSG_LENGTH_MAX];
	int code;
} icodec_err;

static void icodec_error_exit(j_common_ptr cinfo) {
	icodec_err* e = (icodec_err*)cinfo->err;
	e->code = e->pub.msg_code;
	(*cinfo->err->format_message)(cinfo, e->msg);
	longjmp(e->jump, 1);
}

static void icodec_output_message(j_common_ptr cinfo) {}

static void icodec_err_init(icodec_err* e) {
	jpeg_std_error(&e->pub);
	e->pub.error_exit = icodec_error_exit;
	e->pub.output_message = icodec_output_message;
}

static void icodec_oom(icodec_err* e) {
	e->code = -1;
	snprintf(e->msg, sizeof(e->msg), "Insufficient memory");
}

typedef struct {
	struct jpeg_compress_struct cinfo;
	icodec_err err;
	unsigned char* out;
	unsigned long out_size;
} icodec_c;

static icodec_c* icodec_c_new(void) {
	icodec_c* c = (icodec_c*)calloc(1, sizeof(icodec_c));
	if (c == NULL) {
		return NULL;
	}
	icodec_err_init(&c->err);
	c->cinfo.err = &c->err.pub;
	if (setjmp(c->err.jump)) {
		jpeg_destroy_compress(&c->cinfo);
		free(c);
		return NULL;
	}
	jpeg_create_compress(&c->cinfo);
	jpeg_mem_dest(&c->cinfo, &c->out, &c->out_size);
	return c;
}

static void icodec_c_free(icodec_c* c) {
	jpeg_destroy_compress(&c->cinfo);
	free(c->out);
	free(c);
}

static void icodec_c_image(icodec_c* c, int w, int h) {
	c->cinfo.image_width = w;
	c->cinfo.image_height = h;
	c->cinfo.input_components = 4;
	c->cinfo.in_color_space = JCS_EXT_RGBA;
}

static int icodec_c_defaults(icodec_c* c) {
	if (setjmp(c->err.jump)) return 0;
	jpeg_set_defaults(&c->cinfo);
	return 1;
}

static int icodec_c_colorspace(icodec_c* c, int cs) {
	if (setjmp(c->err.jump)) return 0;
	jpeg_set_colorspace(&c->cinfo, (J_COLOR_SPACE)cs);
	return 1;
}

static int icodec_c_int_param(icodec_c* c, int which, int value) {
	static const J_INT_PARAM params[] = {JINT_BASE_QUANT_TBL_IDX, JINT_TRELLIS_NUM_LOOPS, JINT_DC_SCAN_OPT_MODE};
	if (setjmp(c->err.jump)) return 0;
	jpeg_c_set_int_param(&c->cinfo, params[which], value);
	return 1;
}

static int icodec_c_bool_param(icodec_c* c, int which, int value) {
	static const J_BOOLEAN_PARAM params[] = {JBOOLEAN_USE_SCANS_IN_TRELLIS, JBOOLEAN_TRELLIS_EOB_OPT, JBOOLEAN_TRELLIS_Q_OPT};
	if (setjmp(c->err.jump)) return 0;
	jpeg_c_set_bool_param(&c->cinfo, params[which], value ? TRUE : FALSE);
	return 1;
}

static void icodec_c_coding(icodec_c* c, int optimize, int smoothing, int arith) {
	c->cinfo.optimize_coding = optimize ? TRUE : FALSE;
	c->cinfo.smoothing_factor = smoothing;
	c->cinfo.arith_code = arith ? TRUE : FALSE;
}

// icodec_c_quality scales the luma table by luma and every other table by
// chroma.
static int icodec_c_quality(icodec_c* c, int luma, int chroma, int baseline) {
	UINT16 saved[NUM_QUANT_TBLS][DCTSIZE2];
	int t;
	if (setjmp(c->err.jump)) return 0;
	jpeg_set_quality(&c->cinfo, chroma, baseline ? TRUE : FALSE);
	for (t = 1; t < NUM_QUANT_TBLS; t++) {
		if (c->cinfo.quant_tbl_ptrs[t] != NULL) {
			memcpy(saved[t], c->cinfo.quant_tbl_ptrs[t]->quantval, sizeof(saved[t]));
		}
	}
	jpeg_set_quality(&c->cinfo, luma, baseline ? TRUE : FALSE);
	for (t = 1; t < NUM_QUANT_TBLS; t++) {
		if (c->cinfo.quant_tbl_ptrs[t] != NULL) {
			memcpy(c->cinfo.quant_tbl_ptrs[t]->quantval, saved[t], sizeof(saved[t]));
		}
	}
	return 1;
}

static void icodec_c_sampling(icodec_c* c, int h, int v) {
	c->cinfo.comp_info[0].h_samp_factor = h;
	c->cinfo.comp_info[0].v_samp_factor = v;
}

static int icodec_c_progression(icodec_c* c) {
	if (setjmp(c->err.jump)) return 0;
	jpeg_simple_progression(&c->cinfo);
	return 1;
}

static void icodec_c_sequential(icodec_c* c) {
	c->cinfo.num_scans = 0;
	c->cinfo.scan_info = NULL;
}

static int icodec_c_compress(icodec_c* c, unsigned char* rgba, int stride) {
	JSAMPROW row;
	if (setjmp(c->err.jump)) return 0;
	jpeg_start_compress(&c->cinfo, TRUE);
	while (c->cinfo.next_scanline < c->cinfo.image_height) {
		row = rgba + (size_t)c->cinfo.next_scanline * stride;
		jpeg_write_scanlines(&c->cinfo, &row, 1);
	}
	jpeg_finish_compress(&c->cinfo);
	return 1;
}

typedef struct {
	struct jpeg_decompress_struct dinfo;
	icodec_err err;
	unsigned char* in;
	unsigned char* out;
	int stride;
} icodec_d;

static icodec_d* icodec_d_new(void) {
	icodec_d* d = (icodec_d*)calloc(1, sizeof(icodec_d));
	if (d == NULL) {
		return NULL;
	}
	icodec_err_init(&d->err);
	d->dinfo.err = &d->err.pub;
	if (setjmp(d->err.jump)) {
		jpeg_destroy_decompress(&d->dinfo);
		free(d);
		return NULL;
	}
	jpeg_create_decompress(&d->dinfo);
	return d;
}

static void icodec_d_free(icodec_d* d) {
	jpeg_destroy_decompress(&d->dinfo);
	free(d->in);
	free(d->out);
	free(d);
}

// icodec_d_header takes ownership of in.
static int icodec_d_header(icodec_d* d, unsigned char* in, unsigned long size) {
	d->in = in;
	if (setjmp(d->err.jump)) return 0;
	jpeg_mem_src(&d->dinfo, d->in, size);
	jpeg_read_header(&d->dinfo, TRUE);
	d->dinfo.out_color_space = JCS_EXT_RGBA;
	return 1;
}

static int icodec_d_decompress(icodec_d* d) {
	JSAMPROW row;
	if (setjmp(d->err.jump)) return 0;
	jpeg_start_decompress(&d->dinfo);
	d->stride = d->dinfo.output_width * 4;
	d->out = (unsigned char*)malloc((size_t)d->stride * d->dinfo.output_height);
	if (d->out == NULL) {
		icodec_oom(&d->err);
		return 0;
	}
	while (d->dinfo.output_scanline < d->dinfo.output_height) {
		row = d->out + (size_t)d->dinfo.output_scanline * d->stride;
		jpeg_read_scanlines(&d->dinfo, &row, 1);
	}
	jpeg_finish_decompress(&d->dinfo);
	return 1;
}
*/
import "C"

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/dicom"
	"github.com/cocosip/go-icodec/mozjpeg"
)

var _ mozjpeg.Backend = Backend{}

// Backend implements mozjpeg.Backend on libjpeg. Library errors are caught
// with setjmp inside each call and reported with the formatted message.
type Backend struct{}

func lastError(e *C.icodec_err) error {
	return codec.StatusText{Code: int(e.code), Text: C.GoString(&e.msg[0])}
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// NewCompressor wraps jpeg_create_compress with a memory destination
func (Backend) NewCompressor() (mozjpeg.Compressor, error) {
	p := C.icodec_c_new()
	if p == nil {
		return nil, codec.OutOfMemory{}
	}
	return &compressor{p: p}, nil
}

// NewDecompressor wraps jpeg_create_decompress
func (Backend) NewDecompressor() (mozjpeg.Decompressor, error) {
	p := C.icodec_d_new()
	if p == nil {
		return nil, codec.OutOfMemory{}
	}
	return &decompressor{p: p}, nil
}

type compressor struct {
	p *C.icodec_c
}

func (c *compressor) check(ok C.int) error {
	if ok != 0 {
		return nil
	}
	return lastError(&c.p.err)
}

func (c *compressor) SetImage(w, h int) { C.icodec_c_image(c.p, C.int(w), C.int(h)) }

func (c *compressor) SetDefaults() error { return c.check(C.icodec_c_defaults(c.p)) }

func (c *compressor) SetColorspace(cs mozjpeg.ColorSpace) error {
	return c.check(C.icodec_c_colorspace(c.p, C.int(cs)))
}

func (c *compressor) SetIntParam(p mozjpeg.IntParam, v int) error {
	return c.check(C.icodec_c_int_param(c.p, C.int(p), C.int(v)))
}

func (c *compressor) SetBoolParam(p mozjpeg.BoolParam, v bool) error {
	return c.check(C.icodec_c_bool_param(c.p, C.int(p), cbool(v)))
}

func (c *compressor) SetCoding(cd mozjpeg.Coding) {
	C.icodec_c_coding(c.p, cbool(cd.OptimizeCoding), C.int(cd.Smoothing), cbool(cd.Arithmetic))
}

func (c *compressor) SetQualityRatings(ratings string, baseline bool) error {
	var q []int
	for _, s := range strings.Split(ratings, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("bad quality rating %q", s)
		}
		q = append(q, v)
	}
	luma, chroma := q[0], q[len(q)-1]
	return c.check(C.icodec_c_quality(c.p, C.int(luma), C.int(chroma), cbool(baseline)))
}

func (c *compressor) SetLumaSampling(h, v int) { C.icodec_c_sampling(c.p, C.int(h), C.int(v)) }

func (c *compressor) SimpleProgression() error { return c.check(C.icodec_c_progression(c.p)) }

func (c *compressor) ClearScans() { C.icodec_c_sequential(c.p) }

func (c *compressor) Compress(rgba []byte, stride int) ([]byte, error) {
	if err := c.check(C.icodec_c_compress(c.p, (*C.uchar)(&rgba[0]), C.int(stride))); err != nil {
		return nil, err
	}
	return C.GoBytes(unsafe.Pointer(c.p.out), C.int(c.p.out_size)), nil
}

func (c *compressor) Destroy() {
	if c.p == nil {
		return
	}
	C.icodec_c_free(c.p)
	c.p = nil
}

type decompressor struct {
	p *C.icodec_d
}

func (d *decompressor) check(ok C.int) error {
	if ok != 0 {
		return nil
	}
	return lastError(&d.p.err)
}

func (d *decompressor) ReadHeader(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, codec.StatusText{Code: 42, Text: "Empty input file"}
	}
	in := C.CBytes(data)
	if err := d.check(C.icodec_d_header(d.p, (*C.uchar)(in), C.ulong(len(data)))); err != nil {
		return 0, 0, err
	}
	return int(d.p.dinfo.image_width), int(d.p.dinfo.image_height), nil
}

func (d *decompressor) Decompress() ([]byte, int, error) {
	if err := d.check(C.icodec_d_decompress(d.p)); err != nil {
		return nil, 0, err
	}
	n := int(d.p.stride) * int(d.p.dinfo.output_height)
	return unsafe.Slice((*byte)(unsafe.Pointer(d.p.out)), n), int(d.p.stride), nil
}

func (d *decompressor) Destroy() {
	if d.p == nil {
		return
	}
	C.icodec_d_free(d.p)
	d.p = nil
}

func init() {
	c := mozjpeg.NewCodec(Backend{})
	codec.Register(c)
	dicom.Register(c, transfer.JPEGBaseline8Bit,
		dicom.WithOptions(func() codec.Options { return mozjpeg.NewOptions() }))
}
