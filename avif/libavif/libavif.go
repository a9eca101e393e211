// Package libavif binds the avif adapter to libavif through cgo. Importing it
// registers a ready AVIF codec with the codec registry.
package libavif

/*
#cgo pkg-config: libavif
#include <stdlib.h>
#include <avif/avif.h>
*/
import "C"

import (
	"unsafe"

	"github.com/cocosip/go-icodec/avif"
	"github.com/cocosip/go-icodec/codec"
)

var _ avif.Backend = Backend{}

// Backend implements avif.Backend on libavif.
type Backend struct{}

func status(res C.avifResult) error {
	if res == C.AVIF_RESULT_OK {
		return nil
	}
	return codec.StatusText{Code: int(res), Text: C.GoString(C.avifResultToString(res))}
}

func cbool(b bool) C.avifBool {
	if b {
		return C.AVIF_TRUE
	}
	return C.AVIF_FALSE
}

// NewImage wraps avifImageCreate
func (Backend) NewImage(width, height, depth int, format avif.PixelFormat) avif.Image {
	p := C.avifImageCreate(C.uint32_t(width), C.uint32_t(height), C.uint32_t(depth), C.avifPixelFormat(format))
	if p == nil {
		return nil
	}
	return &image{p: p}
}

// NewEncoder wraps avifEncoderCreate
func (Backend) NewEncoder() avif.Encoder {
	p := C.avifEncoderCreate()
	if p == nil {
		return nil
	}
	return &encoder{p: p}
}

// NewDecoder wraps avifDecoderCreate
func (Backend) NewDecoder() avif.Decoder {
	p := C.avifDecoderCreate()
	if p == nil {
		return nil
	}
	return &decoder{p: p}
}

type image struct {
	p *C.avifImage
	// decoder images belong to their decoder
	borrowed bool
}

func (i *image) Width() int  { return int(i.p.width) }
func (i *image) Height() int { return int(i.p.height) }
func (i *image) Depth() int  { return int(i.p.depth) }

func (i *image) SetMatrixCoefficients(mc avif.MatrixCoefficients) {
	i.p.matrixCoefficients = C.avifMatrixCoefficients(mc)
}

func (i *image) NewRGB(depth int, sharpYUV bool) (avif.RGBImage, error) {
	rgb := (*C.avifRGBImage)(C.malloc(C.size_t(unsafe.Sizeof(C.avifRGBImage{}))))
	if rgb == nil {
		return nil, codec.OutOfMemory{}
	}
	C.avifRGBImageSetDefaults(rgb, i.p)
	rgb.format = C.AVIF_RGB_FORMAT_RGBA
	rgb.depth = C.uint32_t(depth)
	if sharpYUV {
		rgb.chromaDownsampling = C.AVIF_CHROMA_DOWNSAMPLING_SHARP_YUV
	}
	if err := status(C.avifRGBImageAllocatePixels(rgb)); err != nil {
		C.free(unsafe.Pointer(rgb))
		return nil, err
	}
	return &rgbImage{p: rgb}, nil
}

func (i *image) FromRGB(rgb avif.RGBImage) error {
	return status(C.avifImageRGBToYUV(i.p, rgb.(*rgbImage).p))
}

func (i *image) ToRGB(rgb avif.RGBImage) error {
	return status(C.avifImageYUVToRGB(i.p, rgb.(*rgbImage).p))
}

func (i *image) Destroy() {
	if i.borrowed || i.p == nil {
		return
	}
	C.avifImageDestroy(i.p)
	i.p = nil
}

type rgbImage struct {
	p *C.avifRGBImage
}

func (r *rgbImage) Pixels() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r.p.pixels)), int(r.p.rowBytes)*int(r.p.height))
}

func (r *rgbImage) RowBytes() int { return int(r.p.rowBytes) }

func (r *rgbImage) Free() {
	if r.p == nil {
		return
	}
	C.avifRGBImageFreePixels(r.p)
	C.free(unsafe.Pointer(r.p))
	r.p = nil
}

type encoder struct {
	p *C.avifEncoder
}

func (e *encoder) Configure(cfg avif.EncoderConfig) {
	e.p.quality = C.int(cfg.Quality)
	e.p.qualityAlpha = C.int(cfg.QualityAlpha)
	e.p.speed = C.int(cfg.Speed)
	e.p.maxThreads = C.int(cfg.MaxThreads)
	e.p.autoTiling = cbool(cfg.AutoTiling)
	e.p.tileRowsLog2 = C.int(cfg.TileRowsLog2)
	e.p.tileColsLog2 = C.int(cfg.TileColsLog2)
}

func (e *encoder) SetCodecOption(key, value string) error {
	ckey, cval := C.CString(key), C.CString(value)
	defer C.free(unsafe.Pointer(ckey))
	defer C.free(unsafe.Pointer(cval))
	return status(C.avifEncoderSetCodecSpecificOption(e.p, ckey, cval))
}

func (e *encoder) Write(img avif.Image) ([]byte, error) {
	var out C.avifRWData
	defer C.avifRWDataFree(&out)
	if err := status(C.avifEncoderWrite(e.p, img.(*image).p, &out)); err != nil {
		return nil, err
	}
	return C.GoBytes(unsafe.Pointer(out.data), C.int(out.size)), nil
}

func (e *encoder) Destroy() {
	if e.p == nil {
		return
	}
	C.avifEncoderDestroy(e.p)
	e.p = nil
}

type decoder struct {
	p     *C.avifDecoder
	input unsafe.Pointer
}

func (d *decoder) SetMaxThreads(n int) { d.p.maxThreads = C.int(n) }

func (d *decoder) Parse(data []byte) error {
	if len(data) == 0 {
		return status(C.AVIF_RESULT_TRUNCATED_DATA)
	}
	// the decoder reads from this copy until it is destroyed
	d.input = C.CBytes(data)
	if err := status(C.avifDecoderSetIOMemory(d.p, (*C.uint8_t)(d.input), C.size_t(len(data)))); err != nil {
		return err
	}
	return status(C.avifDecoderParse(d.p))
}

func (d *decoder) NextImage() (avif.Image, error) {
	if err := status(C.avifDecoderNextImage(d.p)); err != nil {
		return nil, err
	}
	return &image{p: d.p.image, borrowed: true}, nil
}

func (d *decoder) Destroy() {
	if d.p != nil {
		C.avifDecoderDestroy(d.p)
		d.p = nil
	}
	if d.input != nil {
		C.free(d.input)
		d.input = nil
	}
}

func init() {
	codec.Register(avif.NewCodec(Backend{}))
}
