// Package libjxl binds the jxl adapter to libjxl through cgo. Importing it
// registers a ready JPEG XL codec with the codec registry.
package libjxl

/*
#cgo pkg-config: libjxl
#include <stdlib.h>
#include <jxl/encode.h>
#include <jxl/decode.h>

static JxlEncoderStatus icodec_process_output(JxlEncoder* enc, uint8_t* out, size_t avail, size_t* written) {
	uint8_t* next = out;
	size_t left = avail;
	JxlEncoderStatus st = JxlEncoderProcessOutput(enc, &next, &left);
	*written = avail - left;
	return st;
}

static void icodec_pixel_format(JxlPixelFormat* f, int deep) {
	f->num_channels = 4;
	f->data_type = deep ? JXL_TYPE_UINT16 : JXL_TYPE_UINT8;
	f->endianness = JXL_LITTLE_ENDIAN;
	f->align = 0;
}
*/
import "C"

import (
	"unsafe"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/jxl"
)

var _ jxl.Backend = Backend{}

var settingIDs = map[jxl.FrameSetting]C.JxlEncoderFrameSettingId{
	jxl.SettingEffort:                C.JXL_ENC_FRAME_SETTING_EFFORT,
	jxl.SettingDecodingSpeed:         C.JXL_ENC_FRAME_SETTING_DECODING_SPEED,
	jxl.SettingPhotonNoise:           C.JXL_ENC_FRAME_SETTING_PHOTON_NOISE,
	jxl.SettingEPF:                   C.JXL_ENC_FRAME_SETTING_EPF,
	jxl.SettingGaborish:              C.JXL_ENC_FRAME_SETTING_GABORISH,
	jxl.SettingModular:               C.JXL_ENC_FRAME_SETTING_MODULAR,
	jxl.SettingResponsive:            C.JXL_ENC_FRAME_SETTING_RESPONSIVE,
	jxl.SettingProgressiveAC:         C.JXL_ENC_FRAME_SETTING_PROGRESSIVE_AC,
	jxl.SettingQProgressiveAC:        C.JXL_ENC_FRAME_SETTING_QPROGRESSIVE_AC,
	jxl.SettingProgressiveDC:         C.JXL_ENC_FRAME_SETTING_PROGRESSIVE_DC,
	jxl.SettingPaletteColors:         C.JXL_ENC_FRAME_SETTING_PALETTE_COLORS,
	jxl.SettingLossyPalette:          C.JXL_ENC_FRAME_SETTING_LOSSY_PALETTE,
	jxl.SettingModularColorSpace:     C.JXL_ENC_FRAME_SETTING_MODULAR_COLOR_SPACE,
	jxl.SettingModularPredictor:      C.JXL_ENC_FRAME_SETTING_MODULAR_PREDICTOR,
	jxl.SettingMATreeLearningPercent: C.JXL_ENC_FRAME_SETTING_MODULAR_MA_TREE_LEARNING_PERCENT,
	jxl.SettingBrotliEffort:          C.JXL_ENC_FRAME_SETTING_BROTLI_EFFORT,
}

// Backend implements jxl.Backend on libjxl. No parallel runner is attached,
// so every call runs on the calling thread.
type Backend struct{}

func encStatus(st C.JxlEncoderStatus, call string) error {
	if st == C.JXL_ENC_SUCCESS {
		return nil
	}
	return codec.FailedCall(call)
}

func cint(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func jxlBool(b bool) C.JXL_BOOL {
	if b {
		return C.JXL_TRUE
	}
	return C.JXL_FALSE
}

// NewEncoder wraps JxlEncoderCreate
func (Backend) NewEncoder() jxl.Encoder {
	p := C.JxlEncoderCreate(nil)
	if p == nil {
		return nil
	}
	C.JxlEncoderAllowExpertOptions(p)
	return &encoder{p: p}
}

// NewDecoder wraps JxlDecoderCreate
func (Backend) NewDecoder() jxl.Decoder {
	p := C.JxlDecoderCreate(nil)
	if p == nil {
		return nil
	}
	if C.JxlDecoderSubscribeEvents(p, C.int(C.JXL_DEC_BASIC_INFO|C.JXL_DEC_FULL_IMAGE)) != C.JXL_DEC_SUCCESS {
		C.JxlDecoderDestroy(p)
		return nil
	}
	return &decoder{p: p}
}

type encoder struct {
	p *C.JxlEncoder
}

func (e *encoder) SetBasicInfo(info jxl.BasicInfo) error {
	var bi C.JxlBasicInfo
	C.JxlEncoderInitBasicInfo(&bi)
	bi.xsize = C.uint32_t(info.Width)
	bi.ysize = C.uint32_t(info.Height)
	bi.bits_per_sample = C.uint32_t(info.BitsPerSample)
	bi.alpha_bits = C.uint32_t(info.AlphaBits)
	bi.num_extra_channels = C.uint32_t(info.ExtraChannels)
	bi.uses_original_profile = jxlBool(info.UsesOriginalProfile)
	return encStatus(C.JxlEncoderSetBasicInfo(e.p, &bi), "JxlEncoderSetBasicInfo")
}

func (e *encoder) SetColorEncodingSRGB() error {
	var ce C.JxlColorEncoding
	C.JxlColorEncodingSetToSRGB(&ce, C.JXL_FALSE)
	return encStatus(C.JxlEncoderSetColorEncoding(e.p, &ce), "JxlEncoderSetColorEncoding")
}

func (e *encoder) NewFrameSettings() jxl.FrameSettings {
	fs := C.JxlEncoderFrameSettingsCreate(e.p, nil)
	if fs == nil {
		return nil
	}
	return &frameSettings{p: fs}
}

func (e *encoder) AddImageFrame(fs jxl.FrameSettings, pixels []byte) error {
	var format C.JxlPixelFormat
	C.icodec_pixel_format(&format, 0)
	st := C.JxlEncoderAddImageFrame(fs.(*frameSettings).p, &format, unsafe.Pointer(&pixels[0]), C.size_t(len(pixels)))
	return encStatus(st, "JxlEncoderAddImageFrame")
}

func (e *encoder) CloseInput() { C.JxlEncoderCloseInput(e.p) }

func (e *encoder) ProcessOutput(out []byte) (int, bool, error) {
	if len(out) == 0 {
		return 0, true, nil
	}
	var written C.size_t
	st := C.icodec_process_output(e.p, (*C.uint8_t)(&out[0]), C.size_t(len(out)), &written)
	switch st {
	case C.JXL_ENC_SUCCESS:
		return int(written), false, nil
	case C.JXL_ENC_NEED_MORE_OUTPUT:
		return int(written), true, nil
	}
	return int(written), false, codec.FailedCall("JxlEncoderProcessOutput")
}

func (e *encoder) Destroy() {
	if e.p == nil {
		return
	}
	C.JxlEncoderDestroy(e.p)
	e.p = nil
}

// frameSettings are freed with their encoder.
type frameSettings struct {
	p *C.JxlEncoderFrameSettings
}

func (f *frameSettings) SetLossless(v bool) error {
	return encStatus(C.JxlEncoderSetFrameLossless(f.p, jxlBool(v)), "JxlEncoderSetFrameLossless")
}

func (f *frameSettings) SetDistance(d float32) error {
	return encStatus(C.JxlEncoderSetFrameDistance(f.p, C.float(d)), "JxlEncoderSetFrameDistance")
}

func (f *frameSettings) SetExtraChannelDistance(index int, d float32) error {
	return encStatus(C.JxlEncoderSetExtraChannelDistance(f.p, C.size_t(index), C.float(d)), "JxlEncoderSetExtraChannelDistance")
}

func (f *frameSettings) SetOption(id jxl.FrameSetting, v int) error {
	return encStatus(C.JxlEncoderFrameSettingsSetOption(f.p, settingIDs[id], C.int64_t(v)), "JxlEncoderFrameSettingsSetOption")
}

func (f *frameSettings) SetFloatOption(id jxl.FrameSetting, v float32) error {
	return encStatus(C.JxlEncoderFrameSettingsSetFloatOption(f.p, settingIDs[id], C.float(v)), "JxlEncoderFrameSettingsSetFloatOption")
}

type decoder struct {
	p     *C.JxlDecoder
	input unsafe.Pointer
	out   unsafe.Pointer
	info  C.JxlBasicInfo
}

func (d *decoder) SetInput(data []byte) error {
	if len(data) == 0 {
		return codec.FailedCall("JxlDecoderSetInput")
	}
	// the decoder reads from this copy until it is destroyed
	d.input = C.CBytes(data)
	if C.JxlDecoderSetInput(d.p, (*C.uint8_t)(d.input), C.size_t(len(data))) != C.JXL_DEC_SUCCESS {
		return codec.FailedCall("JxlDecoderSetInput")
	}
	C.JxlDecoderCloseInput(d.p)
	return nil
}

func (d *decoder) ProcessInput() jxl.Status {
	switch C.JxlDecoderProcessInput(d.p) {
	case C.JXL_DEC_SUCCESS:
		return jxl.StatusSuccess
	case C.JXL_DEC_NEED_MORE_INPUT:
		return jxl.StatusNeedMoreInput
	case C.JXL_DEC_BASIC_INFO:
		return jxl.StatusBasicInfo
	case C.JXL_DEC_NEED_IMAGE_OUT_BUFFER:
		return jxl.StatusNeedImageOutBuffer
	case C.JXL_DEC_FULL_IMAGE:
		return jxl.StatusFullImage
	}
	return jxl.StatusError
}

func (d *decoder) BasicInfo() (jxl.BasicInfo, error) {
	if C.JxlDecoderGetBasicInfo(d.p, &d.info) != C.JXL_DEC_SUCCESS {
		return jxl.BasicInfo{}, codec.FailedCall("JxlDecoderGetBasicInfo")
	}
	return jxl.BasicInfo{
		Width:               int(d.info.xsize),
		Height:              int(d.info.ysize),
		BitsPerSample:       int(d.info.bits_per_sample),
		AlphaBits:           int(d.info.alpha_bits),
		ExtraChannels:       int(d.info.num_extra_channels),
		UsesOriginalProfile: d.info.uses_original_profile != C.JXL_FALSE,
	}, nil
}

func (d *decoder) SetOutBuffer(deep bool) ([]byte, error) {
	var format C.JxlPixelFormat
	C.icodec_pixel_format(&format, cint(deep))
	var size C.size_t
	if C.JxlDecoderImageOutBufferSize(d.p, &format, &size) != C.JXL_DEC_SUCCESS {
		return nil, codec.FailedCall("JxlDecoderImageOutBufferSize")
	}
	d.out = C.malloc(size)
	if d.out == nil {
		return nil, codec.OutOfMemory{}
	}
	if C.JxlDecoderSetImageOutBuffer(d.p, &format, d.out, size) != C.JXL_DEC_SUCCESS {
		return nil, codec.FailedCall("JxlDecoderSetImageOutBuffer")
	}
	return unsafe.Slice((*byte)(d.out), int(size)), nil
}

func (d *decoder) Destroy() {
	if d.p != nil {
		C.JxlDecoderDestroy(d.p)
		d.p = nil
	}
	if d.input != nil {
		C.free(d.input)
		d.input = nil
	}
	if d.out != nil {
		C.free(d.out)
		d.out = nil
	}
}

func init() {
	codec.Register(jxl.NewCodec(Backend{}))
}
