package mozjpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/param"
)

// ColorSpace is the J_COLOR_SPACE written to the file.
type ColorSpace int

const (
	Grayscale ColorSpace = 1
	RGB       ColorSpace = 2
	YCbCr     ColorSpace = 3
)

func (c ColorSpace) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case RGB:
		return "rgb"
	case YCbCr:
		return "ycbcr"
	}
	return fmt.Sprintf("ColorSpace(%d)", int(c))
}

// UnmarshalText accepts "grayscale", "rgb" or "ycbcr".
func (c *ColorSpace) UnmarshalText(text []byte) error {
	for _, v := range []ColorSpace{Grayscale, RGB, YCbCr} {
		if strings.EqualFold(v.String(), string(text)) {
			*c = v
			return nil
		}
	}
	return fmt.Errorf("unknown color space %q", text)
}

// Options contains encoding options for MozJPEG
type Options struct {
	codec.BaseOptions

	// Baseline forces baseline-compatible quantization tables and disables
	// progressive mode.
	Baseline       bool       `json:"baseline"`
	Arithmetic     bool       `json:"arithmetic"`
	Progressive    bool       `json:"progressive"`
	OptimizeCoding bool       `json:"optimizeCoding"`
	Smoothing      int        `json:"smoothing" validate:"min=0,max=100"`
	ColorSpace     ColorSpace `json:"colorSpace" validate:"min=1,max=3"`
	// QuantTable selects a base quantization table; -1 keeps the library's.
	QuantTable       int  `json:"quantTable" validate:"min=-1,max=8"`
	TrellisMultipass bool `json:"trellisMultipass"`
	TrellisOptZero   bool `json:"trellisOptZero"`
	TrellisOptTable  bool `json:"trellisOptTable"`
	TrellisLoops     int  `json:"trellisLoops" validate:"min=1,max=50"`
	// AutoSubsample leaves chroma sampling to the library; otherwise
	// ChromaSubsample applies (YCbCr only).
	AutoSubsample         bool `json:"autoSubsample"`
	ChromaSubsample       int  `json:"chromaSubsample" validate:"min=1,max=4"`
	SeparateChromaQuality bool `json:"separateChromaQuality"`
	ChromaQuality         int  `json:"chromaQuality" validate:"min=0,max=100"`
}

// NewOptions returns the default options
func NewOptions() *Options {
	return &Options{
		BaseOptions:     codec.BaseOptions{Quality: 75},
		Progressive:     true,
		OptimizeCoding:  true,
		ColorSpace:      YCbCr,
		QuantTable:      3,
		TrellisLoops:    1,
		AutoSubsample:   true,
		ChromaSubsample: 2,
		ChromaQuality:   75,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	return codec.ValidateOptions(name, o)
}

// QualityRatings builds the per-table quality string: the luma quality, and
// the chroma quality when it is kept separate for YCbCr output.
func (o *Options) QualityRatings() string {
	q := strconv.Itoa(o.Quality)
	if o.SeparateChromaQuality && o.ColorSpace == YCbCr {
		q += "," + strconv.Itoa(o.ChromaQuality)
	}
	return q
}

func (o *Options) manualSubsample() bool {
	return !o.AutoSubsample && o.ColorSpace == YCbCr
}

func (o *Options) coding() Coding {
	c := Coding{OptimizeCoding: o.OptimizeCoding, Smoothing: o.Smoothing}
	if o.Arithmetic {
		// arithmetic coding has no Huffman tables to optimize
		c.Arithmetic, c.OptimizeCoding = true, false
	}
	return c
}

type intSetting struct {
	p IntParam
	v int
}

func (s intSetting) String() string { return strconv.Itoa(s.v) }

type boolSetting struct {
	p BoolParam
	v bool
}

func (s boolSetting) String() string { return strconv.FormatBool(s.v) }

// tuning lists the extension parameters set before quality ratings.
func tuning(o *Options) param.List[any] {
	var l param.List[any]
	l.AddIf(o.QuantTable != -1, "quantTable", intSetting{BaseQuantTblIdx, o.QuantTable})
	l.Add("trellisLoops", intSetting{TrellisNumLoops, o.TrellisLoops})
	l.Add("dcScanOptMode", intSetting{DCScanOptMode, 0})
	l.Add("trellisMultipass", boolSetting{UseScansInTrellis, o.TrellisMultipass})
	l.Add("trellisOptZero", boolSetting{TrellisEOBOpt, o.TrellisOptZero})
	l.Add("trellisOptTable", boolSetting{TrellisQOpt, o.TrellisOptTable})
	return l
}

func applyTo(c Compressor) func(string, any) error {
	return func(_ string, s any) error {
		switch s := s.(type) {
		case intSetting:
			return c.SetIntParam(s.p, s.v)
		case boolSetting:
			return c.SetBoolParam(s.p, s.v)
		}
		return fmt.Errorf("unsupported setting %T", s)
	}
}
