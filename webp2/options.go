package webp2

import (
	"fmt"

	"github.com/cocosip/go-icodec/codec"
)

// UVMode matches WP2::EncoderConfig::UVMode.
type UVMode int

const (
	UVModeAdapt UVMode = iota
	UVMode420
	UVMode444
	UVModeAuto
)

var uvModeNames = []string{"adapt", "420", "444", "auto"}

func (m UVMode) String() string {
	if m >= 0 && int(m) < len(uvModeNames) {
		return uvModeNames[m]
	}
	return fmt.Sprintf("UVMode(%d)", int(m))
}

// UnmarshalText accepts "adapt", "420", "444" or "auto".
func (m *UVMode) UnmarshalText(text []byte) error {
	for i, n := range uvModeNames {
		if n == string(text) {
			*m = UVMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown uv mode %q", text)
}

// ColorSpace matches WP2::Csp.
type ColorSpace int

const (
	CspYCoCg ColorSpace = iota
	CspYCbCr
	CspCustom
	CspYIQ
)

var cspNames = []string{"ycocg", "ycbcr", "custom", "yiq"}

func (c ColorSpace) String() string {
	if c >= 0 && int(c) < len(cspNames) {
		return cspNames[c]
	}
	return fmt.Sprintf("ColorSpace(%d)", int(c))
}

// UnmarshalText accepts "ycocg", "ycbcr", "custom" or "yiq".
func (c *ColorSpace) UnmarshalText(text []byte) error {
	for i, n := range cspNames {
		if n == string(text) {
			*c = ColorSpace(i)
			return nil
		}
	}
	return fmt.Errorf("unknown color space %q", text)
}

// Options contains encoding options for WebP2
type Options struct {
	Quality float32 `json:"quality" validate:"min=0,max=100"`
	// AlphaQuality of -1 copies Quality
	AlphaQuality    float32    `json:"alphaQuality" validate:"min=-1,max=100"`
	Effort          int        `json:"effort" validate:"min=0,max=9"`
	Pass            int        `json:"pass" validate:"min=1,max=10"`
	UVMode          UVMode     `json:"uvMode" validate:"min=0,max=3"`
	SNS             float32    `json:"sns" validate:"min=0,max=100"`
	CspType         ColorSpace `json:"cspType" validate:"min=0,max=3"`
	ErrorDiffusion  int        `json:"errorDiffusion" validate:"min=0,max=100"`
	UseRandomMatrix bool       `json:"useRandomMatrix"`
}

// NewOptions returns the default options
func NewOptions() *Options {
	return &Options{
		Quality:      75,
		AlphaQuality: -1,
		Effort:       5,
		Pass:         1,
		UVMode:       UVModeAuto,
		SNS:          50,
		CspType:      CspYCoCg,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	return codec.ValidateOptions(name, o)
}

func (o *Options) alphaQuality() float32 {
	if o.AlphaQuality == -1 {
		return o.Quality
	}
	return o.AlphaQuality
}

// exact reports whether the encoder must keep unmultiplied samples so that
// color under transparent pixels survives.
func (o *Options) exact() bool {
	return o.Quality == 100 && o.alphaQuality() == 100
}

func (o *Options) config() EncoderConfig {
	return EncoderConfig{
		Quality:          o.Quality,
		AlphaQuality:     o.alphaQuality(),
		Effort:           o.Effort,
		Pass:             o.Pass,
		UVMode:           o.UVMode,
		SNS:              o.SNS,
		CSP:              o.CspType,
		ErrorDiffusion:   o.ErrorDiffusion,
		UseRandomMatrix:  o.UseRandomMatrix,
		KeepUnmultiplied: o.exact(),
		ThreadLevel:      0,
	}
}
