package jxl

import (
	"fmt"

	"github.com/cocosip/go-icodec/codec"
	"github.com/cocosip/go-icodec/internal/param"
)

// Options contains encoding options for JPEG XL. Integer fields use -1 for
// "let the encoder decide".
type Options struct {
	Lossless bool    `json:"lossless"`
	Quality  float32 `json:"quality" validate:"min=0,max=100"`
	// AlphaQuality of -1 copies Quality
	AlphaQuality      float32 `json:"alphaQuality" validate:"min=-1,max=100"`
	Effort            int     `json:"effort" validate:"min=1,max=10"`
	BrotliEffort      int     `json:"brotliEffort" validate:"min=-1,max=11"`
	EPF               int     `json:"epf" validate:"min=-1,max=3"`
	Gaborish          int     `json:"gaborish" validate:"min=-1,max=1"`
	DecodingSpeed     int     `json:"decodingSpeed" validate:"min=0,max=4"`
	PhotonNoiseISO    float32 `json:"photonNoiseIso" validate:"min=0"`
	Responsive        int     `json:"responsive" validate:"min=-1,max=1"`
	ProgressiveDC     int     `json:"progressiveDC" validate:"min=-1,max=2"`
	ProgressiveAC     int     `json:"progressiveAC" validate:"min=-1,max=1"`
	QProgressiveAC    int     `json:"qProgressiveAC" validate:"min=-1,max=1"`
	Modular           bool    `json:"modular"`
	LossyPalette      bool    `json:"lossyPalette"`
	PaletteColors     int     `json:"paletteColors" validate:"min=-1,max=70913"`
	Iterations        float32 `json:"iterations" validate:"min=-1,max=100"`
	ModularColorspace int     `json:"modularColorspace" validate:"min=-1,max=41"`
	ModularPredictor  int     `json:"modularPredictor" validate:"min=-1,max=15"`
}

// NewOptions returns the default options
func NewOptions() *Options {
	return &Options{
		Quality:           75,
		AlphaQuality:      -1,
		Effort:            7,
		BrotliEffort:      -1,
		EPF:               -1,
		Gaborish:          -1,
		Responsive:        -1,
		ProgressiveDC:     -1,
		ProgressiveAC:     -1,
		QProgressiveAC:    -1,
		PaletteColors:     -1,
		Iterations:        -1,
		ModularColorspace: -1,
		ModularPredictor:  -1,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	return codec.ValidateOptions(name, o)
}

func (o *Options) alphaQuality() float32 {
	if o.AlphaQuality < 0 {
		return o.Quality
	}
	return o.AlphaQuality
}

// frameOption is one JxlEncoderFrameSettingsSet(Float)Option call.
type frameOption struct {
	id    FrameSetting
	value any
}

func (f frameOption) String() string { return fmt.Sprint(f.value) }

func tristate(b bool, unset int) int {
	if b {
		return 1
	}
	return unset
}

// frameOptions lists the frame settings in the order they are applied.
// Modular off means "encoder's choice" so lossless can still pick modular.
func frameOptions(o *Options) param.List[frameOption] {
	var l param.List[frameOption]
	l.Add("photonNoiseIso", frameOption{SettingPhotonNoise, o.PhotonNoiseISO})
	l.Add("effort", frameOption{SettingEffort, o.Effort})
	l.Add("brotliEffort", frameOption{SettingBrotliEffort, o.BrotliEffort})
	l.Add("epf", frameOption{SettingEPF, o.EPF})
	l.Add("gaborish", frameOption{SettingGaborish, o.Gaborish})
	l.Add("decodingSpeed", frameOption{SettingDecodingSpeed, o.DecodingSpeed})
	l.Add("responsive", frameOption{SettingResponsive, o.Responsive})
	l.Add("progressiveDC", frameOption{SettingProgressiveDC, o.ProgressiveDC})
	l.Add("progressiveAC", frameOption{SettingProgressiveAC, o.ProgressiveAC})
	l.Add("qProgressiveAC", frameOption{SettingQProgressiveAC, o.QProgressiveAC})
	l.Add("modular", frameOption{SettingModular, tristate(o.Modular, -1)})
	l.Add("paletteColors", frameOption{SettingPaletteColors, o.PaletteColors})
	l.Add("lossyPalette", frameOption{SettingLossyPalette, tristate(o.LossyPalette, 0)})
	l.Add("modularColorspace", frameOption{SettingModularColorSpace, o.ModularColorspace})
	l.Add("modularPredictor", frameOption{SettingModularPredictor, o.ModularPredictor})
	l.Add("iterations", frameOption{SettingMATreeLearningPercent, o.Iterations})
	return l
}

func applyTo(fs FrameSettings) func(string, frameOption) error {
	return func(_ string, f frameOption) error {
		switch v := f.value.(type) {
		case int:
			return fs.SetOption(f.id, v)
		case float32:
			return fs.SetFloatOption(f.id, v)
		}
		return fmt.Errorf("unsupported value type %T", f.value)
	}
}

// DistanceFromQuality maps a 0..100 quality onto a butteraugli distance the
// same way JxlEncoderDistanceFromQuality does.
func DistanceFromQuality(quality float32) float32 {
	switch {
	case quality >= 100:
		return 0
	case quality >= 30:
		return 0.1 + (100-quality)*0.09
	}
	return 53.0/3000.0*quality*quality - 23.0/20.0*quality + 25.0
}
