package avif

import (
	"fmt"
	"strings"

	"github.com/cocosip/go-icodec/codec"
)

// Subsample selects the YUV layout. Values match avifPixelFormat.
type Subsample int

const (
	Subsample444 Subsample = Subsample(PixelFormatYUV444)
	Subsample422 Subsample = Subsample(PixelFormatYUV422)
	Subsample420 Subsample = Subsample(PixelFormatYUV420)
	Subsample400 Subsample = Subsample(PixelFormatYUV400)
)

func (s Subsample) String() string {
	switch s {
	case Subsample444:
		return "444"
	case Subsample422:
		return "422"
	case Subsample420:
		return "420"
	case Subsample400:
		return "400"
	}
	return fmt.Sprintf("Subsample(%d)", int(s))
}

// UnmarshalText accepts "444", "422", "420" or "400".
func (s *Subsample) UnmarshalText(text []byte) error {
	for _, v := range []Subsample{Subsample444, Subsample422, Subsample420, Subsample400} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown subsample %q", text)
}

// Tune selects the libaom distortion metric.
type Tune int

const (
	TuneAuto Tune = iota
	TunePSNR
	TuneSSIM
)

var tuneNames = []string{"auto", "psnr", "ssim"}

func (t Tune) String() string {
	if t >= 0 && int(t) < len(tuneNames) {
		return tuneNames[t]
	}
	return fmt.Sprintf("Tune(%d)", int(t))
}

// UnmarshalText accepts "auto", "psnr" or "ssim".
func (t *Tune) UnmarshalText(text []byte) error {
	for i, n := range tuneNames {
		if strings.EqualFold(n, string(text)) {
			*t = Tune(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tune %q", text)
}

// Options contains encoding options for AVIF
type Options struct {
	codec.BaseOptions

	// QualityAlpha of -1 copies Quality
	QualityAlpha int       `json:"qualityAlpha" validate:"min=-1,max=100"`
	AutoTiling   bool      `json:"autoTiling"`
	TileRowsLog2 int       `json:"tileRowsLog2" validate:"min=0,max=6"`
	TileColsLog2 int       `json:"tileColsLog2" validate:"min=0,max=6"`
	Speed        int       `json:"speed" validate:"min=0,max=10"`
	Subsample    Subsample `json:"subsample" validate:"min=1,max=4"`
	ChromaDeltaQ bool      `json:"chromaDeltaQ"`
	Sharpness    int       `json:"sharpness" validate:"min=0,max=7"`
	Tune         Tune      `json:"tune" validate:"min=0,max=2"`
	DenoiseLevel int       `json:"denoiseLevel" validate:"min=0,max=50"`
	SharpYUV     bool      `json:"sharpYUV"`
}

// NewOptions returns the default options
func NewOptions() *Options {
	return &Options{
		BaseOptions:  codec.BaseOptions{Quality: 50},
		QualityAlpha: -1,
		Speed:        6,
		Subsample:    Subsample444,
		Tune:         TuneAuto,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	return codec.ValidateOptions(name, o)
}

// resolved returns a copy with the alpha sentinel replaced.
func (o *Options) resolved() Options {
	r := *o
	if r.QualityAlpha == -1 {
		r.QualityAlpha = r.Quality
	}
	return r
}

// lossless reports whether the options ask for exact reconstruction, which
// needs the identity matrix.
func (o *Options) lossless() bool {
	return o.Quality == 100 && o.QualityAlpha == 100 && o.Subsample == Subsample444
}

// tuneSSIM reports whether libaom should tune for SSIM.
func (o *Options) tuneSSIM() bool {
	return o.Tune == TuneSSIM || (o.Tune == TuneAuto && o.Quality >= 50)
}
