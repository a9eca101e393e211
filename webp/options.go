package webp

import (
	"fmt"
	"strings"

	gowebp "github.com/deepteams/webp"

	"github.com/cocosip/go-icodec/codec"
)

// ImageHint mirrors libwebp's WebPImageHint.
type ImageHint int

const (
	HintDefault ImageHint = iota
	HintPicture
	HintPhoto
	HintGraph
)

var hintNames = []string{"default", "picture", "photo", "graph"}

func (h ImageHint) String() string {
	if h >= 0 && int(h) < len(hintNames) {
		return hintNames[h]
	}
	return fmt.Sprintf("ImageHint(%d)", int(h))
}

// UnmarshalText accepts the lowercase hint name.
func (h *ImageHint) UnmarshalText(text []byte) error {
	for i, n := range hintNames {
		if strings.EqualFold(n, string(text)) {
			*h = ImageHint(i)
			return nil
		}
	}
	return fmt.Errorf("unknown image hint %q", text)
}

// preset picks the encoder preset matching the hint.
func (h ImageHint) preset() gowebp.Preset {
	switch h {
	case HintPicture:
		return gowebp.PresetPicture
	case HintPhoto:
		return gowebp.PresetPhoto
	case HintGraph:
		return gowebp.PresetDrawing
	default:
		return gowebp.PresetDefault
	}
}

// Options contains encoding options for WebP. Field names and defaults follow
// libwebp's WebPConfig.
type Options struct {
	codec.BaseOptions

	Lossless         bool      `json:"lossless"`
	Method           int       `json:"method" validate:"min=0,max=6"`
	ImageHint        ImageHint `json:"imageHint" validate:"min=0,max=3"`
	TargetSize       int       `json:"targetSize" validate:"min=0"`
	TargetPSNR       float32   `json:"targetPSNR" validate:"min=0"`
	Segments         int       `json:"segments" validate:"min=1,max=4"`
	SNSStrength      int       `json:"snsStrength" validate:"min=0,max=100"`
	FilterStrength   int       `json:"filterStrength" validate:"min=0,max=100"`
	FilterSharpness  int       `json:"filterSharpness" validate:"min=0,max=7"`
	FilterType       int       `json:"filterType" validate:"min=0,max=1"`
	Autofilter       bool      `json:"autofilter"`
	AlphaCompression int       `json:"alphaCompression" validate:"min=0,max=1"`
	AlphaFiltering   int       `json:"alphaFiltering" validate:"min=0,max=2"`
	AlphaQuality     int       `json:"alphaQuality" validate:"min=0,max=100"`
	Pass             int       `json:"pass" validate:"min=1,max=10"`
	ShowCompressed   bool      `json:"showCompressed"`
	Preprocessing    int       `json:"preprocessing" validate:"min=0,max=7"`
	Partitions       int       `json:"partitions" validate:"min=0,max=3"`
	PartitionLimit   int       `json:"partitionLimit" validate:"min=0,max=100"`
	EmulateJPEGSize  bool      `json:"emulateJpegSize"`
	LowMemory        bool      `json:"lowMemory"`
	NearLossless     int       `json:"nearLossless" validate:"min=0,max=100"`
	Exact            bool      `json:"exact"`
	UseDeltaPalette  bool      `json:"useDeltaPalette"`
	UseSharpYUV      bool      `json:"useSharpYUV"`
}

// NewOptions returns libwebp's WebPConfigInit defaults.
func NewOptions() *Options {
	return &Options{
		BaseOptions:      codec.BaseOptions{Quality: 75},
		Method:           4,
		Segments:         4,
		SNSStrength:      50,
		FilterStrength:   60,
		FilterType:       1,
		AlphaCompression: 1,
		AlphaFiltering:   1,
		AlphaQuality:     100,
		Pass:             1,
		NearLossless:     100,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	if err := codec.ValidateOptions(name, o); err != nil {
		return err
	}
	// fields the encoder has no equivalent for must stay at their defaults
	unsupported := []struct {
		key    string
		set    bool
		val    any
		reason string
	}{
		{"autofilter", o.Autofilter, o.Autofilter, "filter strength is not searched, set filterStrength instead"},
		{"showCompressed", o.ShowCompressed, o.ShowCompressed, "the encoder cannot write the compressed picture back"},
		{"partitionLimit", o.PartitionLimit != 0, o.PartitionLimit, "partition 0 size is not capped"},
		{"lowMemory", o.LowMemory, o.LowMemory, "the encoder always buffers whole partitions"},
		{"nearLossless", o.NearLossless != 100, o.NearLossless, "lossless mode has no near-lossless preprocessing"},
		{"useDeltaPalette", o.UseDeltaPalette, o.UseDeltaPalette, "lossless mode has no delta palette"},
	}
	for _, u := range unsupported {
		if u.set {
			return &codec.Error{
				Format:  name,
				Stage:   codec.StageConfigure,
				Message: fmt.Sprintf("%s: %v (%s)", u.key, u.val, u.reason),
				Err:     codec.ErrInvalidParameter,
			}
		}
	}
	return nil
}
