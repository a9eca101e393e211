package heic

import "github.com/cocosip/go-icodec/codec"

// Presets lists the x265 speed presets, fastest first.
var Presets = []string{"ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow", "placebo"}

// Options contains encoding options for HEIC
type Options struct {
	// Quality maps to x265 crf: 0 -> 50, 50 -> 25, 100 -> 0
	codec.BaseOptions

	// Lossless bypasses transform, quantization and loop filters. Chroma
	// must also be "444" for exact output.
	Lossless     bool   `json:"lossless"`
	Preset       string `json:"preset" validate:"oneof=ultrafast superfast veryfast faster fast medium slow slower veryslow placebo"`
	Tune         string `json:"tune" validate:"oneof=psnr ssim grain fastdecode"`
	TuIntraDepth int    `json:"tuIntraDepth" validate:"min=1,max=4"`
	Complexity   int    `json:"complexity" validate:"min=0,max=100"`
	Chroma       string `json:"chroma" validate:"oneof=420 422 444"`
	SharpYUV     bool   `json:"sharpYUV"`
	// BitDepth is the coded depth; input is rescaled to it.
	BitDepth int `json:"bitDepth" validate:"oneof=8 10 12"`
}

// NewOptions returns the default options
func NewOptions() *Options {
	return &Options{
		BaseOptions:  codec.BaseOptions{Quality: 50},
		Preset:       "slow",
		Tune:         "ssim",
		TuIntraDepth: 2,
		Complexity:   50,
		Chroma:       "420",
		BitDepth:     8,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	return codec.ValidateOptions(name, o)
}
