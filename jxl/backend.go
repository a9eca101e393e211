package jxl

// FrameSetting identifies a JxlEncoderFrameSettingId. Backends map these onto
// the library's own enumerators.
type FrameSetting int

const (
	SettingEffort FrameSetting = iota
	SettingDecodingSpeed
	SettingPhotonNoise
	SettingEPF
	SettingGaborish
	SettingModular
	SettingResponsive
	SettingProgressiveAC
	SettingQProgressiveAC
	SettingProgressiveDC
	SettingPaletteColors
	SettingLossyPalette
	SettingModularColorSpace
	SettingModularPredictor
	SettingMATreeLearningPercent
	SettingBrotliEffort
)

// BasicInfo is the subset of JxlBasicInfo the adapter reads and writes.
type BasicInfo struct {
	Width, Height       int
	BitsPerSample       int
	AlphaBits           int
	ExtraChannels       int
	UsesOriginalProfile bool
}

// Status is a JxlDecoderStatus event.
type Status int

const (
	StatusSuccess Status = iota
	StatusError
	StatusNeedMoreInput
	StatusBasicInfo
	StatusNeedImageOutBuffer
	StatusFullImage
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusNeedMoreInput:
		return "need more input"
	case StatusBasicInfo:
		return "basic info"
	case StatusNeedImageOutBuffer:
		return "need image out buffer"
	case StatusFullImage:
		return "full image"
	}
	return "unknown"
}

// Backend creates libjxl encoders and decoders. Constructors return nil when
// the library could not allocate.
type Backend interface {
	NewEncoder() Encoder
	NewDecoder() Decoder
}

// Encoder is a JxlEncoder with expert options enabled.
type Encoder interface {
	SetBasicInfo(info BasicInfo) error
	SetColorEncodingSRGB() error
	// NewFrameSettings returns settings owned by the encoder; nil on failure.
	NewFrameSettings() FrameSettings
	// AddImageFrame adds interleaved 8-bit RGBA samples.
	AddImageFrame(fs FrameSettings, pixels []byte) error
	CloseInput()
	// ProcessOutput fills out and reports how many bytes were written and
	// whether more output is pending.
	ProcessOutput(out []byte) (n int, more bool, err error)
	Destroy()
}

// FrameSettings is a JxlEncoderFrameSettings.
type FrameSettings interface {
	SetLossless(lossless bool) error
	SetDistance(distance float32) error
	SetExtraChannelDistance(index int, distance float32) error
	SetOption(id FrameSetting, value int) error
	SetFloatOption(id FrameSetting, value float32) error
}

// Decoder is a JxlDecoder subscribed to basic info and full image events.
type Decoder interface {
	SetInput(data []byte) error
	ProcessInput() Status
	BasicInfo() (BasicInfo, error)
	// SetOutBuffer allocates the RGBA output buffer for 8-bit samples, or
	// 16-bit little-endian samples when deep is set, and returns it. The
	// buffer is owned by the decoder.
	SetOutBuffer(deep bool) ([]byte, error)
	Destroy()
}
