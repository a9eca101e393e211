package webp2

// SampleFormat matches WP2SampleFormat for the layouts the adapter uses.
type SampleFormat int

const (
	// FormatArgbPremultiplied is WP2_Argb_32, the encoder's native layout.
	FormatArgbPremultiplied SampleFormat = iota
	// FormatARGB is WP2_ARGB_32 (unpremultiplied).
	FormatARGB
	// FormatRGBA is WP2_RGBA_32 (unpremultiplied, byte order R G B A).
	FormatRGBA
)

func (f SampleFormat) String() string {
	switch f {
	case FormatArgbPremultiplied:
		return "Argb_32"
	case FormatARGB:
		return "ARGB_32"
	case FormatRGBA:
		return "RGBA_32"
	}
	return "unknown"
}

// EncoderConfig holds the WP2::EncoderConfig fields set by assignment.
type EncoderConfig struct {
	Quality          float32
	AlphaQuality     float32
	Effort           int
	Pass             int
	UVMode           UVMode
	SNS              float32
	CSP              ColorSpace
	ErrorDiffusion   int
	UseRandomMatrix  bool
	KeepUnmultiplied bool
	ThreadLevel      int
}

// Backend is the slice of libwebp2 the adapter drives.
type Backend interface {
	// NewBuffer returns an empty WP2::ArgbBuffer, or nil when allocation
	// failed.
	NewBuffer(format SampleFormat) Buffer
	// Encode runs WP2::Encode into a memory writer.
	Encode(src Buffer, cfg EncoderConfig) ([]byte, error)
	// Decode runs WP2::Decode into dst, which must be FormatRGBA.
	Decode(data []byte, dst Buffer) error
}

// Buffer is a WP2::ArgbBuffer.
type Buffer interface {
	// Import converts pixels of the given layout into the buffer's format.
	Import(format SampleFormat, width, height int, pixels []byte, stride int) error
	Width() int
	Height() int
	// Pixels returns the buffer memory starting at row 0 and its stride.
	Pixels() ([]byte, int)
	Destroy()
}
