package mozjpeg

// IntParam is a J_INT_PARAM understood by jpeg_c_set_int_param.
type IntParam int

const (
	BaseQuantTblIdx IntParam = iota
	TrellisNumLoops
	DCScanOptMode
)

func (p IntParam) String() string {
	switch p {
	case BaseQuantTblIdx:
		return "JINT_BASE_QUANT_TBL_IDX"
	case TrellisNumLoops:
		return "JINT_TRELLIS_NUM_LOOPS"
	case DCScanOptMode:
		return "JINT_DC_SCAN_OPT_MODE"
	}
	return "JINT_UNKNOWN"
}

// BoolParam is a J_BOOLEAN_PARAM understood by jpeg_c_set_bool_param.
type BoolParam int

const (
	UseScansInTrellis BoolParam = iota
	TrellisEOBOpt
	TrellisQOpt
)

func (p BoolParam) String() string {
	switch p {
	case UseScansInTrellis:
		return "JBOOLEAN_USE_SCANS_IN_TRELLIS"
	case TrellisEOBOpt:
		return "JBOOLEAN_TRELLIS_EOB_OPT"
	case TrellisQOpt:
		return "JBOOLEAN_TRELLIS_Q_OPT"
	}
	return "JBOOLEAN_UNKNOWN"
}

// Coding holds the jpeg_compress_struct fields assigned directly.
type Coding struct {
	OptimizeCoding bool
	Smoothing      int
	Arithmetic     bool
}

// Backend creates libjpeg compression and decompression objects.
type Backend interface {
	NewCompressor() (Compressor, error)
	NewDecompressor() (Decompressor, error)
}

// Compressor is a jpeg_compress_struct reading interleaved 8-bit RGBA.
// Methods that can reach the library's error_exit return its message.
type Compressor interface {
	SetImage(width, height int)
	SetDefaults() error
	SetColorspace(cs ColorSpace) error
	SetIntParam(p IntParam, value int) error
	SetBoolParam(p BoolParam, value bool) error
	SetCoding(c Coding)
	// SetQualityRatings takes the cjpeg "-quality" syntax: one rating per
	// quantization table, comma separated, the last one repeating.
	SetQualityRatings(ratings string, forceBaseline bool) error
	// SetLumaSampling sets the first component's sampling factors.
	SetLumaSampling(h, v int)
	SimpleProgression() error
	// ClearScans removes any scan script so a sequential file is written.
	ClearScans()
	// Compress starts the compressor, writes every scanline and finishes.
	Compress(rgba []byte, stride int) ([]byte, error)
	Destroy()
}

// Decompressor is a jpeg_decompress_struct producing RGBA.
type Decompressor interface {
	ReadHeader(data []byte) (width, height int, err error)
	// Decompress returns the RGBA output and its row stride. The slice is
	// owned by the decompressor.
	Decompress() (pixels []byte, stride int, err error)
	Destroy()
}
