package avif

// PixelFormat matches avifPixelFormat.
type PixelFormat int

const (
	PixelFormatNone PixelFormat = iota
	PixelFormatYUV444
	PixelFormatYUV422
	PixelFormatYUV420
	PixelFormatYUV400
)

// MatrixCoefficients matches the CICP values libavif stores on an image.
type MatrixCoefficients int

const (
	MatrixIdentity MatrixCoefficients = 0
	MatrixBT601    MatrixCoefficients = 6
)

// Backend is the slice of libavif the adapter drives. Constructors return nil
// when the library could not allocate.
type Backend interface {
	NewImage(width, height, depth int, format PixelFormat) Image
	NewEncoder() Encoder
	NewDecoder() Decoder
}

// Image is an avifImage.
type Image interface {
	Width() int
	Height() int
	Depth() int
	SetMatrixCoefficients(mc MatrixCoefficients)
	// NewRGB allocates an RGBA plane laid out for this image
	// (avifRGBImageSetDefaults + avifRGBImageAllocatePixels).
	NewRGB(depth int, sharpYUV bool) (RGBImage, error)
	FromRGB(rgb RGBImage) error
	ToRGB(rgb RGBImage) error
	Destroy()
}

// RGBImage is an avifRGBImage with library-owned pixels.
type RGBImage interface {
	Pixels() []byte
	RowBytes() int
	Free()
}

// EncoderConfig holds the avifEncoder fields set by assignment.
type EncoderConfig struct {
	Quality      int
	QualityAlpha int
	Speed        int
	MaxThreads   int
	AutoTiling   bool
	TileRowsLog2 int
	TileColsLog2 int
}

// Encoder is an avifEncoder.
type Encoder interface {
	Configure(cfg EncoderConfig)
	SetCodecOption(key, value string) error
	Write(img Image) ([]byte, error)
	Destroy()
}

// Decoder is an avifDecoder. The image returned by NextImage is owned by the
// decoder and must not be destroyed separately.
type Decoder interface {
	SetMaxThreads(n int)
	Parse(data []byte) error
	NextImage() (Image, error)
	Destroy()
}
