// Package heif holds the encode and decode paths shared by the HEIF-based
// formats (HEIC with HEVC, VVIC with VVC).
package heif

// Compression matches heif_compression_format.
type Compression int

const (
	CompressionHEVC Compression = 1
	CompressionAV1  Compression = 4
	CompressionVVC  Compression = 5
)

func (c Compression) String() string {
	switch c {
	case CompressionHEVC:
		return "HEVC"
	case CompressionAV1:
		return "AV1"
	case CompressionVVC:
		return "VVC"
	}
	return "unknown"
}

// MatrixRGBGBR is heif_matrix_coefficients_RGB_GBR.
const MatrixRGBGBR = 0

// NCLX is the subset of heif_color_profile_nclx the encoder writes.
type NCLX struct {
	MatrixCoefficients int
}

// EncodingOptions is the subset of heif_encoding_options the adapter sets.
type EncodingOptions struct {
	// SharpYUV forces sharp YUV as the only chroma downsampling algorithm.
	SharpYUV bool
	// NCLX, when set, overrides the output color profile.
	NCLX *NCLX
}

// Backend is the slice of libheif the adapter drives.
type Backend interface {
	// NewContext wraps heif_context_alloc and returns nil on failure.
	NewContext() Context
	// NewImage creates an interleaved RGBA image with its plane added. Depths
	// above 8 use 16-bit little-endian samples.
	NewImage(width, height, depth int) (Image, error)
}

// Context is a heif_context.
type Context interface {
	Encoder(c Compression) (Encoder, error)
	Encode(img Image, enc Encoder, opts EncodingOptions) error
	Write() ([]byte, error)
	Read(data []byte) error
	PrimaryImage() (ImageHandle, error)
	Free()
}

// Encoder is a heif_encoder.
type Encoder interface {
	SetLossyQuality(quality int) error
	SetLossless(lossless bool) error
	SetInteger(key string, value int) error
	SetString(key, value string) error
	SetBoolean(key string, value bool) error
	Release()
}

// ImageHandle is a heif_image_handle.
type ImageHandle interface {
	Width() int
	Height() int
	LumaBitDepth() int
	// Decode converts to interleaved RGBA, as 16-bit little-endian samples
	// when deep is set.
	Decode(deep bool) (Image, error)
	Release()
}

// Image is a heif_image holding one interleaved plane.
type Image interface {
	Plane() (data []byte, stride int)
	Release()
}
