package codec

import "errors"

var (
	// ErrCodecNotFound is returned when a codec is not found in the registry
	ErrCodecNotFound = errors.New("codec not found")

	// ErrInvalidParameter is returned when encoding/decoding parameters are invalid
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidQuality is returned when quality parameter is invalid
	ErrInvalidQuality = errors.New("invalid quality (must be 0-100)")

	// ErrUnsupportedFormat is returned when the format is not supported
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnsupported is returned when a codec cannot serve one direction
	ErrUnsupported = errors.New("operation not supported by codec")

	// ErrNoBackend is returned when a codec has no native backend linked
	ErrNoBackend = errors.New("no native backend linked")

	// ErrInvalidImage is returned when a pixel buffer violates its geometry
	ErrInvalidImage = errors.New("invalid image buffer")
)
