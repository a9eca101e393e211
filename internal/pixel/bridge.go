// Package pixel moves interleaved samples between packed caller buffers and
// strided native planes, and converts between depths, channel counts and
// alpha conventions.
package pixel

import (
	"errors"
	"fmt"

	"github.com/cocosip/go-icodec/codec"
)

var (
	// ErrStrideTooNarrow is returned when a plane stride cannot hold one row.
	ErrStrideTooNarrow = errors.New("stride narrower than row")

	// ErrShortBuffer is returned when a buffer is smaller than its geometry.
	ErrShortBuffer = errors.New("buffer too small for geometry")
)

// RowBytes returns the number of meaningful bytes in one row.
func RowBytes(width, channels, bytesPerSample int) int {
	return width * channels * bytesPerSample
}

// PlaneLen returns the minimum length of a plane with the given stride: the
// last row need not be padded.
func PlaneLen(stride, rowBytes, height int) int {
	if height == 0 {
		return 0
	}
	return stride*(height-1) + rowBytes
}

// Import copies the packed rows of src into the strided plane dst. Only the
// first RowBytes of every destination row are written; padding is left as is.
func Import(dst []byte, dstStride int, src []byte, width, height, channels, bytesPerSample int) error {
	row := RowBytes(width, channels, bytesPerSample)
	if dstStride < row {
		return fmt.Errorf("%w: stride %d, row %d", ErrStrideTooNarrow, dstStride, row)
	}
	if len(src) < row*height {
		return fmt.Errorf("%w: source has %d bytes, want %d", ErrShortBuffer, len(src), row*height)
	}
	if len(dst) < PlaneLen(dstStride, row, height) {
		return fmt.Errorf("%w: plane has %d bytes, want %d", ErrShortBuffer, len(dst), PlaneLen(dstStride, row, height))
	}
	if dstStride == row {
		copy(dst[:row*height], src[:row*height])
		return nil
	}
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+row], src[y*row:(y+1)*row])
	}
	return nil
}

// Export copies a strided plane into a freshly allocated packed buffer.
func Export(src []byte, srcStride int, width, height, channels, bytesPerSample int) ([]byte, error) {
	row := RowBytes(width, channels, bytesPerSample)
	if srcStride < row {
		return nil, fmt.Errorf("%w: stride %d, row %d", ErrStrideTooNarrow, srcStride, row)
	}
	if len(src) < PlaneLen(srcStride, row, height) {
		return nil, fmt.Errorf("%w: plane has %d bytes, want %d", ErrShortBuffer, len(src), PlaneLen(srcStride, row, height))
	}
	out := make([]byte, row*height)
	if srcStride == row {
		copy(out, src[:row*height])
		return out, nil
	}
	for y := 0; y < height; y++ {
		copy(out[y*row:(y+1)*row], src[y*srcStride:y*srcStride+row])
	}
	return out, nil
}

// Stage places an Import or Export failure: a plane whose stride cannot hold
// a row is a configuration fault of the native side, anything else happened
// while processing.
func Stage(err error) codec.Stage {
	if errors.Is(err, ErrStrideTooNarrow) {
		return codec.StageConfigure
	}
	return codec.StageProcess
}
