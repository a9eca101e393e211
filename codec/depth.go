package codec

// DepthPolicy decides the sample depth of decoded buffers.
type DepthPolicy int

const (
	// DepthNormalize8 narrows every decoded image to 8 bits per sample.
	DepthNormalize8 DepthPolicy = iota
	// DepthNative keeps the depth the stream was coded with. 12-bit
	// sources are widened to 16 bits since buffers only carry 8, 10 or 16.
	DepthNative
)

func (p DepthPolicy) String() string {
	if p == DepthNative {
		return "native"
	}
	return "normalize8"
}

// OutputDepth returns the buffer depth for a source coded at srcDepth.
func (p DepthPolicy) OutputDepth(srcDepth int) int {
	if p != DepthNative || srcDepth <= 8 {
		return 8
	}
	if srcDepth == 10 {
		return 10
	}
	return 16
}
