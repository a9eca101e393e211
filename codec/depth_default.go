//go:build !deepcolor

package codec

// DefaultDepthPolicy is the policy decoders use unless overridden.
const DefaultDepthPolicy = DepthNormalize8
