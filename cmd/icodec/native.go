//go:build icodec_native && cgo

package main

import (
	_ "github.com/cocosip/go-icodec/avif/libavif"
	_ "github.com/cocosip/go-icodec/heic/libheif"
	_ "github.com/cocosip/go-icodec/jxl/libjxl"
	_ "github.com/cocosip/go-icodec/mozjpeg/libjpeg"
	_ "github.com/cocosip/go-icodec/webp2/libwebp2"
)
