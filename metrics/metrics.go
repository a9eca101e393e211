// Package metrics instruments codecs with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/cocosip/go-icodec/codec"
)

const (
	opEncode = "encode"
	opDecode = "decode"
)

var _ codec.Codec = (*Codec)(nil)

// Codec decorates a codec.Codec with call metrics. Name, MIMEType and
// Extension are those of the wrapped codec.
type Codec struct {
	codec.Codec
	m *recorder
}

// Instrument wraps c so every Encode and Decode is counted and timed. cfg may
// be shared between codecs; its collectors are registered on first use.
func Instrument(c codec.Codec, cfg *Config) *Codec {
	if cfg == nil {
		cfg = Prometheus(nil)
	}
	return &Codec{Codec: c, m: cfg.metrics()}
}

// Unwrap returns the instrumented codec.
func (c *Codec) Unwrap() codec.Codec { return c.Codec }

// Encode encodes with the wrapped codec
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	start := time.Now()
	out, err := c.Codec.Encode(params)
	c.observe(opEncode, start, len(out), err)
	return out, err
}

// Decode decodes with the wrapped codec
func (c *Codec) Decode(data []byte) (*codec.ImageBuffer, error) {
	start := time.Now()
	img, err := c.Codec.Decode(data)
	n := 0
	if err == nil {
		n = len(data)
	}
	c.observe(opDecode, start, n, err)
	return img, err
}

func (c *Codec) observe(op string, start time.Time, n int, err error) {
	format := c.Name()
	c.m.duration.WithLabelValues(format, op).Observe(time.Since(start).Seconds())
	if err != nil {
		stage := "unknown"
		if s, ok := codec.StageOf(err); ok {
			stage = s.String()
		}
		c.m.operations.WithLabelValues(format, op, "error").Inc()
		c.m.errors.WithLabelValues(format, op, stage).Inc()
		return
	}
	c.m.operations.WithLabelValues(format, op, "ok").Inc()
	c.m.bytes.WithLabelValues(format, op).Add(float64(n))
}
