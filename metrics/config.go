package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config is a config of the Prometheus metrics recorded by an instrumented
// codec.
//
// An instance can be created only by the [Prometheus] function. The zero value
// is invalid.
type Config struct {
	// Options for the operations counter, labeled by format, op and result.
	Operations prometheus.CounterOpts
	// Options for the errors counter, labeled by format, op and stage.
	Errors prometheus.CounterOpts
	// Options for the duration histogram, labeled by format and op.
	Duration prometheus.HistogramOpts
	// Options for the processed bytes counter, labeled by format and op.
	Bytes prometheus.CounterOpts

	registerer prometheus.Registerer
	once       sync.Once
	recorder   *recorder
}

// Prometheus returns a [Config] with the provided registerer. If registerer is
// nil, metrics are recorded but not registered. Defaults can be changed by
// passing configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *Config),
) *Config {
	const namespace = "icodec"

	c := Config{
		registerer: registerer,
		Operations: prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of encode and decode calls",
		},
		Errors: prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of failed calls by stage",
		},
		Duration: prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of encode and decode calls",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		Bytes: prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Compressed bytes consumed by decode and produced by encode",
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

// metrics builds and registers the collectors once per config, so several
// codecs can share it.
func (c *Config) metrics() *recorder {
	c.once.Do(c.build)
	return c.recorder
}

func (c *Config) build() {
	r := recorder{
		operations: prometheus.NewCounterVec(c.Operations, []string{"format", "op", "result"}),
		errors:     prometheus.NewCounterVec(c.Errors, []string{"format", "op", "stage"}),
		duration:   prometheus.NewHistogramVec(c.Duration, []string{"format", "op"}),
		bytes:      prometheus.NewCounterVec(c.Bytes, []string{"format", "op"}),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			r.operations,
			r.errors,
			r.duration,
			r.bytes,
		)
	}

	c.recorder = &r
}

type recorder struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.CounterVec
}
