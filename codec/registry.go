package codec

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry manages the available codecs
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec // key can be name, MIME type or extension
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

var defaultRegistry = NewRegistry()

// Register registers a codec under its name, MIME type and extension
func Register(codec Codec) {
	defaultRegistry.Register(codec)
}

// Get retrieves a codec by name, MIME type or extension
func Get(key string) (Codec, error) {
	return defaultRegistry.Get(key)
}

// List returns all registered codecs
func List() []Codec {
	return defaultRegistry.List()
}

// Decode routes data to the codec registered under format.
func Decode(format string, data []byte) (*ImageBuffer, error) {
	return defaultRegistry.Decode(format, data)
}

// Encode routes params to the codec registered under format.
func Encode(format string, params EncodeParams) ([]byte, error) {
	return defaultRegistry.Encode(format, params)
}

// Register registers a codec under its name, MIME type and extension.
// A later registration for the same key replaces the earlier one.
func (r *Registry) Register(codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range []string{codec.Name(), codec.MIMEType(), codec.Extension()} {
		if key != "" {
			r.codecs[normalizeKey(key)] = codec
		}
	}
}

// Get retrieves a codec by name, MIME type or extension
func (r *Registry) Get(key string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codec, ok := r.codecs[normalizeKey(key)]
	if !ok {
		return nil, ErrCodecNotFound
	}
	return codec, nil
}

// List returns all registered codecs (deduplicated, sorted by name)
func (r *Registry) List() []Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Codec]bool)
	codecs := make([]Codec, 0)

	for _, codec := range r.codecs {
		if !seen[codec] {
			seen[codec] = true
			codecs = append(codecs, codec)
		}
	}
	sort.Slice(codecs, func(i, j int) bool { return codecs[i].Name() < codecs[j].Name() })

	return codecs
}

// Decode looks up format and decodes data with it.
func (r *Registry) Decode(format string, data []byte) (*ImageBuffer, error) {
	c, err := r.Get(format)
	if err != nil {
		return nil, Translate(format, StageAllocation, Cause{Err: err})
	}

	start := time.Now()
	img, err := c.Decode(data)
	log := Logger().With(slog.String("format", c.Name()), slog.String("op", "decode"))
	if err != nil {
		logFailure(log, err)
		return nil, err
	}
	log.Debug("decoded",
		slog.Int("bytes", len(data)),
		slog.Int("width", img.Width),
		slog.Int("height", img.Height),
		slog.Int("depth", img.BitDepth),
		slog.Duration("duration", time.Since(start)))
	return img, nil
}

// Encode looks up format and encodes params with it.
func (r *Registry) Encode(format string, params EncodeParams) ([]byte, error) {
	c, err := r.Get(format)
	if err != nil {
		return nil, Translate(format, StageAllocation, Cause{Err: err})
	}

	start := time.Now()
	out, err := c.Encode(params)
	log := Logger().With(slog.String("format", c.Name()), slog.String("op", "encode"))
	if err != nil {
		logFailure(log, err)
		return nil, err
	}
	log.Debug("encoded",
		slog.Int("bytes", len(out)),
		slog.Int("width", params.Width),
		slog.Int("height", params.Height),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func logFailure(log *slog.Logger, err error) {
	stage, ok := StageOf(err)
	if !ok {
		log.Debug("codec call failed", slog.Any("error", err))
		return
	}
	log.Debug("codec call failed", slog.String("stage", stage.String()), slog.Any("error", err))
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, "."))
}
