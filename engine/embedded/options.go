package embedded

import (
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/v2"
)

// options are the engine configuration keys this engine understands. Unknown
// keys are accepted and ignored.
type options struct {
	Meta              string
	Bucket            string
	ReadOnly          bool
	UploadLimit       float64 // Mbit/s, 0 for unlimited
	Writeback         bool
	WritebackInterval time.Duration
	GetTimeout        time.Duration
	PutTimeout        time.Duration
	DirPageSize       int
	Capacity          int64
	AccessLog         string
	Debug             bool
}

const (
	defaultCapacity          = int64(1) << 50
	defaultWritebackInterval = time.Second
	defaultGetTimeout        = 5 * time.Second
	defaultPutTimeout        = 60 * time.Second
)

// rawJSON feeds a JSON document to koanf.
type rawJSON []byte

func (r rawJSON) ReadBytes() ([]byte, error) { return r, nil }

func (r rawJSON) Read() (map[string]interface{}, error) {
	return nil, errors.New("rawJSON provider does not support Read()")
}

func parseOptions(conf string) (options, error) {
	k := koanf.New(".")
	if conf != "" {
		if err := k.Load(rawJSON(conf), json.Parser()); err != nil {
			return options{}, fmt.Errorf("invalid engine configuration: %w", err)
		}
	}

	opts := options{
		Meta:              k.String("meta"),
		Bucket:            k.String("bucket"),
		ReadOnly:          k.Bool("readOnly"),
		UploadLimit:       k.Float64("uploadLimit"),
		Writeback:         k.Bool("writeback"),
		WritebackInterval: seconds(k, "writebackInterval", defaultWritebackInterval),
		GetTimeout:        seconds(k, "getTimeout", defaultGetTimeout),
		PutTimeout:        seconds(k, "putTimeout", defaultPutTimeout),
		DirPageSize:       k.Int("dirPageSize"),
		Capacity:          k.Int64("capacity"),
		AccessLog:         k.String("accessLog"),
		Debug:             k.Bool("debug"),
	}
	if opts.Capacity <= 0 {
		opts.Capacity = defaultCapacity
	}
	if opts.DirPageSize < 0 {
		return options{}, fmt.Errorf("dirPageSize must not be negative, got %d", opts.DirPageSize)
	}
	if opts.UploadLimit < 0 {
		return options{}, fmt.Errorf("uploadLimit must not be negative, got %v", opts.UploadLimit)
	}
	return opts, nil
}

func seconds(k *koanf.Koanf, key string, def time.Duration) time.Duration {
	if !k.Exists(key) {
		return def
	}
	v := k.Float64(key)
	if v <= 0 {
		return def
	}
	return time.Duration(v * float64(time.Second))
}

// uploadBytesPerSecond converts the Mbit/s limit.
func (o options) uploadBytesPerSecond() int64 {
	return int64(o.UploadLimit * 1e6 / 8)
}
