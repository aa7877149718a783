package backends

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttleChunk bounds a single limiter reservation.
const throttleChunk = 64 << 10

// Throttled wraps a Storage so that uploads consume tokens from limiter, one
// token per byte. Reads are not limited.
type Throttled struct {
	Storage
	limiter *rate.Limiter
}

// NewThrottled limits uploads to bytesPerSecond. A non-positive rate returns
// s unchanged.
func NewThrottled(s Storage, bytesPerSecond int64) Storage {
	if bytesPerSecond <= 0 {
		return s
	}
	burst := int(bytesPerSecond)
	if burst < throttleChunk {
		burst = throttleChunk
	}
	return &Throttled{Storage: s, limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), burst)}
}

func (t *Throttled) Update(ctx context.Context, key string, reader io.Reader, size int64) error {
	return t.Storage.Update(ctx, key, &limitedReader{ctx: ctx, r: reader, limiter: t.limiter}, size)
}

type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if len(p) > throttleChunk {
		p = p[:throttleChunk]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
