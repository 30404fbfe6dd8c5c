package complexity

import (
	"context"
	"encoding/json"
	"io"

	charmlog "github.com/charmbracelet/log"
)

// Store persists serialized results keyed by name and validated by a
// content hash.
type Store interface {
	GetWithHash(key, hash string) ([]byte, bool)
	SetWithHash(key, hash string, data []byte) error
	Invalidate(key string) error
}

// Hasher returns a stable content hash for source.
type Hasher func(source []byte) string

// Cached wraps a Provider so that unchanged files are not re-parsed.
type Cached struct {
	next   Provider
	store  Store
	hash   Hasher
	logger *charmlog.Logger
}

var _ Provider = (*Cached)(nil)

// NewCached returns next decorated with store.
func NewCached(next Provider, store Store, hash Hasher) *Cached {
	return &Cached{next: next, store: store, hash: hash, logger: charmlog.New(io.Discard)}
}

// WithLogger sets the logger that receives store failures at debug level.
func (c *Cached) WithLogger(l *charmlog.Logger) *Cached {
	if l != nil {
		c.logger = l
	}
	return c
}

// Analyze returns the stored result when the content hash matches, and
// otherwise delegates and stores the fresh result. Store failures are
// logged and never fail the analysis.
func (c *Cached) Analyze(ctx context.Context, path string, source []byte, kind Kind) (*File, error) {
	key := "complexity:" + string(kind) + ":" + path
	sum := c.hash(source)

	if data, ok := c.store.GetWithHash(key, sum); ok {
		var f File
		if err := json.Unmarshal(data, &f); err == nil {
			return &f, nil
		}
		if err := c.store.Invalidate(key); err != nil {
			c.logger.Debug("cache invalidate failed", "path", path, "err", err)
		}
	}

	f, err := c.next.Analyze(ctx, path, source, kind)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(f)
	if err == nil {
		err = c.store.SetWithHash(key, sum, data)
	}
	if err != nil {
		c.logger.Debug("cache write failed", "path", path, "err", err)
	}
	return f, nil
}
