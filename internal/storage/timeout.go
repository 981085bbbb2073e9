package storage

import (
	"context"
	"io"
	"time"
)

// timeoutBackend bounds every operation of the wrapped backend with its own
// deadline, so a stalled disk or network call cannot hold a request for its
// whole lifetime.
type timeoutBackend struct {
	next    Backend
	timeout time.Duration
}

// WithTimeout wraps backend so each call runs under a deadline. A
// non-positive timeout returns the backend unwrapped.
func WithTimeout(backend Backend, timeout time.Duration) Backend {
	if timeout <= 0 {
		return backend
	}
	return &timeoutBackend{next: backend, timeout: timeout}
}

func (tb *timeoutBackend) Put(ctx context.Context, key string, content io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, tb.timeout)
	defer cancel()
	return tb.next.Put(ctx, key, content)
}

// Get applies the deadline to the whole retrieval, stream included: the
// cancel is released when the caller closes the returned reader, and a
// consumer slower than the deadline is cut off like any other stalled call.
func (tb *timeoutBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, tb.timeout)
	content, err := tb.next.Get(ctx, key)
	if err != nil {
		cancel()
		return nil, err
	}
	return &cancelOnClose{ReadCloser: content, cancel: cancel}, nil
}

func (tb *timeoutBackend) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, tb.timeout)
	defer cancel()
	return tb.next.Delete(ctx, key)
}

func (tb *timeoutBackend) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, tb.timeout)
	defer cancel()
	return tb.next.Exists(ctx, key)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
