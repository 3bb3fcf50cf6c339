package dataengine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	HandleConfig

	// Size is the number of independent handles. Values below one are
	// treated as one.
	Size int

	// AcquireTimeout bounds how long a checkout waits for a free handle.
	// Zero waits until the caller's context is done.
	AcquireTimeout time.Duration
}

// Pool is a fixed set of handles with bounded checkout. Every statement
// checks a handle out, runs on it, and returns it, even when the statement
// fails.
type Pool struct {
	handles        []*Handle
	free           chan *Handle
	acquireTimeout time.Duration
	observer       Observer
	closed         atomic.Bool
}

var _ Engine = (*Pool)(nil)

// NewPool creates a pool of unconnected handles.
func NewPool(cfg PoolConfig) *Pool {
	size := cfg.Size
	if size < 1 {
		size = 1
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	p := &Pool{
		handles:        make([]*Handle, size),
		free:           make(chan *Handle, size),
		acquireTimeout: cfg.AcquireTimeout,
		observer:       observer,
	}
	for i := range p.handles {
		h := NewHandle(cfg.HandleConfig)
		p.handles[i] = h
		p.free <- h
	}
	return p
}

// Size returns the number of handles.
func (p *Pool) Size() int {
	return len(p.handles)
}

// Connect opens every handle. Handles that fail stay degraded; the first
// error is returned.
func (p *Pool) Connect(ctx context.Context, creds Credentials) error {
	var errs []error
	for _, h := range p.handles {
		if err := h.Connect(ctx, creds); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Reconnect reopens handles that are not connected or fail a ping.
func (p *Pool) Reconnect(ctx context.Context) error {
	var errs []error
	for _, h := range p.handles {
		if h.Connected() && h.Ping(ctx) == nil {
			continue
		}
		if err := h.Reconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Connected reports whether at least one handle has a live session.
func (p *Pool) Connected() bool {
	for _, h := range p.handles {
		if h.Connected() {
			return true
		}
	}
	return false
}

// Dialect returns the dialect of the pooled handles.
func (p *Pool) Dialect() Dialect {
	return p.handles[0].Dialect()
}

func (p *Pool) acquire(ctx context.Context) (*Handle, error) {
	if p.closed.Load() {
		return nil, ErrNotConnected
	}

	start := time.Now()
	waitCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	select {
	case h := <-p.free:
		p.observer.ObserveAcquire(time.Since(start), nil)
		return h, nil
	case <-waitCtx.Done():
		err := waitCtx.Err()
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = ErrAcquireTimeout
		} else {
			err = fmt.Errorf("acquire handle: %w", err)
		}
		p.observer.ObserveAcquire(time.Since(start), err)
		return nil, err
	}
}

func (p *Pool) release(h *Handle) {
	p.free <- h
}

// Query checks out a handle and runs the statement on it.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (*Cursor, error) {
	h, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(h)
	return h.Query(ctx, query, args...)
}

// Execute checks out a handle and runs the write on it.
func (p *Pool) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	h, err := p.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer p.release(h)
	return h.Execute(ctx, query, args...)
}

// Ping checks one handle.
func (p *Pool) Ping(ctx context.Context) error {
	h, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer p.release(h)
	return h.Ping(ctx)
}

// Close closes every handle. Checkouts after Close return ErrNotConnected.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, h := range p.handles {
		_ = h.Close()
	}
	return nil
}
