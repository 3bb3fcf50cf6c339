// Package bodycollector accumulates a request body that arrives in chunks,
// enforcing a byte cap before every append.
//
// A Collector moves through four states:
//
//	Start -> Collecting -> Complete
//	                    \-> Rejected
//
// The first Feed call only allocates and moves to Collecting. Each later call
// with a non-empty chunk appends it, unless the accumulated length would
// exceed the cap, in which case the buffer is released and the collector is
// Rejected. A call with an empty chunk marks the body Complete.
package bodycollector

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxBytes is the body cap used when none is configured.
const DefaultMaxBytes = 1 << 20

// readChunk is the size of each read performed by Collect.
const readChunk = 32 << 10

var (
	// ErrPayloadTooLarge is returned when a chunk would push the body past
	// the cap.
	ErrPayloadTooLarge = errors.New("request body too large")

	// ErrFinished is returned when Feed is called after Complete or Rejected.
	ErrFinished = errors.New("body collection already finished")
)

// State is the collection state of a body.
type State int

const (
	Start State = iota
	Collecting
	Complete
	Rejected
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case Collecting:
		return "collecting"
	case Complete:
		return "complete"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Collector holds the bytes of one request body. It is owned by a single
// request goroutine and is not safe for concurrent use.
type Collector struct {
	buf   []byte
	max   int
	state State
}

// New creates a collector with the given cap. A cap of zero or less uses
// DefaultMaxBytes.
func New(max int) *Collector {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	return &Collector{max: max}
}

// Feed advances the state machine with the next chunk.
func (c *Collector) Feed(chunk []byte) (State, error) {
	switch c.state {
	case Start:
		c.buf = make([]byte, 0, min(c.max, readChunk))
		c.state = Collecting
		return c.state, nil

	case Collecting:
		if len(chunk) == 0 {
			c.state = Complete
			return c.state, nil
		}
		if len(c.buf)+len(chunk) > c.max {
			c.buf = nil
			c.state = Rejected
			return c.state, ErrPayloadTooLarge
		}
		c.buf = append(c.buf, chunk...)
		return c.state, nil

	default:
		return c.state, ErrFinished
	}
}

// Bytes returns the collected body once Complete. It is nil in any other
// state and a non-nil empty slice for an empty body.
func (c *Collector) Bytes() []byte {
	if c.state != Complete {
		return nil
	}
	if c.buf == nil {
		return []byte{}
	}
	return c.buf
}

// Len returns the number of bytes accumulated so far.
func (c *Collector) Len() int {
	return len(c.buf)
}

// State returns the current state.
func (c *Collector) State() State {
	return c.state
}

// Release drops the buffer. It is safe to call more than once.
func (c *Collector) Release() {
	c.buf = nil
}

// Collect reads r to EOF through a Collector. The read is abandoned when ctx
// is done.
func Collect(ctx context.Context, r io.Reader, max int) ([]byte, error) {
	c := New(max)
	defer c.Release()

	if _, err := c.Feed(nil); err != nil {
		return nil, err
	}

	chunk := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := r.Read(chunk)
		if n > 0 {
			if _, err := c.Feed(chunk[:n]); err != nil {
				return nil, err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read body: %w", readErr)
		}
	}

	if _, err := c.Feed(nil); err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}
