package dataengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Reconnector is implemented by Handle and Pool.
type Reconnector interface {
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) error
}

// Keepalive periodically pings the data engine and reopens the session when
// the ping fails, which also recovers a handle that failed its initial
// Connect.
type Keepalive struct {
	target  Reconnector
	cron    *cron.Cron
	timeout time.Duration
	logger  *slog.Logger
}

// NewKeepalive validates the schedule (standard cron syntax or descriptors
// such as "@every 30s") and registers the job. Call Start to run it.
func NewKeepalive(target Reconnector, schedule string, timeout time.Duration) (*Keepalive, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid keepalive schedule %q: %w", schedule, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	k := &Keepalive{
		target:  target,
		cron:    cron.New(),
		timeout: timeout,
		logger:  slog.Default().With("component", "dataengine.keepalive"),
	}
	if _, err := k.cron.AddFunc(schedule, func() {
		_ = k.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("schedule keepalive: %w", err)
	}
	return k, nil
}

// Start begins running the job in the background.
func (k *Keepalive) Start() {
	k.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (k *Keepalive) Stop() {
	<-k.cron.Stop().Done()
}

// RunOnce pings the engine and reconnects if the ping fails.
func (k *Keepalive) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	err := k.target.Ping(ctx)
	if err == nil {
		return nil
	}

	k.logger.Warn("data engine ping failed, reconnecting", "error", err)
	if err := k.target.Reconnect(ctx); err != nil {
		k.logger.Error("data engine reconnect failed", "error", err)
		return err
	}
	k.logger.Info("data engine reconnected")
	return nil
}
