package main

import (
	"context"
	"fmt"
	"log/slog"

	"nutrition-hq/dietapi/pkg/config"
	"nutrition-hq/dietapi/pkg/dataengine"
	"nutrition-hq/dietapi/pkg/telemetry/logging"
)

// engine is implemented by both dataengine.Handle and dataengine.Pool.
type engine interface {
	dataengine.Engine
	dataengine.Reconnector
	Connect(ctx context.Context, creds dataengine.Credentials) error
}

func credentials(cfg *config.DatabaseConfig) dataengine.Credentials {
	return dataengine.Credentials{
		Driver:   cfg.Driver,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Name,
		Path:     cfg.Path,
		Params:   cfg.Params,
	}
}

// newEngine builds an unconnected single handle, or a pool when more than
// one session is configured.
func newEngine(cfg *config.DatabaseConfig, observer dataengine.Observer) engine {
	hc := dataengine.HandleConfig{
		QueryTimeout: cfg.QueryTimeout,
		Observer:     observer,
	}
	if cfg.PoolSize <= 1 {
		return dataengine.NewHandle(hc)
	}
	return dataengine.NewPool(dataengine.PoolConfig{
		HandleConfig:   hc,
		Size:           cfg.PoolSize,
		AcquireTimeout: cfg.AcquireTimeout,
	})
}

// connect opens the engine's sessions. A failure is returned only when the
// configuration requires a connection; otherwise it is logged and the
// engine starts degraded, answering statements with ErrNotConnected until
// the keepalive reconnects it.
func connect(ctx context.Context, e engine, cfg *config.DatabaseConfig) error {
	creds := credentials(cfg)
	logger := logging.Component("dataengine")

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	err := e.Connect(connectCtx, creds)
	if err == nil {
		logger.Info("data engine ready",
			"driver", cfg.Driver,
			"address", creds.Address(),
			"pool_size", max(cfg.PoolSize, 1),
		)
		return nil
	}
	if cfg.RequireConnection {
		return fmt.Errorf("connect to %s: %w", creds.Address(), err)
	}
	logger.Warn("data engine unavailable, starting degraded",
		"driver", cfg.Driver,
		"address", creds.Address(),
		slog.Any("error", err),
	)
	return nil
}
