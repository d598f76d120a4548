package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/refsync/internal/config"
	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/store/postgres"
	"github.com/JonMunkholm/refsync/internal/store/sqlite"
)

// openStore connects to the configured store. The returned func releases it.
// A sqlite store gets its tables created on open.
func openStore(ctx context.Context, cfg *config.Config, reg *core.Registry) (core.Store, func(), error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := s.Bootstrap(ctx, reg); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("bootstrap sqlite store: %w", err)
		}
		slog.Debug("store opened", "driver", config.DriverSQLite, "path", cfg.Database.SQLitePath)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("close sqlite store", "error", err)
			}
		}, nil

	default:
		s, err := postgres.Connect(ctx, cfg.Database.URL, postgres.PoolConfig{
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("store opened", "driver", config.DriverPostgres)
		return s, s.Close, nil
	}
}
