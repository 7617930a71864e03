package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/config"
	"github.com/tickethelp/repair-service/internal/observability"
	"github.com/tickethelp/repair-service/internal/persistence"
)

// runtime holds the connections a single command invocation needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, pg: pg}, nil
}

func (r *runtime) Close() {
	r.pg.Close()
	_ = r.logger.Sync()
}
