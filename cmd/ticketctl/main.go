package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/cli"
	"github.com/tickethelp/repair-service/internal/config"
	"github.com/tickethelp/repair-service/internal/observability"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, cli.NewRootCommand(), logger)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

// newLogger falls back to zap's production logger when the configuration
// cannot be read, so the failure itself still gets logged by the command.
func newLogger() (*zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return zap.NewProduction()
	}
	return observability.NewLogger(cfg.Logger)
}
