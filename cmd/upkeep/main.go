package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	"github.com/felixgeelhaar/upkeep/adapter/cli/request"
	"github.com/felixgeelhaar/upkeep/internal/app"
	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/pkg/config"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(bootstrap)
	cli.AddCommand(request.Cmd)
	cli.Execute(ctx)
}

func bootstrap(ctx context.Context, cfgFile string, verbose bool) (*cli.App, error) {
	var files []string
	if cfgFile != "" {
		files = append(files, cfgFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:          level,
		Format:         observability.LogFormat(cfg.LogFormat()),
		Output:         os.Stderr,
		ServiceName:    "upkeep",
		ServiceVersion: cfg.Version,
	})
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	var principal identity.Principal
	if cfg.Actor.ID != "" {
		principal, err = identity.NewPrincipal(cfg.Actor.ID, cfg.Actor.Role)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("UPKEEP_ACTOR_ID/UPKEEP_ACTOR_ROLE: %w", err)
		}
	} else {
		logger.Debug("no actor configured; request commands will be denied")
	}
	return cli.NewApp(container, principal), nil
}
