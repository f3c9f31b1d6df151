package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/upkeep/adapter/api"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	shutdownGrace time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Callers identify themselves with the X-User-ID and
X-User-Role headers set by a trusted gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		c := app.Container

		lim, err := api.NewLimiter(c.Config.HTTP.RateLimit, c.RedisClient)
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		cfg.Addr = c.Config.HTTP.Addr
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		server := api.NewServer(cfg, api.Deps{
			Coordinator: c.Coordinator,
			Limiter:     lim,
			Health:      c.Health,
			Gatherer:    c.Registry,
			Location:    app.Location,
		}, Logger())

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownGrace)
		defer cancel()
		return server.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().DurationVar(&shutdownGrace, "shutdown-grace", 10*time.Second, "time allowed for in-flight requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}
