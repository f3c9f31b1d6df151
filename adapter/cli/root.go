// Package cli is the upkeep command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/upkeep/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	logger    *slog.Logger
	bootstrap Bootstrap
)

// Bootstrap builds the application from the env file named by --config.
type Bootstrap func(ctx context.Context, cfgFile string, verbose bool) (*App, error)

// skipAppAnnotation marks commands that run without storage.
const skipAppAnnotation = "upkeep/skip-app"

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "upkeep",
	Short: "Upkeep - device maintenance scheduling",
	Long: `Upkeep books maintenance visits for owned devices and lets the
service desk review, re-time and approve them.

Commands act as the identity in UPKEEP_ACTOR_ID and UPKEEP_ACTOR_ROLE.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil && bootstrap != nil && cmd.Annotations[skipAppAnnotation] == "" {
			a, err := bootstrap(cmd.Context(), cfgFile, verbose)
			if err != nil {
				return err
			}
			SetApp(a)
		}
		if logger == nil {
			logger = slog.Default()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := observability.WithCorrelationID(cmd.Context(), info.correlationID.String())
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Info("command start",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Info("command end",
			"command", cmd.CommandPath(),
			"correlation_id", info.correlationID.String(),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute runs the command tree and releases the application afterwards.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if current != nil && current.Container != nil {
		current.Container.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetBootstrap installs the function that builds the application on first use.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "env file to load before the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Logger returns the CLI logger.
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
