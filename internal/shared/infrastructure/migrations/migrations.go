// Package migrations owns the embedded schema for both storage backends.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database"
)

// Up brings the schema behind conn up to date.
func Up(ctx context.Context, conn database.Connection, cfg database.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	switch conn.Driver() {
	case database.DriverSQLite:
		holder, ok := conn.(interface{ DB() *sql.DB })
		if !ok {
			return fmt.Errorf("sqlite connection %T does not expose *sql.DB", conn)
		}
		applied, err := RunSQLite(ctx, holder.DB())
		if err != nil {
			return err
		}
		logger.Info("sqlite migrations applied", "count", len(applied), "versions", applied)
	case database.DriverPostgres:
		version, err := RunPostgres(cfg.URL)
		if err != nil {
			return err
		}
		logger.Info("postgres migrations applied", "version", version)
	default:
		return fmt.Errorf("no migrations for driver %q", conn.Driver())
	}
	return nil
}
