package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/sweettreats-backend/pkg/config"
	"github.com/angelmondragon/sweettreats-backend/pkg/db"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations when running in dev with auto-migrate enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Storage.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, client, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
