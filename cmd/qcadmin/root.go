package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/persistence"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// adminEnv is what every subcommand needs: the loaded config and a logger.
type adminEnv struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var (
		profile string
		env     adminEnv
	)

	cmd := &cobra.Command{
		Use:          "qcadmin",
		Short:        "Administrative tasks for the QC audit service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if profile == "" {
				profile = os.Getenv("APP_ENVIRONMENT")
			}

			cfg, err := config.Load(profile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := cfg.Database.Validate(); err != nil {
				return err
			}

			env.cfg = cfg
			env.logger = logging.NewWithWriter(&logging.Config{
				Level:   cfg.Log.Level,
				Format:  "text",
				Service: "qcadmin",
				Version: cfg.App.Version,
			}, cmd.ErrOrStderr())

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "config profile under configs/ (defaults to $APP_ENVIRONMENT)")

	cmd.AddCommand(migrateCmd(&env), managerCmd(&env))

	return cmd
}

// openDatabase connects with the loaded config. With database.auto_migrate
// set the schema is created from the models.
func (e *adminEnv) openDatabase(ctx context.Context) (*persistence.Database, error) {
	db, err := persistence.Open(ctx, &e.cfg.Database, e.logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}
