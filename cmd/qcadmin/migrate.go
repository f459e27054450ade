package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/persistence"
)

func migrateCmd(env *adminEnv) *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the SQL schema migrations (postgres only)",
	}

	c.AddCommand(
		migrateRunCmd(env, "up", "Apply every pending migration", (*persistence.Migrator).Up),
		migrateRunCmd(env, "down", "Roll back every migration", (*persistence.Migrator).Down),
		migrateVersionCmd(env),
	)

	return c
}

func migrateRunCmd(env *adminEnv, use, short string, step func(*persistence.Migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, env, step)
		},
	}
}

func migrateVersionCmd(env *adminEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, env, func(m *persistence.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("reading migration version: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\n", version)

				if dirty {
					fmt.Fprintln(cmd.OutOrStdout(), "dirty: the last migration failed part way, fix it and force the version")
				}

				return nil
			})
		},
	}
}

// withMigrator opens the database, runs fn and closes both again. Closing
// the migrator closes the database.
func withMigrator(cmd *cobra.Command, env *adminEnv, fn func(*persistence.Migrator) error) error {
	db, err := env.openDatabase(cmd.Context())
	if err != nil {
		return err
	}

	m, err := persistence.NewMigrator(db, env.logger)
	if err != nil {
		_ = db.Close()
		return err
	}

	defer func() {
		if cerr := m.Close(); cerr != nil {
			env.logger.Warn("closing migrator", "error", cerr)
		}
	}()

	return fn(m)
}
