package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/persistence"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/auth"
)

func managerCmd(env *adminEnv) *cobra.Command {
	c := &cobra.Command{
		Use:   "manager",
		Short: "Manage manager accounts",
	}

	c.AddCommand(managerCreateCmd(env))

	return c
}

func managerCreateCmd(env *adminEnv) *cobra.Command {
	var staff domain.NewStaff

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a manager who can then log in and add staff",
		Example: `  qcadmin manager create --name "Meera Iyer" --email meera@example.com \
    --phone 9800000000 --password 'S3cure!pass'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := env.openDatabase(cmd.Context())
			if err != nil {
				return err
			}

			defer func() { _ = db.Close() }()

			svc := app.NewManagerService(
				persistence.NewManagerRepository(db.DB),
				auth.NewBcryptHasher(0),
				auth.NewGenerator(auth.GeneratedPasswordLength),
				&app.ServiceConfig{Logger: env.logger},
			)

			m, err := svc.CreateManager(cmd.Context(), staff)
			if err != nil {
				return fmt.Errorf("creating manager: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created manager %s (%s)\n", m.ID, m.Email)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&staff.Name, "name", "", "full name")
	flags.StringVar(&staff.Email, "email", "", "login email")
	flags.StringVar(&staff.Phone, "phone", "", "phone number")
	flags.StringVar(&staff.Password, "password", "", "initial password")

	for _, name := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
