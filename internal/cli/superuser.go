package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/service"
)

// NewCreateSuperuserCommand creates the createsuperuser command. Staff
// accounts may edit and delete any recipe.
func NewCreateSuperuserCommand(rootOpts *RootOptions) *cobra.Command {
	var in service.RegisterInput

	cmd := &cobra.Command{
		Use:          "createsuperuser",
		Short:        "Create a staff account",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDB(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer database.Close(db)

			in.IsStaff = true
			user, err := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created with id %d.\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "User", "last name")
	for _, name := range []string{"email", "username", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
