package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/service"
)

// NewImportIngredientsCommand creates the import-ingredients command.
func NewImportIngredientsCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "import-ingredients",
		Short: "Load ingredients from a JSON file",
		Long: `Load a JSON array of {"name", "measurement_unit"} objects.

Ingredients whose name already exists are left alone. Invalid items are
reported and skipped.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			db, _, err := openDB(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer database.Close(db)

			result, err := service.NewCatalogService(db).ImportIngredients(cmd.Context(), f)
			if err != nil {
				return err
			}
			for _, msg := range result.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ingredients.\n", result.Added)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "path to the JSON file")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}
