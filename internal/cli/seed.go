package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/library-manager/internal/seed"
)

func newSeedCommand(rt *Runtime) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load authors, categories, books, users and borrows from a TOML fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.Load(file)
			if err != nil {
				return err
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			seeder := &seed.Seeder{
				Authors:    app.Authors,
				Categories: app.Categories,
				Books:      app.Books,
				Users:      app.Users,
				Borrows:    app.Borrows,
				Logger:     rt.Logger,
			}
			summary, err := seeder.Apply(cmd.Context(), fixture)
			if err != nil {
				return fmt.Errorf("seed %s: %w", file, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d authors, %d categories, %d books (%d skipped), %d users, %d borrows\n",
				summary.Authors, summary.Categories, summary.Books, summary.BooksSkipped, summary.Users, summary.Borrows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.toml", "Path to the TOML fixture file")
	return cmd
}
