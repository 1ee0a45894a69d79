// Command generate_demo creates a demo database filled with public domain books,
// their authors, a few patrons and a borrow history.
// Usage: go run ./cmd/generate_demo [--db path/to/demo.db]
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/authors"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/borrows"
	"github.com/mrlokans/library-manager/internal/database/categories"
	"github.com/mrlokans/library-manager/internal/database/links"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/seed"
)

const defaultDemoDatabasePath = "./demo/demo.db"

//go:embed demo.toml
var demoFixture []byte

func main() {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "generate_demo",
		Short: "Create a demo library database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), dbPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDemoDatabasePath, "path to the demo database file")

	if err := cmd.Execute(); err != nil {
		log.Fatal("Failed to generate demo database", "err", err)
	}
}

func generate(ctx context.Context, dbPath string) error {
	log.Info("Generating demo database", "path", dbPath)

	// Start fresh
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing demo database: %w", err)
	}

	db, err := database.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	fixture, err := seed.Parse(demoFixture)
	if err != nil {
		return err
	}

	linkRepo := links.NewRepository(db.DB)
	seeder := &seed.Seeder{
		Authors:    authors.NewRepository(db.DB, linkRepo),
		Categories: categories.NewRepository(db.DB, linkRepo),
		Books:      books.NewRepository(db.DB, linkRepo),
		Users:      users.NewRepository(db.DB),
		Borrows:    borrows.NewRepository(db.DB, borrows.Options{}),
	}
	if _, err := seeder.Apply(ctx, fixture); err != nil {
		return err
	}

	log.Info("Demo database ready", "path", dbPath)
	return nil
}
