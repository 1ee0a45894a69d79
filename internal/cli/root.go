// Package cli defines the library-manager command tree.
package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entrypoint"
	"github.com/mrlokans/library-manager/internal/logging"
)

// Runtime carries what every command needs. Config is read from the
// environment once, when the root command starts.
type Runtime struct {
	Version string
	Config  *config.Config
	Logger  *log.Logger
}

// openApp connects to the configured store for one-shot commands.
func (rt *Runtime) openApp() (*entrypoint.App, error) {
	return entrypoint.Open(rt.Config, rt.Logger)
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version string) *cobra.Command {
	rt := &Runtime{Version: version}

	root := &cobra.Command{
		Use:           "library-manager",
		Short:         "Library management REST service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			rt.Config = config.NewConfig()
			rt.Logger = logging.New(os.Stderr, rt.Config.Log)
			log.SetDefault(rt.Logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(rt.Config, rt.Logger, rt.Version)
		},
	}

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newSeedCommand(rt),
		newReportCommand(rt),
		newStaffCommand(rt),
	)
	return root
}

func newServeCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(rt.Config, rt.Logger, rt.Version)
		},
	}
}

func newMigrateCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open migrates as part of connecting.
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()
			rt.Logger.Info("Migration complete", "driver", app.DB.Driver)
			return nil
		},
	}
}
