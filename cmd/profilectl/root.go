package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/preferences"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/profile"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/registry"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/paths"
)

type cli struct {
	dataDir string
	legacy  string
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}
	defaults := config.LoadOrDefault()

	root := &cobra.Command{
		Use:   "profilectl",
		Short: "Manage CueDeck profiles",
		Long: `Manage CueDeck profiles offline.

Available subcommands:
  list      - List profiles, most recently used first
  create    - Create an empty profile
  delete    - Delete a profile and its directory
  duplicate - Copy a profile under a new name
  export    - Write a profile archive
  import    - Register a profile archive under a new name
  prefs     - Show or change a profile's preferences`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVarP(&c.dataDir, "data", "d", defaults.Storage.UserDataDir, "User data directory")
	root.PersistentFlags().StringVar(&c.legacy, "legacy-store", defaults.Storage.LegacyStore, "Legacy global settings file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		c.listCmd(),
		c.createCmd(),
		c.deleteCmd(),
		c.duplicateCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.prefsCmd(),
	)
	return root
}

// manager wires a lifecycle manager over the data directory
func (c *cli) manager() *profile.Manager {
	logger := logging.NewNop()
	if c.verbose {
		logger = logging.NewDevelopment()
	}
	layout := paths.NewLayout(c.dataDir)
	legacyPath := c.legacy
	if legacyPath == "" {
		legacyPath = layout.LegacyStore()
	}
	prefs := preferences.NewStore(layout, preferences.NewFileLegacySource(legacyPath), logger)
	return profile.NewManager(registry.NewStore(layout, logger), prefs, layout, logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
