package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"securedprefs/config"
	"securedprefs/pkg/logging"
	"securedprefs/pkg/prefs"
)

type globalFlags struct {
	configPath string
	name       string
	dataDir    string
	encrypted  bool
}

// app carries state shared by subcommands.
type app struct {
	flags     globalFlags
	cfg       *config.Config
	openStore prefs.OpenFunc
}

func newRootCmd() *cobra.Command {
	a := &app{openStore: prefs.Open}

	rootCmd := &cobra.Command{
		Use:           "prefs",
		Short:         "prefs - typed, optionally encrypted local key-value store",
		Long:          `prefs reads and writes typed values in a local store, optionally encrypted at rest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Path to configuration file")
	pf.StringVar(&a.flags.name, "name", "", "Store name (default depends on --encrypted)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "Data directory")
	pf.BoolVar(&a.flags.encrypted, "encrypted", false, "Open the encrypted store")

	// Add subcommands
	rootCmd.AddCommand(a.putCmd())
	rootCmd.AddCommand(a.getCmd())
	rootCmd.AddCommand(a.containsCmd())
	rootCmd.AddCommand(a.removeCmd())
	rootCmd.AddCommand(a.keygenCmd())

	return rootCmd
}

// loadConfig reads configuration and applies command line overrides.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.flags.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		cfg.Store.Name = a.flags.name
	}
	if flags.Changed("data-dir") {
		if cfg.Security.KeyFile == config.DefaultKeyFile(cfg.Store.DataDir) {
			cfg.Security.KeyFile = ""
		}
		cfg.Store.DataDir = a.flags.dataDir
	}
	if flags.Changed("encrypted") {
		cfg.Store.Encrypted = a.flags.encrypted
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	a.cfg = cfg
	return nil
}

// open loads configuration and opens a store owned by the calling command.
func (a *app) open(cmd *cobra.Command) (*prefs.Handle, error) {
	if err := a.loadConfig(cmd); err != nil {
		return nil, err
	}

	logger, err := logging.New(a.cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	return a.openStore(prefs.OptionsFromConfig(a.cfg, logger))
}

// withStore wraps a command body that needs the store.
func (a *app) withStore(run func(cmd *cobra.Command, h *prefs.Handle, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		h, err := a.open(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := h.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close store: %w", cerr)
			}
		}()
		return run(cmd, h, args)
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
