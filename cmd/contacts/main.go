package main

import (
	"fmt"
	"os"

	"github.com/maloquacious/semver"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maloquacious/contacts/internal/config"
	"github.com/maloquacious/contacts/internal/logger"
	"github.com/maloquacious/contacts/internal/shell"
	"github.com/maloquacious/contacts/internal/store"
	"github.com/maloquacious/contacts/internal/store/file"
	"github.com/maloquacious/contacts/internal/store/sqlite"
)

var (
	version   = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
	buildDate = ""
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs once flags and config are resolved.
type app struct {
	v          *viper.Viper
	configFile string

	cfg     *config.Config
	log     logger.Logger
	backend store.Backend
	store   *store.Store
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:                "contacts",
		Short:              "Single-user contact manager",
		Long:               "Manage contacts from an interactive menu, or script them with subcommands.\nRun without a subcommand to start the menu.",
		Version:            version.String(),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runShell,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./contacts.yaml or ~/.config/contacts/contacts.yaml)")
	pf.String("data-file", "", "contact data file (default contacts.dat, or contacts.db with the sqlite backend)")
	pf.String("backend", config.BackendFile, "storage backend: file or sqlite")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.Bool("preserve-corrupt", false, "copy an unreadable data file aside before starting with an empty list")

	for key, name := range map[string]string{
		"data_file":        "data-file",
		"backend":          "backend",
		"log.level":        "log-level",
		"preserve_corrupt": "preserve-corrupt",
	} {
		if err := a.v.BindPFlag(key, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newSearchCmd(a),
		newListCmd(a),
		newInfoCmd(a),
		newExportCmd(a),
		newVerifyCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads configuration, builds the logger and selects the backend.
// The store itself is loaded on demand by open.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(cmd.ErrOrStderr(), logger.Options{Level: level, Color: cfg.Log.Color})

	switch cfg.Backend {
	case config.BackendSQLite:
		a.backend = sqlite.New(cfg.DataFile, sqlite.SchemaVersion, sqlite.Options{
			PreserveCorrupt: cfg.PreserveCorrupt,
			Logger:          a.log,
		})
	default:
		a.backend = file.New(afero.NewOsFs(), cfg.DataFile, file.Options{
			PreserveCorrupt: cfg.PreserveCorrupt,
			Logger:          a.log,
		})
	}
	a.log.Debug("configuration loaded", "backend", cfg.Backend, "data_file", cfg.DataFile)
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.backend == nil {
		return nil
	}
	if err := a.backend.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", a.backend.Path(), err)
	}
	return nil
}

// open loads the store from the configured backend the first time it is needed.
func (a *app) open() *store.Store {
	if a.store == nil {
		a.store = store.Open(a.backend, a.log)
	}
	return a.store
}

// runShell starts the interactive menu.
func (a *app) runShell(cmd *cobra.Command, args []string) error {
	return shell.New(a.open(), cmd.InOrStdin(), cmd.OutOrStdout()).Run()
}
