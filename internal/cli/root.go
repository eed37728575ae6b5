// Package cli implements the dojo CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/adapters/history"
	"github.com/okian/dojo/internal/adapters/store"
	"github.com/okian/dojo/internal/config"
	"github.com/okian/dojo/pkg/logger"
)

var (
	cfg *config.Config

	dataDirFlag   string
	historyDBFlag string
	logLevelFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "dojo",
	Short: "Timed key training against reference patterns",
	Long: "Compares recorded key sessions against authored reference patterns " +
		"and reports per-action timing feedback and scores. Pattern and " +
		"recording files live under the data directory; score history is " +
		"kept in SQLite.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cmd.Context())
		if err != nil {
			return err
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		if historyDBFlag != "" {
			cfg.HistoryDB = historyDBFlag
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		if err := logger.Init(); err != nil {
			return err
		}
		return logger.SetLevelString(cfg.LogLevel)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "", "Data directory for patterns and recordings (default from config)")
	RootCmd.PersistentFlags().String("config", "", "Config file path (equivalent to DOJO_CONFIG)")
	RootCmd.PersistentFlags().StringVar(&historyDBFlag, "history-db", "", "Score history database path (default from config)")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	// The config flag is read before config.Load runs, so wire it through
	// the environment variable the loader already understands.
	cobra.OnInitialize(func() {
		if path, _ := RootCmd.PersistentFlags().GetString("config"); path != "" {
			os.Setenv("DOJO_CONFIG", path)
		}
	})
}

func openStore() (*store.FileStore, error) {
	return store.NewFileStore(cfg.DataDir)
}

func openHistory() (*history.SQLiteStore, error) {
	return history.NewSQLiteStore(cfg.HistoryDB)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
