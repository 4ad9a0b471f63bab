package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/catalog-server/internal/config"
	"github.com/listenupapp/catalog-server/internal/di"
	"github.com/listenupapp/catalog-server/internal/logger"
)

var (
	dataPath      string
	storeDriver   string
	mongoURI      string
	mongoDatabase string
	envFile       string
	verbose       bool

	injector *do.RootScope
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Operate on a catalog store without the HTTP server",
	Long: `catalogctl opens the same store the server uses (selected by STORE_DRIVER or
--store) and runs maintenance commands against it.

The badger store holds a directory lock; stop the server before using
catalogctl against a badger data path.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The schema is embedded; no store needed.
		if cmd.Name() == "schema" {
			return nil
		}

		cfg, err := config.Load(configArgs())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		log := logger.New(logger.Config{
			Level:       level,
			Environment: cfg.App.Environment,
			Writer:      cmd.ErrOrStderr(),
		})

		injector = di.NewOfflineContainer(cfg, log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

// configArgs forwards the persistent flags that were set to config.Load, which
// merges them with the environment and .env file.
func configArgs() []string {
	args := []string{"-env-file", envFile}
	flags := []struct {
		name  string
		value string
	}{
		{"-data-path", dataPath},
		{"-store", storeDriver},
		{"-mongodb-uri", mongoURI},
		{"-mongodb-database", mongoDatabase},
	}
	for _, f := range flags {
		if f.value != "" {
			args = append(args, f.name, f.value)
		}
	}
	return args
}

// shutdown drains background work and closes the store.
func shutdown() {
	if injector == nil {
		return
	}
	log := do.MustInvoke[*logger.Logger](injector)
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}
	injector = nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Base path for local data (overrides DATA_PATH)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Store driver: sqlite, badger or mongo (overrides STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongodb-uri", "", "MongoDB connection string (overrides MONGODB_URI)")
	rootCmd.PersistentFlags().StringVar(&mongoDatabase, "mongodb-database", "", "MongoDB database name")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Log debug output to stderr")

	rootCmd.SetOut(os.Stdout)
}
