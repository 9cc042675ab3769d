// Package cli provides the cobra command-line interface for the concierge
// query engine.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/veranda-labs/concierge/internal/adapters/driven/config/file"
	"github.com/veranda-labs/concierge/internal/adapters/driven/llm/openai"
	"github.com/veranda-labs/concierge/internal/adapters/driven/querylog/sqlite"
	"github.com/veranda-labs/concierge/internal/adapters/driven/store/memory"
	mongostore "github.com/veranda-labs/concierge/internal/adapters/driven/store/mongo"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
	"github.com/veranda-labs/concierge/internal/core/services"
	"github.com/veranda-labs/concierge/internal/logger"
)

var (
	flagVerbose  bool
	flagConfig   string
	flagMongoURI string
	flagMongoDB  string
	flagSeedFile string
	flagDataDir  string
	flagNoLog    bool
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Natural-language query engine for local discovery",
	Long: `Concierge answers free-text questions about restaurants, events,
leisure and wellness venues by planning and executing document-store
queries, then synthesizing a natural-language reply with entity profiles.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default ~/.concierge/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagMongoURI, "mongo-uri", "", "MongoDB connection string")
	rootCmd.PersistentFlags().StringVar(&flagMongoDB, "mongo-db", "concierge", "MongoDB database name")
	rootCmd.PersistentFlags().StringVar(&flagSeedFile, "data", "", "JSON seed file for the in-memory store (offline mode)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory for the query log (default ~/.concierge/data)")
	rootCmd.PersistentFlags().BoolVar(&flagNoLog, "no-log", false, "disable the durable query log")
}

// Execute runs the root command.
func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

// buildEngine assembles the query service from flags and environment.
// Returned closers release adapter resources.
func buildEngine(ctx context.Context) (*services.Engine, func(), error) {
	settings, err := configfile.LoadSettings(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := buildStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() { _ = store.Close() })

	var generator driven.Generator
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		gen, err := openai.NewGenerator(openai.Config{
			APIKey:  key,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		generator = gen
		closers = append(closers, func() { _ = gen.Close() })
		logger.Debug("cli: generator enabled (%s)", gen.ModelName())
	} else {
		logger.Info("cli: OPENAI_API_KEY not set, running with deterministic fallbacks")
	}

	var queryLog driven.QueryLog
	if !flagNoLog {
		log, err := sqlite.NewQueryLog(flagDataDir)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		queryLog = log
		closers = append(closers, func() { _ = log.Close() })
	}

	return services.NewEngine(settings, store, generator, queryLog), closeAll, nil
}

func buildStore(ctx context.Context) (driven.DocumentStore, error) {
	if flagMongoURI != "" {
		return mongostore.NewDocumentStore(ctx, mongostore.Config{
			URI:      flagMongoURI,
			Database: flagMongoDB,
		})
	}
	if flagSeedFile == "" {
		return nil, fmt.Errorf("either --mongo-uri or --data is required")
	}
	store := memory.NewDocumentStore()
	if err := store.LoadFile(flagSeedFile); err != nil {
		return nil, err
	}
	return store, nil
}
