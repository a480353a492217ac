package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/calctutor/internal/config"
	"github.com/abhisek/calctutor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "calctutor",
	Short: "Calculus tutor chat",
	Long: "calctutor is a calculus tutoring chat backed by the OpenAI Assistants API.\n" +
		"Run `calctutor serve` for the API and `calctutor chat` to talk to the tutor.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, "")
	},
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default $XDG_CONFIG_HOME/calctutor/config.yml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite path or postgres:// DSN (overrides CALCTUTOR_DB)")
	rootCmd.PersistentFlags().String("server", "", "API base URL for clients (overrides CALCTUTOR_SERVER_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(assistantCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newManCmd(rootCmd))
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DB = db
	}
	if url, _ := cmd.Flags().GetString("server"); url != "" {
		cfg.Server.URL = url
	}
	return cfg, nil
}

// resolveDBPath returns the configured database, or the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DB == "" {
		return store.DefaultDBPath()
	}
	if store.IsPostgresDSN(cfg.DB) {
		return cfg.DB, nil
	}
	return cfg.DB, store.EnsureDir(cfg.DB)
}

func openStore(cfg config.Config) (*store.Store, error) {
	dsn, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
