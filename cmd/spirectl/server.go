package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bugout-dev/spire/pkg/config"
	"github.com/bugout-dev/spire/pkg/db"
	"github.com/bugout-dev/spire/pkg/server"
	"github.com/bugout-dev/spire/pkg/server/endpoints"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Spire application server",
	Long: `Run the Spire application server.

To run the server requires the environment variables DATABASE_URL and
SPIRE_TOKEN_SIGNING_KEY.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		if host, _ := cmd.Flags().GetString("bind-address"); host != "" {
			cfg.ListenAddress = host
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Bad port %q: %v\n", port, err)
				os.Exit(1)
			}
			cfg.ListenPort = p
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}
		if cfg.TokenSigningKey == "" {
			fmt.Fprintln(os.Stderr, "SPIRE_TOKEN_SIGNING_KEY environment variable is required")
			os.Exit(1)
		}

		logger, err := buildLogger(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			logger.Info("running database migrations")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		gormDB, err := db.Connect(db.Config{URL: db.URL()})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to DB: %v\n", err)
			os.Exit(1)
		}

		s := server.NewServer(gormDB, cfg, logger)
		defer func() { _ = s.Close() }()

		endpoints.RegisterAll(s)

		if watch, _ := cmd.Flags().GetBool("watch-config"); watch {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				if err := config.Watch(ctx, logger); err != nil {
					logger.Warn("config watcher stopped", zap.Error(err))
				}
			}()
		}

		logger.Info("running server", zap.String("addr", cfg.ListenAddr()))
		if err := s.Start(); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", "", "server listen port (overrides config)")
	serverCmd.Flags().StringP("bind-address", "b", "", "server bind address (overrides config)")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", true, "reload configuration when the config file changes")
}
