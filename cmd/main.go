package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidbz/shopscribe/internal/audit"
	"github.com/davidbz/shopscribe/internal/catalog"
	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/http"
	"github.com/davidbz/shopscribe/internal/settings"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopscribe",
		Short:         "LLM copywriting backend for shop product and category texts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCmd(), newModelsCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container := buildContainer()

			return container.Invoke(func(server *http.Server, logger *zap.Logger) error {
				defer func() { _ = logger.Sync() }()

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				errCh := make(chan error, 1)
				go func() {
					errCh <- server.Start()
				}()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models <provider>",
		Short: "Refresh and print the live model list of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container := buildContainer()

			return container.Invoke(func(
				reg domain.ProviderRegistry,
				models *catalog.Catalog,
				src *settings.Source,
			) error {
				ctx := cmd.Context()

				provider, err := reg.Get(ctx, args[0])
				if err != nil {
					return err
				}
				cfg, err := src.Load(ctx)
				if err != nil {
					return err
				}

				list, err := models.Refresh(ctx, provider, cfg.APIKey(provider.APIKeyOption()))
				if err != nil {
					return err
				}
				for _, model := range list {
					fmt.Fprintln(cmd.OutOrStdout(), model)
				}
				return nil
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply audit database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container := buildContainer()

			return container.Invoke(func(cfg *audit.Config) error {
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL is not set")
				}

				store, err := audit.NewPostgresStore(cmd.Context(), cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Migrate(cmd.Context()); err != nil {
					return err
				}
				log.Println("migrations applied")
				return nil
			})
		},
	}
}
