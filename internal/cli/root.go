// Package cli holds the command-line entry point: it loads configuration,
// builds the application graph and runs the HTTP server until signalled.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/deppfellow/demo-api/internal/config"
	"github.com/deppfellow/demo-api/internal/handler"
	"github.com/deppfellow/demo-api/internal/logger"
	"github.com/deppfellow/demo-api/internal/router"
	"github.com/deppfellow/demo-api/internal/server"
	"github.com/deppfellow/demo-api/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the demo-api command. Running it without a subcommand serves the API.
func newRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:          "demo-api",
		Short:        "Validate and acknowledge demo objects over HTTP",
		SilenceUsage: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFiles(envFiles)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "additional .env files to load, later files override earlier ones")

	cmd.AddCommand(newConfigCmd(&envFiles))

	return cmd
}

// newConfigCmd prints the effective configuration after env files and defaults are applied.
func newConfigCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFiles(*envFiles); err != nil {
				return err
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg.Observability.NewRelic.LicenseKey = redact(cfg.Observability.NewRelic.LicenseKey)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", *cfg)
			return err
		},
	}
}

func loadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Overload(paths...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// run wires config, logger, server, services, handlers and router, then
// serves until ctx is cancelled.
func run(ctx context.Context) error {
	// Bootstrap logger used until the configured one exists.
	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}

	loggerService := logger.NewLoggerService(&cfg.Observability)
	log := logger.NewLoggerWithService(&cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		loggerService.Shutdown()
		return err
	}

	services := service.NewServices(srv)
	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			srv.LoggerService.Shutdown()
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
