package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antoniostano/claria/internal/app"
	"github.com/antoniostano/claria/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket service",
	Long: `Run the HTTP and websocket service.

Configuration is read from the environment (APP_BIND_ADDR, DATABASE_URL,
CONVERSATION_BACKEND, GROQ_API_KEY, ...). --addr overrides APP_BIND_ADDR.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.BindAddr = addr
		}
		if err := app.ConfigureLogging(cfg); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides APP_BIND_ADDR)")
}

func serve(ctx context.Context, cfg config.Config) error {
	built, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			log.WithError(err).Warn("cleanup failed")
		}
	}()
	if !built.ProviderConfigured {
		log.Warn("no completion provider configured; classification and chat use fail-safe defaults")
	}

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: built.API.Router(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.BindAddr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
		_ = httpServer.Close()
	}
	log.Info("shutdown complete")
	return nil
}
