package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uniconnect/uniconnect/internal/app"
	"github.com/uniconnect/uniconnect/internal/observability"
	"github.com/uniconnect/uniconnect/internal/shared"
	"github.com/uniconnect/uniconnect/internal/usuarios"
	"github.com/uniconnect/uniconnect/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	client := usuarios.NewClient(cfg.APIBaseURL,
		usuarios.WithMetrics(metrics),
		usuarios.WithLogger(logger))
	controller := usuarios.NewController(client,
		usuarios.WithControllerLogger(logger),
		usuarios.WithDropRecorder(metrics))
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.IsProduction())
	usuariosHandler := usuarios.NewHandler(logger, controller, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		UsuariosHandler: usuariosHandler,
		CSRFManager:     csrfManager,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	// Mount: the fetch is not tied to ctx, shutdown only abandons it.
	controller.Activate(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("api_base_url", cfg.APIBaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		controller.Deactivate()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
