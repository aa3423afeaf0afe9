package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uniconnect/uniconnect/internal/app"
	"github.com/uniconnect/uniconnect/internal/usuarios"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	baseURL := flag.String("base-url", cfg.APIBaseURL, "usuarios service base URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := app.NewLoggerTo(os.Stderr, cfg)
	os.Exit(run(ctx, os.Stdout, logger, usuarios.NewClient(*baseURL, usuarios.WithLogger(logger))))
}

// run loads the list once and prints the rendered screen to out. An
// interrupt abandons the pending fetch and prints the screen as it stood;
// the fetch itself is not cancelled, so it cannot turn into a failure first.
func run(ctx context.Context, out io.Writer, logger *slog.Logger, source usuarios.Source) int {
	controller := usuarios.NewController(source, usuarios.WithControllerLogger(logger))
	controller.Activate(context.WithoutCancel(ctx))

	done := make(chan struct{})
	go func() {
		controller.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		controller.Deactivate()
	}

	state := controller.State()
	if err := usuarios.RenderText(out, usuarios.BuildScreen(state)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if state.Phase != usuarios.PhaseSuccess {
		return 1
	}
	return 0
}
