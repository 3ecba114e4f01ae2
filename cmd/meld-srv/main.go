package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"meld/internal/buildinfo"
	meld "meld/internal/config"
	"meld/internal/fit"
	"meld/internal/logging"
	"meld/internal/predict"
	"meld/internal/server"
	"meld/internal/setup"
	"meld/internal/shutdown"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	config := meld.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(ctx)

	shutdownCh := make(chan error, 2)
	stacks, err := env.ProvideManager()(shutdownCh)
	if err != nil {
		return fmt.Errorf("manager provider function error: %w", err)
	}
	if err := stacks.Run(ctx); err != nil {
		return fmt.Errorf("manager.Run: %w", err)
	}

	srv, err := server.New(config.SrvAddr, config.MaxConns)
	if err != nil {
		return fmt.Errorf("sever.New: %w", err)
	}

	mux := http.NewServeMux()

	predictHandler, err := predict.NewHandler(&config.Predict, stacks)
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}
	fitHandler, err := fit.NewHandler(&config.Fit, stacks)
	if err != nil {
		return fmt.Errorf("fit.NewHandler: %w", err)
	}

	mux.Handle("/predict", predictHandler)
	mux.Handle("/fit", fitHandler)
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/metrics", env.Exporter())

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
