package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crimson-sun/runlog/internal/config"
	"github.com/crimson-sun/runlog/internal/logging"
	"github.com/crimson-sun/runlog/internal/output"
	"github.com/crimson-sun/runlog/internal/output/console"
	"github.com/crimson-sun/runlog/internal/output/file"
	"github.com/crimson-sun/runlog/internal/output/history"
	"github.com/crimson-sun/runlog/internal/output/multi"
	"github.com/crimson-sun/runlog/internal/transport/httprecv"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.ShowVersion {
		fmt.Println("runlog", config.Version)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logging.Init(os.Stderr, false, logging.ParseLevel(cfg.LogLevel))
	logger := logging.WithComponent("runlog")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out, err := buildOutput(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httprecv.New(out, logging.WithComponent("httprecv")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "root", cfg.Output.Root, "format", cfg.Output.Format)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	if err := out.Close(); err != nil {
		logger.Error("closing outputs", "error", err)
		os.Exit(1)
	}
}

// buildOutput assembles the console, file and optional history outputs.
func buildOutput(ctx context.Context, cfg config.Config) (output.Output, error) {
	oc := cfg.Output

	consolePolicy, err := output.ParsePolicy(oc.PrintLogsToConsole, output.PolicyOnFail)
	if err != nil {
		return nil, err
	}
	filePolicy, err := output.ParsePolicy(oc.PrintLogsToFile, output.PolicyAlways)
	if err != nil {
		return nil, err
	}
	format, err := file.ParseFormat(oc.Format)
	if err != nil {
		return nil, err
	}

	consoleOpts := []console.Option{console.WithPolicy(consolePolicy)}
	fileOpts := []file.Option{
		file.WithFormat(format),
		file.WithSpecRoot(oc.SpecRoot),
		file.WithPolicy(filePolicy),
	}
	if oc.IncludeSuccessfulHookLogs {
		consoleOpts = append(consoleOpts, console.WithSuccessfulHooks())
		fileOpts = append(fileOpts, file.WithSuccessfulHooks())
	}

	outputs := []output.Output{console.New(os.Stdout, consoleOpts...)}
	if filePolicy != output.PolicyNever {
		fo, err := file.New(oc.Root, fileOpts...)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, fo)
	}
	if oc.HistoryDB != "" {
		h, err := history.Open(ctx, oc.HistoryDB)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, h)
		slog.Info("recording history", "db", oc.HistoryDB)
	}
	return multi.New(outputs...), nil
}
