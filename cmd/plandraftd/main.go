package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"

	"github.com/plandraft/plandraft"
	"github.com/plandraft/plandraft/api"
	"github.com/plandraft/plandraft/config"
	"github.com/plandraft/plandraft/geometry"
	"github.com/plandraft/plandraft/llm"
	"github.com/plandraft/plandraft/logstore"
	"github.com/plandraft/plandraft/vision"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(logstore.ParseLevel(cfg.Log.Level))

	store := logstore.NewStore(cfg.Log.Capacity)
	handler := logstore.Tee{
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}),
		logstore.NewHandler(store, slog.LevelDebug),
	}
	logger := slog.New(handler)

	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(os.Stdout),
		hertzslog.WithLevel(levelVar),
	))

	ctx := context.Background()

	provider, err := llm.ParseProvider(cfg.LLM.Provider)
	if err != nil {
		logger.Error("invalid LLM provider", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}

	client, err := llm.New(ctx, llm.Settings{
		Provider:          provider,
		Model:             cfg.LLM.Model,
		GeminiAPIKey:      cfg.LLM.GeminiAPIKey,
		AnthropicAPIKey:   cfg.LLM.AnthropicAPIKey,
		XAIAPIKey:         cfg.LLM.XAIAPIKey,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
	if err != nil {
		// A missing credential only disables generation; the log query API
		// and health endpoint stay up.
		if !errors.Is(err, plandraft.ErrMissingCredential) {
			logger.Error("failed to create LLM client", "provider", provider, "error", err)
			os.Exit(1)
		}
		logger.Warn("provider credential missing, generation disabled", "provider", provider)
		client = nil
	}

	httpExecutor, err := geometry.NewHTTPExecutor(cfg.Geometry.BaseURL)
	if err != nil {
		logger.Error("failed to create geometry executor", "error", err)
		os.Exit(1)
	}
	selector := geometry.NewSelector(httpExecutor, logger)

	var loop *plandraft.Loop
	if client != nil {
		loop = plandraft.NewLoop(client,
			plandraft.WithMaxIterations(cfg.Loop.MaxIterations),
			plandraft.WithLogger(logger),
		)
	}

	handlerOpts := []api.HandlerOption{
		api.WithCostRate(cfg.Vision.USDPer1KTokens),
	}
	if cfg.Vision.Enabled && client != nil {
		handlerOpts = append(handlerOpts, api.WithReviewer(vision.NewReviewer(client, logger)))
	}

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := api.NewServer(addr, api.NewHandler(loop, selector, store, logger, handlerOpts...))

	go func() {
		logger.Info("server starting", "addr", addr, "provider", provider, "geometry", cfg.Geometry.BaseURL)
		if err := srv.Run(); err != nil {
			logger.Error("server exited", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
