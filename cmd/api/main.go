// Command api runs the manufacturing chatbot HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/api/config"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/api/handlers"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/api/metrics"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/logger"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/pipeline"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

const (
	defaultListenAddr      = "0.0.0.0:8000"
	defaultShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "HTTP server listen address")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", defaultShutdownTimeout, "server shutdown timeout")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.New(*verboseFlag)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Info("starting chatbot API",
		"project", cfg.ProjectID, "datasets", cfg.Datasets, "strategy", cfg.Strategy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wh, err := warehouse.NewBigQuery(ctx, log, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer wh.Close()

	// One-time initialization barrier: no requests are accepted until the
	// schema snapshot is loaded.
	snap, err := schema.NewRegistry(log, wh, cfg.Datasets).Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schema snapshot: %w", err)
	}
	log.Info("schema snapshot loaded", "tables", snap.TableCount(), "digest", snap.Digest())

	executor := pipeline.NewWarehouseExecutor(log, wh)

	var synth pipeline.Synthesizer
	var expl pipeline.Explainer
	if cfg.Strategy == config.StrategyGenerative {
		llm := pipeline.NewAnthropicLLMClient(log, anthropic.Model(cfg.AnthropicModel), cfg.MaxTokens)
		synth = pipeline.NewLLMSynthesizer(log, llm, cfg.ProjectID)
		expl = pipeline.NewLLMExplainer(log, llm)
	} else {
		synth = pipeline.NewRuleSynthesizer(log, cfg.ProjectID)
		expl = pipeline.NewTemplateExplainer(log)
	}

	pipe, err := pipeline.New(pipeline.Config{
		Logger:      log,
		Snapshot:    snap,
		Synthesizer: synth,
		Executor:    executor,
		Explainer:   expl,
		RunningTime: pipeline.NewRunningTimeEngine(log, executor, cfg.ProjectID, clockwork.NewRealClock()),
		Guard:       pipeline.NewGuard(cfg.ProjectID),
	})
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	h := handlers.NewChatbot(log, pipe, snap)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/chat", h.Chat)
	r.Post("/chat/stream", h.ChatStream)
	r.Get("/schemas", h.Schemas)
	r.Get("/examples", h.Examples)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              *listenAddrFlag,
		Handler:           r,
		ReadHeaderTimeout: 30 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server listening", "addr", *listenAddrFlag)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-shutdown:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownTimeoutFlag)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
