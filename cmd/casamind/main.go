// Command casamind is the smart-home assistant. It reads turns from stdin
// and, optionally, serves them over a NATS request/reply subject.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/graph"
	"github.com/casamind/casamind/internal/handlers"
	"github.com/casamind/casamind/internal/health"
	"github.com/casamind/casamind/internal/iot"
	"github.com/casamind/casamind/internal/journal"
	"github.com/casamind/casamind/internal/observe"
	"github.com/casamind/casamind/internal/oracle"
	"github.com/casamind/casamind/internal/session"
	"github.com/casamind/casamind/internal/tools"
	"github.com/casamind/casamind/internal/transport"
	"github.com/casamind/casamind/pkg/provider/llm"
	"github.com/casamind/casamind/pkg/provider/llm/anyllm"
	"github.com/casamind/casamind/pkg/provider/llm/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	// Secrets come from the environment; a local .env is a convenience.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "casamind: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "casamind: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("casamind starting",
		"config", *configPath,
		"llm_provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── LLM oracle ────────────────────────────────────────────────────────────
	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		slog.Error("failed to build LLM provider", "err", err)
		return 1
	}
	brain := oracle.New(provider, logger, oracle.WithMaxTokens(cfg.LLM.MaxTokens))

	// ── IoT backend ───────────────────────────────────────────────────────────
	backend := iot.New(cfg.Backend, cfg.Space, logger)
	directory := devices.NewCache(backend, cfg.Devices.CacheTTL)

	var codebook *devices.Codebook
	if cfg.Devices.CodebookPath != "" {
		codebook, err = devices.LoadCodebook(cfg.Devices.CodebookPath)
		if err != nil {
			slog.Error("failed to load codebook", "path", cfg.Devices.CodebookPath, "err", err)
			return 1
		}
	}

	// ── Sessions ──────────────────────────────────────────────────────────────
	var sessions session.Store
	if cfg.Session.RedisURL != "" {
		sessions, err = session.NewRedisStore(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			slog.Error("failed to connect to redis", "err", err)
			return 1
		}
		slog.Info("using redis session store")
	} else {
		sessions = session.NewMemoryStore(cfg.Session.TTL)
	}
	defer sessions.Close()

	// ── Usage journal (optional) ──────────────────────────────────────────────
	var usage journal.Recorder = journal.Nop{}
	if cfg.Journal.PostgresDSN != "" {
		pg, err := journal.NewPostgres(ctx, cfg.Journal.PostgresDSN, logger)
		if err != nil {
			slog.Error("failed to open usage journal", "err", err)
			return 1
		}
		usage = pg
		slog.Info("device usage journal enabled")
	}
	defer usage.Close()

	// ── Chat tools ────────────────────────────────────────────────────────────
	registry := tools.NewRegistry()
	if cfg.Search.APIKey != "" {
		registry.Register(tools.NewWebSearch(cfg.Search))
		slog.Info("web search tool enabled")
	}

	// ── Conversation engine ───────────────────────────────────────────────────
	engine := graph.NewEngine(graph.EngineConfig{
		Oracle:    brain,
		Handlers:  handlers.New(brain, backend, codebook, usage, registry, logger),
		Directory: directory,
		Sessions:  sessions,
		Logger:    logger,
		Graph:     cfg.Graph,
	})

	// ── Metrics and health endpoints (optional) ───────────────────────────────
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		health.New(health.Directory(directory), health.Sessions(sessions)).Register(mux)
		srv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
		defer srv.Close()
		slog.Info("metrics and health endpoints up", "addr", cfg.Server.MetricsAddr)
	}

	// ── NATS gateway (optional) ───────────────────────────────────────────────
	if cfg.NATS.URL != "" {
		gateway, err := transport.NewGateway(cfg.NATS, engine, logger)
		if err != nil {
			slog.Error("failed to start nats gateway", "err", err)
			return 1
		}
		defer gateway.Close()
	}

	slog.Info("ready — type a message, Ctrl+C to quit")

	if err := repl(ctx, engine); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// repl reads turns from stdin and prints replies until EOF or cancel.
func repl(ctx context.Context, engine *graph.Engine) error {
	sessionID := uuid.NewString()
	scanner := bufio.NewScanner(os.Stdin)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Print("> ")
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			if line == "" {
				fmt.Print("> ")
				continue
			}
			res, err := engine.ProcessTurn(ctx, sessionID, line)
			if err != nil {
				fmt.Printf("error: %v\n", err)
			} else if res.Reply != "" {
				fmt.Println(res.Reply)
			}
			fmt.Print("> ")
		}
	}
}

// buildProvider constructs the configured LLM backend. "openai" covers any
// OpenAI-compatible endpoint via base_url; everything else goes through
// any-llm-go.
func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	if cfg.Provider == "openai" {
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, openai.WithTimeout(cfg.Timeout))
		}
		return openai.New(cfg.APIKey, cfg.Model, opts...)
	}

	var opts []anyllmlib.Option
	if cfg.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}
	return anyllm.New(cfg.Provider, cfg.Model, opts...)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
