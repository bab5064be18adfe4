// Command courtside runs the streaming NBA analysis server.
//
// It answers chat requests over an SSE endpoint, letting the model call NBA
// data tools against a relational store for up to a fixed number of rounds
// before it must answer in prose.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	courtside "github.com/courtsideai/courtside"
	"github.com/courtsideai/courtside/internal/config"
	"github.com/courtsideai/courtside/observer"
	"github.com/courtsideai/courtside/provider/gemini"
	"github.com/courtsideai/courtside/store/postgres"
	"github.com/courtsideai/courtside/store/sqlite"
	"github.com/courtsideai/courtside/tools/nba"
)

func main() {
	configPath := flag.String("config", os.Getenv("COURTSIDE_CONFIG"), "path to TOML config file")
	flag.Parse()

	cfg := config.Load(*configPath)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Store
	store, cleanup, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer cleanup()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	// 2. Tools
	registry := courtside.NewRegistry()
	registry.Add(nba.New())

	// 3. Provider
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no LLM API key configured (set COURTSIDE_LLM_API_KEY)")
	}
	var provOpts []gemini.Option
	if cfg.LLM.SystemPrompt != "" {
		provOpts = append(provOpts, gemini.WithSystemPrompt(cfg.LLM.SystemPrompt))
	}
	if cfg.LLM.Thinking {
		provOpts = append(provOpts, gemini.WithThinking())
	}
	if cfg.LLM.GoogleSearch {
		provOpts = append(provOpts, gemini.WithGoogleSearch())
	}
	provider := gemini.New(cfg.LLM.APIKey, cfg.LLM.Model, provOpts...)

	// 4. Engine
	engineOpts := []courtside.EngineOption{
		courtside.WithLimits(engineLimits(cfg.Engine)),
		courtside.WithLogger(logger),
	}
	var inst *observer.Instruments
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			return fmt.Errorf("init observer: %w", err)
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutCtx)
		}()
		engineOpts = append(engineOpts, courtside.WithTracer(observer.NewTracer()))
	}
	engine := courtside.NewEngine(registry, nil, engineOpts...)

	// 5. Stream middleware: retry transient upstream failures before the
	// engine sees them.
	stream := courtside.WithRetry(
		provider.Stream(registry.AllDefinitions()),
		courtside.RetryLogger(logger),
	)

	// 6. HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", chatHandler(engine, stream, store, inst, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("server started", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// openStore builds the configured store backend. The returned cleanup closes
// whatever the store does not own itself.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (courtside.Store, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	case "sqlite", "":
		s := sqlite.New(cfg.Path)
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func engineLimits(cfg config.EngineConfig) courtside.Limits {
	return courtside.Limits{
		MaxRounds:     cfg.MaxRounds,
		MaxConcurrent: cfg.MaxConcurrent,
		CallTimeout:   time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		Budget:        time.Duration(cfg.BudgetSeconds) * time.Second,
		SafetyBuffer:  time.Duration(cfg.SafetyBufferSeconds) * time.Second,
		CacheTTL:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
		CacheSize:     cfg.CacheSize,
	}
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	// Message is the new user message.
	Message string `json:"message"`
	// History replays prior turns of the conversation, oldest first.
	History []courtside.Turn `json:"history,omitempty"`
	// MatchID optionally pins the conversation to one game.
	MatchID string `json:"match_id,omitempty"`
}

func chatHandler(engine *courtside.Engine, stream courtside.StreamFunc, store courtside.Store, inst *observer.Instruments, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if inst != nil {
			inst.Requests.Add(r.Context(), 1)
			defer func() {
				inst.RequestDuration.Record(r.Context(), float64(time.Since(start).Milliseconds()))
			}()
		}

		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if body.Message == "" {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}

		history := append(body.History, courtside.UserTurn(body.Message))
		req := courtside.Request{
			ID:      courtside.NewID(),
			MatchID: body.MatchID,
			Store:   store,
			Start:   start,
		}

		events := engine.Run(r.Context(), stream, history, req)
		if err := courtside.ServeSSE(w, events); err != nil {
			logger.Error("sse stream failed", "request_id", req.ID, "error", err)
		}
	}
}
