// Package app assembles a ChatTarget and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"amlchat/internal/config"
	"amlchat/internal/contextutil"
	"amlchat/internal/handlers"
	"amlchat/internal/llm"
	"amlchat/internal/ratelimit"
	"amlchat/internal/retry"
	"amlchat/internal/service"
	"amlchat/internal/storage"
	"amlchat/internal/vectorstore"
)

// historyBackend is a history store that can report its health.
type historyBackend interface {
	service.HistoryStore
	handlers.Pinger
}

// App holds a wired ChatTarget and the resources behind it.
type App struct {
	Target       service.ChatTarget
	HealthChecks map[string]handlers.Pinger

	closers []func() error
}

// New wires the chat target described by cfg against the resolved endpoint.
func New(ctx context.Context, cfg *config.Config, target config.Target) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)
	a := &App{}

	history, err := a.openHistory(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	normalizer, err := llm.NormalizerByName(cfg.Normalizer)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	policy := retry.DefaultPolicy(service.IsTransient)
	policy.MaxAttempts = cfg.RetryMaxAttempts
	policy.InitialInterval = cfg.RetryWaitMin
	policy.MaxInterval = cfg.RetryWaitMax

	chatTarget, err := service.NewChatTarget(service.ChatTargetConfig{
		Endpoint:   llm.NewClient(target.EndpointURI()),
		Builder:    llm.NewRequestBuilder(target.APIKey()),
		History:    history,
		Normalizer: normalizer,
		Limiter:    ratelimit.New(cfg.MaxRequestsPerMinute),
		Retry:      policy,
		Params:     cfg.Params,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create chat target: %w", err)
	}

	a.Target = chatTarget
	a.HealthChecks = map[string]handlers.Pinger{"history_store": history}

	logger.InfoContext(ctx, "chat target ready",
		"endpoint", target.EndpointURI(),
		"history_backend", cfg.HistoryBackend,
		"normalizer", cfg.Normalizer,
		"max_requests_per_minute", cfg.MaxRequestsPerMinute,
		"retry_max_attempts", cfg.RetryMaxAttempts,
	)
	return a, nil
}

func (a *App) openHistory(ctx context.Context, cfg *config.Config) (historyBackend, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch cfg.HistoryBackend {
	case config.BackendQdrant:
		store, err := vectorstore.NewQdrantHistory(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}
		logger.InfoContext(ctx, "qdrant history ready", "url", cfg.QdrantURL, "collection", cfg.QdrantCollection)
		return store, nil

	case config.BackendSQLite, "":
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := storage.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)
		return storage.NewHistoryRepo(db), nil

	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

// Close releases the history backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
