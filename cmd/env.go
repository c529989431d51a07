package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/interstellar-mare/advisor/internal/conversation"
	"github.com/interstellar-mare/advisor/internal/extract"
	"github.com/interstellar-mare/advisor/internal/llm"
	"github.com/interstellar-mare/advisor/internal/question"
	"github.com/interstellar-mare/advisor/internal/store"
	"github.com/interstellar-mare/advisor/internal/tier"
	"github.com/interstellar-mare/advisor/pkg/anthropic"
)

// advisorEnv holds the wired components shared by the serve, chat, and tier
// commands. Callers should defer env.Close().
type advisorEnv struct {
	Store        store.Store
	Orchestrator *conversation.Orchestrator
	Classifier   *tier.Classifier
}

func (e *advisorEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "advisor.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initAdvisor sets up the store, the generation stack, and the orchestrator.
func initAdvisor(ctx context.Context) (*advisorEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// The generation capability is optional: without a key the advisor
	// still runs on deterministic templates.
	var gen llm.Generator
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		gen = llm.NewResilientGenerator(
			llm.NewAnthropicGenerator(client, cfg.Anthropic.Model),
			llm.ResilientConfig{
				Timeout:           time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
				MaxAttempts:       cfg.Anthropic.MaxAttempts,
				Backoff:           time.Duration(cfg.Anthropic.BackoffSecs) * time.Second,
				RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
			},
		)
	} else {
		zap.L().Warn("ADVISOR_ANTHROPIC_KEY not set, running with deterministic templates only")
	}

	classifier := tier.New(gen)
	orch := conversation.New(
		st,
		extract.New(cfg.Advisor.Currency),
		question.New(),
		classifier,
		gen,
		conversation.Options{
			AssistantName:  cfg.Advisor.AssistantName,
			HistoryWindow:  cfg.Advisor.HistoryWindow,
			DisablePhrased: cfg.Advisor.DisablePhrased,
		},
	)

	return &advisorEnv{Store: st, Orchestrator: orch, Classifier: classifier}, nil
}
