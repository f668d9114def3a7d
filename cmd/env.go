package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rdti-cli/internal/compliance"
	"github.com/sells-group/rdti-cli/internal/db"
	"github.com/sells-group/rdti-cli/internal/review"
	"github.com/sells-group/rdti-cli/internal/rules"
	anthropicpkg "github.com/sells-group/rdti-cli/pkg/anthropic"
)

// complianceEnv holds the initialized store, data source, and engine
// needed by the compliance and serve commands.
type complianceEnv struct {
	Store  compliance.Store
	Data   compliance.DataSource
	Engine *compliance.Engine
}

// Close releases resources held by the environment.
func (ce *complianceEnv) Close() {
	if ce.Store != nil {
		ce.Store.Close()
	}
}

// initCompliance builds the check store and domain data source per the
// configured driver. Callers should defer env.Close().
func initCompliance(ctx context.Context) (*complianceEnv, error) {
	env := &complianceEnv{}

	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		env.Store = compliance.NewPostgresStore(pool)
		env.Data = compliance.NewPostgresData(pool)

	case "sqlite":
		if cfg.Store.CaseFile == "" {
			return nil, eris.New("store.case_file is required for the sqlite driver")
		}
		store, err := compliance.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		data, err := compliance.LoadFileData(cfg.Store.CaseFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		env.Store = store
		env.Data = data

	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := env.Store.Migrate(ctx); err != nil {
		env.Close()
		return nil, err
	}

	env.Engine = compliance.NewEngine(env.Store, env.Data, cfg.Overview.Concurrency)
	return env, nil
}

// initRules loads the configured rule table, falling back to the built-in
// table when no path is set.
func initRules() (*rules.Engine, error) {
	if cfg.Rules.Path == "" {
		return rules.DefaultEngine(), nil
	}
	table, err := rules.LoadFile(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(table)
}

// initScorer builds the blended success scorer. Without an Anthropic key
// the scorer still works in rule-only fallback mode.
func initScorer() (*review.Scorer, error) {
	engine, err := initRules()
	if err != nil {
		return nil, err
	}

	var ai anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("RDTI_ANTHROPIC_KEY not set, review scoring degrades to rules only")
	}

	scfg := review.DefaultConfig(cfg.Anthropic.Model)
	if cfg.Anthropic.MaxTokens > 0 {
		scfg.MaxTokens = int64(cfg.Anthropic.MaxTokens)
	}
	if cfg.Anthropic.TimeoutSecs > 0 {
		scfg.Timeout = time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second
	}
	if cfg.Anthropic.CallsPerMinute > 0 {
		scfg.CallsPerMinute = cfg.Anthropic.CallsPerMinute
	}
	if cfg.Scoring.RuleWeight > 0 || cfg.Scoring.AIWeight > 0 {
		scfg.RuleWeight = cfg.Scoring.RuleWeight
		scfg.AIWeight = cfg.Scoring.AIWeight
	}

	return review.NewScorer(engine, ai, scfg), nil
}
