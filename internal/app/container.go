// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"time"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/infrastructure/ai"
	"github.com/YUHAI0/shex/internal/infrastructure/config"
	"github.com/YUHAI0/shex/internal/infrastructure/executor"
	"github.com/YUHAI0/shex/internal/infrastructure/history"
	"github.com/YUHAI0/shex/internal/infrastructure/security"
	"github.com/YUHAI0/shex/internal/pkg/logger"
	"github.com/YUHAI0/shex/internal/ports"
	"github.com/YUHAI0/shex/internal/services"
)

// Container holds the dependency graph for one invocation.
type Container struct {
	Config       domain.Config
	ConfigLoader *config.FileLoader
	Orchestrator *services.Orchestrator
	Classifier   ports.RiskClassifier
	HistoryStore *history.SQLiteStore
	Logger       ports.Logger

	// LastResult is set by the root command after a run so main can map the
	// terminal result onto the exit-code contract.
	LastResult *domain.LoopResult
}

// BuildContainer constructs the dependency graph. The confirmation prompter
// is left for the CLI layer to inject, since the policy depends on flags and
// terminal state.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)

	var classifier ports.RiskClassifier
	if cfg.Security.Enabled {
		classifier, err = security.NewClassifier(cfg.Security.RulesFile)
		if err != nil {
			return nil, err
		}
	} else {
		classifier = security.AllowAll{}
	}

	historyStore, err := history.NewSQLiteStore("")
	if err != nil {
		// Audit is best-effort: run without it rather than failing startup.
		log.Warn("history store unavailable", map[string]interface{}{"error": err.Error()})
		historyStore = nil
	}

	orchestrator := &services.Orchestrator{
		Config:          cfg,
		ProviderFactory: ai.NewFactory(cfg.Preferences.Language),
		Classifier:      classifier,
		Executor:        executor.NewLocalExecutor(cfg.Execution.Shell, time.Duration(cfg.Execution.TimeoutSeconds)*time.Second),
		Logger:          log,
	}
	if historyStore != nil {
		orchestrator.Sink = historyStore
	}

	return &Container{
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Orchestrator: orchestrator,
		Classifier:   classifier,
		HistoryStore: historyStore,
		Logger:       log,
	}, nil
}
