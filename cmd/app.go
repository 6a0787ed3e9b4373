package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/homemetric/valuation-cli/internal/cities"
	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/monitoring"
	"github.com/homemetric/valuation-cli/internal/store"
	"github.com/homemetric/valuation-cli/internal/valuation"
	"github.com/homemetric/valuation-cli/pkg/perplexity"
)

// appEnv bundles the wired subsystems a command needs.
type appEnv struct {
	engine   *valuation.Engine
	resolver *cities.Resolver
	store    store.Store
	runtime  *monitoring.Runtime
}

func (e *appEnv) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			zap.L().Warn("closing store", zap.Error(err))
		}
	}
}

// initApp wires the engine, city resolver, and optionally the history
// store from the loaded configuration.
func initApp(ctx context.Context, withStore bool, opts ...valuation.Option) (*appEnv, error) {
	env := &appEnv{runtime: monitoring.NewRuntime()}

	artifact, err := loadArtifact(cfg.Valuation)
	if err != nil {
		// A broken artifact is not fatal: the engine degrades to the
		// closed-form estimator.
		zap.L().Warn("model artifact unavailable, valuations will use the closed-form estimator",
			zap.String("path", cfg.Valuation.ArtifactPath),
			zap.Error(err))
		artifact = nil
	}

	env.engine, err = valuation.New(cfg.Valuation, cfg.Market, cfg.Recommend, artifact, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "init engine")
	}

	table := cities.DefaultTable()
	if cfg.Cities.TablePath != "" {
		table, err = cities.LoadTable(cfg.Cities.TablePath)
		if err != nil {
			return nil, eris.Wrap(err, "load city table")
		}
	}

	var client perplexity.Client
	if cfg.Perplexity.Key != "" {
		pOpts := []perplexity.Option{perplexity.WithModel(cfg.Perplexity.Model)}
		if cfg.Perplexity.BaseURL != "" {
			pOpts = append(pOpts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		client = perplexity.NewClient(cfg.Perplexity.Key, pOpts...)
	}
	env.resolver = cities.NewResolver(table, client, cfg.Perplexity.QueriesPerMinute)
	env.resolver.OnEnrich(env.runtime.RecordEnrichment)

	if withStore {
		env.store, err = store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		if err := env.store.Migrate(ctx); err != nil {
			env.store.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	return env, nil
}

func loadArtifact(vcfg config.ValuationConfig) (*valuation.Artifact, error) {
	if vcfg.ArtifactPath == "" {
		return valuation.DefaultArtifact(), nil
	}
	return valuation.LoadArtifact(vcfg.ArtifactPath)
}
