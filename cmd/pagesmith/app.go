package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"pagesmith/internal/config"
	"pagesmith/internal/enrichment"
	"pagesmith/internal/generator"
	"pagesmith/internal/history"
	"pagesmith/internal/logger"
	"pagesmith/internal/orchestrator"
	"pagesmith/internal/provider"
	"pagesmith/internal/quality"
	"pagesmith/internal/rotation"
	"pagesmith/internal/storage"
	"pagesmith/internal/uniqueness"
)

// app holds the long-lived components a command needs.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store *storage.SQLiteStore

	closers []func() error
}

func openApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &app{cfg: cfg, log: log, store: store, closers: []func() error{store.Close}}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.log.Sync()
}

// history restores the variation history from the configured backend.
func (a *app) history(ctx context.Context) (*history.History, error) {
	opts := history.Options{
		Window:     a.cfg.History.Window,
		FlushEvery: a.cfg.History.FlushEvery,
		Logger:     a.log,
	}
	switch a.cfg.History.Backend {
	case "redis":
		rs, err := history.NewRedisStore(ctx, a.cfg.History.RedisAddr, a.cfg.History.RedisKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		opts.Store = rs
	case "memory":
	default:
		opts.Store = history.NewFileStore(a.cfg.History.Path)
	}
	return history.Load(ctx, opts)
}

func (a *app) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	h, err := a.history(ctx)
	if err != nil {
		return nil, err
	}
	rot := rotation.New(h, rotation.Options{Logger: a.log})

	entries := make([]provider.Options, 0, len(a.cfg.AI.Providers))
	for _, p := range a.cfg.AI.Providers {
		entries = append(entries, provider.Options{Name: p.Name, APIKey: p.APIKey, Model: p.Model, BaseURL: p.BaseURL})
	}
	chain, err := provider.BuildChain(ctx, entries, a.cfg.AI.Timeout.Std(), a.log)
	if err != nil {
		return nil, err
	}

	facts, err := enrichment.LoadFile(a.cfg.Enrichment.Path, a.cfg.Enrichment.MinFacts, a.log)
	if err != nil {
		return nil, err
	}

	gen := generator.New(generator.Deps{
		Chain:    chain,
		Facts:    facts,
		Rotation: rot,
		Uniqueness: uniqueness.NewEngine(h, uniqueness.Config{
			DiversityFloor: a.cfg.Uniqueness.DiversityFloor,
			MaxAttempts:    a.cfg.Uniqueness.MaxAttempts,
		}, a.log),
		Quality: quality.NewGate(quality.Config{
			MinWords:   a.cfg.Quality.MinWords,
			DensityMin: a.cfg.Quality.DensityMin,
			DensityMax: a.cfg.Quality.DensityMax,
			MinScore:   a.cfg.Quality.MinScore,
			HardReject: a.cfg.Quality.HardReject,
		}),
		Logger: a.log,
	}, generator.Config{
		Strategy:    rotation.ParseStrategy(a.cfg.Generation.Strategy),
		MaxTokens:   a.cfg.AI.MaxTokens,
		Temperature: a.cfg.AI.Temperature,
	})

	a.log.Info("generator ready", "providers", chain.Names(), "strategy", a.cfg.Generation.Strategy)
	return orchestrator.New(orchestrator.Deps{
		Store:     a.store,
		Generator: gen,
		Rotation:  rot,
		Logger:    a.log,
	}, orchestrator.Config{
		BatchSize: a.cfg.Generation.BatchSize,
		Workers:   a.cfg.Generation.Workers,
		Policy:    orchestrator.Policy(a.cfg.Generation.Policy),
	}), nil
}

// reportPath names a per-run report file, or "" when reports are off.
func (a *app) reportPath(templateID string) string {
	if a.cfg.Generation.ReportDir == "" {
		return ""
	}
	name := fmt.Sprintf("%s-%s.json", templateID, time.Now().UTC().Format("20060102T150405Z"))
	return filepath.Join(a.cfg.Generation.ReportDir, name)
}
