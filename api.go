// Package gobundle resolves bundles of packages whose declared contracts
// must agree.
//
// A bundle is one concrete version for every required package name. Each
// version declares contracts, named values such as "api=3" or "schema=12",
// and every package in the bundle must agree on the value of any contract
// it shares with another. The resolver prefers the highest versions,
// downgrades when a lower contract value is the only way forward, and keeps
// trigger packages exactly as requested.
//
// # Quick Start
//
//	repo := []bundle.Package{
//	    bundle.NewRelease(bundle.ReleaseSpec{Name: "api", Version: "2", Contracts: map[string]string{"proto": "5"}}),
//	    bundle.NewRelease(bundle.ReleaseSpec{Name: "api", Version: "1", Contracts: map[string]string{"proto": "3"}}),
//	    bundle.NewRelease(bundle.ReleaseSpec{Name: "worker", Version: "1", Contracts: map[string]string{"proto": "3"}}),
//	}
//	result, err := gobundle.Resolve(ctx, gobundle.Request{
//	    Deps:       []string{"api", "worker"},
//	    Repository: repo,
//	})
//	// result selects api@1 and worker@1.
//
// Repositories can also be loaded from index files:
//
//	result, err := gobundle.ResolveIndex(ctx, "packages.star", []string{"api", "worker"}, nil)
//
// # Failures
//
// Resolution either returns a complete bundle or fails. Failures match
// ErrNotFound, ErrIncompatibleTriggers, ErrNoValidContractsGraph or
// ErrTriggerRemovalConflict with errors.Is, and carry a *bundle.Error
// whose Diagnostic method prints the state that led to them.
//
// # Thread Safety
//
// Resolve may be called concurrently over a shared repository.
package gobundle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albertocavalcante/go-bundle/bundle"
	"github.com/albertocavalcante/go-bundle/index"
)

// Resolve computes the bundle for req.
func Resolve(ctx context.Context, req Request, opts ...Option) (*Result, error) {
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := cfg.log()
	started := time.Now()
	logger.Debug("resolving bundle",
		"deps", req.Deps,
		"triggers", len(req.Triggers),
		"repository", len(req.Repository),
		"yanked", cfg.yankedBehavior.String())

	hook := func(s bundle.Step) error {
		logger.Debug("bundle step",
			"round", s.Round,
			"kind", string(s.Kind),
			"name", s.Name,
			"package", s.Package.String(),
			"removed", len(s.Removed))
		if cfg.onProgress != nil {
			cfg.onProgress(s)
		}
		return ctx.Err()
	}

	b, err := bundle.New(req.Deps, req.Repository, req.Triggers, cfg.bundleOptions(hook)...)
	if err != nil {
		m.observe(started, Summary{}, err)
		logger.Warn("bundle resolution failed", "error", err)
		return nil, err
	}

	selected, err := b.Calculate()
	if err != nil {
		m.observe(started, Summary{}, err)
		logger.Warn("bundle resolution failed", "error", err, "steps", len(b.Trace()))
		return nil, err
	}

	result := buildResult(b, selected, cfg, logger)
	m.observe(started, result.Summary, nil)
	logger.Info("bundle resolved",
		"packages", result.Summary.Total,
		"rounds", result.Summary.Rounds,
		"downgrades", result.Summary.Downgrades,
		"duration", time.Since(started))
	return result, nil
}

// ResolveIndex loads the repository from an index file and resolves deps
// against it. Triggers are given as refs.
func ResolveIndex(ctx context.Context, path string, deps []string, triggers []bundle.Ref, opts ...Option) (*Result, error) {
	idx, err := index.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return Resolve(ctx, Request{
		Deps:       deps,
		Repository: idx.Repository(),
		Triggers:   triggers,
	}, opts...)
}

// labeled is implemented by packages carrying free-form labels.
type labeled interface {
	Labels() map[string]string
}

func buildResult(b *bundle.Bundle, selected map[string]bundle.Package, cfg *resolverConfig, logger *slog.Logger) *Result {
	result := &Result{
		Contracts: b.Contracts().Values(),
		Steps:     b.Trace(),
		selected:  selected,
		order:     b.Order(),
	}

	for _, name := range b.Deps() {
		p := selected[name]
		sp := SelectedPackage{
			Name:      name,
			Package:   p.Name(),
			Version:   p.Version(),
			Contracts: p.Contracts().Values(),
			Trigger:   b.IsTrigger(name),
			Yanked:    bundle.IsYanked(p),
		}
		if l, ok := p.(labeled); ok {
			sp.Labels = l.Labels()
		}
		if sp.Yanked {
			result.Summary.Yanked++
			if cfg.yankedBehavior == YankedWarn {
				msg := fmt.Sprintf("%s: selected yanked release %s", name, sp.Ref())
				result.Warnings = append(result.Warnings, msg)
				logger.Warn("yanked release selected", "name", name, "package", sp.Ref().String())
			}
		}
		if sp.Trigger {
			result.Summary.Triggers++
		}
		result.Packages = append(result.Packages, sp)
	}
	result.Summary.Total = len(result.Packages)

	for _, s := range result.Steps {
		if s.Kind == bundle.StepLower {
			result.Summary.Downgrades++
			result.Summary.Evictions += len(s.Removed)
		}
		result.Summary.Rounds = max(result.Summary.Rounds, s.Round)
	}
	return result
}
