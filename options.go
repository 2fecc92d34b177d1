package gobundle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-bundle/bundle"
)

// Option configures resolution behavior.
type Option func(*resolverConfig) error

// resolverConfig holds all resolution configuration.
type resolverConfig struct {
	yankedBehavior  YankedBehavior
	constraints     map[string]*semver.Constraints
	lazyConsistency bool
	maxRounds       int
	onProgress      func(bundle.Step)
	registerer      prometheus.Registerer

	// logger is the structured logger for debug/info output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithYankedBehavior sets how yanked releases are handled.
func WithYankedBehavior(b YankedBehavior) Option {
	return func(c *resolverConfig) error {
		c.yankedBehavior = b
		return nil
	}
}

// WithConstraint restricts the candidates for a required name to versions
// satisfying a semantic version constraint such as ">=1.2, <2" or "~1.4".
// Candidates whose version is not a valid semantic version are excluded.
// Trigger packages are never filtered.
//
// Calling WithConstraint twice for the same name keeps the last one.
func WithConstraint(name, constraint string) Option {
	return func(c *resolverConfig) error {
		if name == "" {
			return fmt.Errorf("%w: empty package name", ErrInvalidConstraint)
		}
		parsed, err := semver.NewConstraint(constraint)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConstraint, name, constraint, err)
		}
		if c.constraints == nil {
			c.constraints = make(map[string]*semver.Constraints)
		}
		c.constraints[name] = parsed
		return nil
	}
}

// WithLazyConsistency disables the per-round contract agreement check.
func WithLazyConsistency() Option {
	return func(c *resolverConfig) error {
		c.lazyConsistency = true
		return nil
	}
}

// WithMaxRounds bounds the number of selection rounds.
func WithMaxRounds(n int) Option {
	return func(c *resolverConfig) error {
		c.maxRounds = n
		return nil
	}
}

// WithProgress sets a callback invoked for every resolution step.
func WithProgress(fn func(bundle.Step)) Option {
	return func(c *resolverConfig) error {
		c.onProgress = fn
		return nil
	}
}

// WithMetrics registers resolution metrics on reg. Collectors already
// registered by an earlier call are reused.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *resolverConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "bundle")
//	Resolve(ctx, req, WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *resolverConfig) validate() error {
	if c.maxRounds < 0 {
		return errors.New("max rounds must not be negative")
	}
	switch c.yankedBehavior {
	case YankedExclude, YankedAllow, YankedWarn:
	default:
		return fmt.Errorf("unknown yanked behavior %d", c.yankedBehavior)
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newResolverConfig creates a new resolver configuration by applying
// the given options and validating the result.
func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// bundleOptions translates the config into engine options. hook observes
// every step.
func (c *resolverConfig) bundleOptions(hook func(bundle.Step) error) []bundle.Option {
	opts := []bundle.Option{
		bundle.WithStepHook(hook),
		bundle.WithCandidateFilter(c.admit),
	}
	if c.lazyConsistency {
		opts = append(opts, bundle.WithLazyConsistency())
	}
	if c.maxRounds > 0 {
		opts = append(opts, bundle.WithMaxRounds(c.maxRounds))
	}
	return opts
}

// admit reports whether p may be selected for the required name.
func (c *resolverConfig) admit(name string, p bundle.Package) bool {
	if c.yankedBehavior == YankedExclude && bundle.IsYanked(p) {
		return false
	}
	return satisfies(c.constraints[name], p.Version())
}
