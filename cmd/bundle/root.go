package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	gobundle "github.com/albertocavalcante/go-bundle"
	"github.com/albertocavalcante/go-bundle/bundle"
)

// indexEnv names the environment variable used when --index is not given.
const indexEnv = "BUNDLE_INDEX"

// options holds the flags shared by every subcommand.
type options struct {
	index       string
	deps        []string
	triggers    []string
	constraints []string
	yanked      string
	lazy        bool
	maxRounds   int
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "bundle",
		Short: "Resolve contract-consistent package bundles",
		Long: `bundle selects one version of every required package so that all
selected packages agree on the contracts they share.

The candidate pool is read from an index file (Starlark, JSON or YAML).
Trigger packages are kept exactly as requested; other packages take the
highest version the contracts allow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.index, "index", "", "Index file listing available packages (default $"+indexEnv+")")
	flags.StringArrayVar(&o.deps, "dep", nil, "Required package name (repeatable)")
	flags.StringArrayVar(&o.triggers, "trigger", nil, "Trigger package as name@version (repeatable)")
	flags.StringArrayVar(&o.constraints, "constraint", nil, "Version constraint as name=expr, e.g. api=^1.4 (repeatable)")
	flags.StringVar(&o.yanked, "yanked", "exclude", "Yanked release handling: exclude, allow or warn")
	flags.BoolVar(&o.lazy, "lazy", false, "Skip the per-round contract agreement check")
	flags.IntVar(&o.maxRounds, "max-rounds", 0, "Maximum selection rounds (0 for automatic)")
	flags.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&o.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(
		newResolveCmd(o),
		newGraphCmd(o),
		newExplainCmd(o),
		newDiffCmd(o),
	)
	return root
}

// indexPath returns the --index flag or its environment default.
func (o *options) indexPath() (string, error) {
	if o.index != "" {
		return o.index, nil
	}
	if env := os.Getenv(indexEnv); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no index file: use --index or set %s", indexEnv)
}

// logger builds the slog logger selected by the log flags.
func (o *options) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", o.logLevel)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(o.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: want text or json", o.logFormat)
	}
}

// resolverOptions translates the flags into resolver options.
func (o *options) resolverOptions(logs io.Writer) ([]gobundle.Option, error) {
	logger, err := o.logger(logs)
	if err != nil {
		return nil, err
	}
	behavior, ok := gobundle.ParseYankedBehavior(o.yanked)
	if !ok {
		return nil, fmt.Errorf("invalid --yanked %q: want exclude, allow or warn", o.yanked)
	}

	opts := []gobundle.Option{
		gobundle.WithLogger(logger.With("component", "bundle")),
		gobundle.WithYankedBehavior(behavior),
		gobundle.WithMaxRounds(o.maxRounds),
	}
	if o.lazy {
		opts = append(opts, gobundle.WithLazyConsistency())
	}
	for _, c := range o.constraints {
		name, expr, ok := strings.Cut(c, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --constraint %q: want name=expr", c)
		}
		opts = append(opts, gobundle.WithConstraint(strings.TrimSpace(name), strings.TrimSpace(expr)))
	}
	return opts, nil
}

func (o *options) parseTriggers() ([]bundle.Ref, error) {
	refs := make([]bundle.Ref, 0, len(o.triggers))
	for _, t := range o.triggers {
		ref, err := bundle.ParseRef(t)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// resolve runs a resolution against the index at path.
func (o *options) resolve(cmd *cobra.Command, path string) (*gobundle.Result, error) {
	triggers, err := o.parseTriggers()
	if err != nil {
		return nil, err
	}
	if len(o.deps) == 0 && len(triggers) == 0 {
		return nil, fmt.Errorf("nothing to resolve: give at least one --dep or --trigger")
	}
	opts, err := o.resolverOptions(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return gobundle.ResolveIndex(cmd.Context(), path, o.deps, triggers, opts...)
}
