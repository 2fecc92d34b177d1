package gobundle

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-bundle/bundle"
)

func TestNewResolverConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults"},
		{name: "all options", opts: []Option{
			WithYankedBehavior(YankedWarn),
			WithConstraint("api", "~1.4"),
			WithLazyConsistency(),
			WithMaxRounds(10),
			WithProgress(func(bundle.Step) {}),
			WithMetrics(prometheus.NewRegistry()),
			WithLogger(slog.Default()),
		}},
		{name: "negative max rounds", opts: []Option{WithMaxRounds(-1)}, wantErr: true},
		{name: "unknown yanked behavior", opts: []Option{WithYankedBehavior(YankedBehavior(42))}, wantErr: true},
		{name: "bad constraint", opts: []Option{WithConstraint("api", "not a constraint")}, wantErr: true},
		{name: "constraint without name", opts: []Option{WithConstraint("", ">=1")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newResolverConfig(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Errorf("newResolverConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithConstraint_InvalidIsSentinel(t *testing.T) {
	_, err := Resolve(context.Background(), Request{}, WithConstraint("api", "not a constraint"))
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidConstraint", err)
	}
}

func TestDefaultConfigIsSilent(t *testing.T) {
	c, err := newResolverConfig()
	if err != nil {
		t.Fatal(err)
	}
	if c.log().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should discard everything")
	}
	if c.yankedBehavior != YankedExclude {
		t.Errorf("default yanked behavior = %v, want exclude", c.yankedBehavior)
	}
}

func constraintRepo() []bundle.Package {
	return repository(
		release("api", "2.1.0", map[string]string{"proto": "5"}),
		release("api", "1.5.0", map[string]string{"proto": "3"}),
		release("api", "1.4.2", map[string]string{"proto": "3"}),
		release("api", "0.9.0.1", map[string]string{"proto": "3"}),
		release("worker", "1.0.0", map[string]string{"proto": "3"}),
	)
}

func TestWithConstraint(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       string
		wantErr    error
	}{
		{name: "no constraint picks highest", want: "api@2.1.0"},
		{name: "caret", constraint: "^1", want: "api@1.5.0"},
		{name: "tilde", constraint: "~1.4", want: "api@1.4.2"},
		{name: "range", constraint: ">=1.5, <2", want: "api@1.5.0"},
		{name: "unsatisfiable", constraint: ">=3", wantErr: ErrNoValidContractsGraph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.constraint != "" {
				opts = append(opts, WithConstraint("api", tt.constraint))
			}
			result, err := Resolve(context.Background(), Request{
				Deps:       []string{"api"},
				Repository: constraintRepo(),
			}, opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got := result.Packages[0].Ref().String(); got != tt.want {
				t.Errorf("selected %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWithConstraint_TriggerBypass(t *testing.T) {
	result, err := Resolve(context.Background(), Request{
		Repository: constraintRepo(),
		Triggers:   []bundle.Ref{{Name: "api", Version: "0.9.0.1"}},
	}, WithConstraint("api", "^1"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := result.Packages[0].Version; got != "0.9.0.1" {
		t.Errorf("trigger version = %s, want 0.9.0.1", got)
	}
}

func yankedRepo() []bundle.Package {
	return repository(
		bundle.ReleaseSpec{Name: "api", Version: "2.0.0", Contracts: map[string]string{"proto": "5"}, Yanked: true},
		release("api", "1.0.0", map[string]string{"proto": "3"}),
	)
}

func TestWithYankedBehavior(t *testing.T) {
	tests := []struct {
		behavior     YankedBehavior
		want         string
		wantWarnings []string
	}{
		{YankedExclude, "api@1.0.0", nil},
		{YankedAllow, "api@2.0.0", nil},
		{YankedWarn, "api@2.0.0", []string{"api: selected yanked release api@2.0.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.behavior.String(), func(t *testing.T) {
			result, err := Resolve(context.Background(), Request{
				Deps:       []string{"api"},
				Repository: yankedRepo(),
			}, WithYankedBehavior(tt.behavior))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got := result.Packages[0].Ref().String(); got != tt.want {
				t.Errorf("selected %s, want %s", got, tt.want)
			}
			if diff := cmp.Diff(tt.wantWarnings, result.Warnings); diff != "" {
				t.Errorf("warnings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestYankedTriggerIsAllowed(t *testing.T) {
	result, err := Resolve(context.Background(), Request{
		Repository: yankedRepo(),
		Triggers:   []bundle.Ref{{Name: "api", Version: "2.0.0"}},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	p := result.Packages[0]
	if !p.Yanked || !p.Trigger {
		t.Errorf("expected yanked trigger, got %+v", p)
	}
	if result.Summary.Yanked != 1 {
		t.Errorf("Summary.Yanked = %d, want 1", result.Summary.Yanked)
	}
}

func TestParseYankedBehavior(t *testing.T) {
	for _, b := range []YankedBehavior{YankedExclude, YankedAllow, YankedWarn} {
		got, ok := ParseYankedBehavior(b.String())
		if !ok || got != b {
			t.Errorf("ParseYankedBehavior(%q) = %v, %v", b.String(), got, ok)
		}
	}
	if _, ok := ParseYankedBehavior("error"); ok {
		t.Error(`ParseYankedBehavior("error") should fail`)
	}
}
