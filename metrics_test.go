package gobundle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/albertocavalcante/go-bundle/bundle"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctx := context.Background()

	for range 2 {
		if _, err := Resolve(ctx, Request{
			Deps:       []string{"api", "worker"},
			Repository: downgradeRepo(),
		}, WithMetrics(reg)); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	_, err := Resolve(ctx, Request{
		Deps:       []string{"api"},
		Repository: downgradeRepo(),
		Triggers:   []bundle.Ref{{Name: "api", Version: "9"}},
	}, WithMetrics(reg))
	if err == nil {
		t.Fatal("expected resolution failure")
	}

	expected := `
# HELP bundle_resolutions_total Number of bundle resolutions by result.
# TYPE bundle_resolutions_total counter
bundle_resolutions_total{result="not_found"} 1
bundle_resolutions_total{result="success"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "bundle_resolutions_total"); err != nil {
		t.Error(err)
	}

	expected = `
# HELP bundle_downgrades_total Total number of lowering steps across resolutions.
# TYPE bundle_downgrades_total counter
bundle_downgrades_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "bundle_downgrades_total"); err != nil {
		t.Error(err)
	}

	n, err := testutil.GatherAndCount(reg, "bundle_resolution_rounds", "bundle_resolution_duration_seconds")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 histogram series, got %d", n)
	}
}

func TestMetrics_ConflictingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bundle_downgrades_total",
		Help: "Something else entirely.",
	}))

	_, err := Resolve(context.Background(), Request{}, WithMetrics(reg))
	if err == nil || !strings.Contains(err.Error(), "register metrics") {
		t.Fatalf("Resolve() error = %v, want registration failure", err)
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&bundle.Error{Kind: bundle.KindTriggerRemovalConflict}, "trigger_removal_conflict"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := resultLabel(tt.err); got != tt.want {
				t.Errorf("resultLabel(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
