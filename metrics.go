package gobundle

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-bundle/bundle"
)

const resultSuccess = "success"

// metrics holds the resolution collectors of one registerer.
type metrics struct {
	resolutions *prometheus.CounterVec
	rounds      prometheus.Histogram
	downgrades  prometheus.Counter
	duration    prometheus.Histogram
}

// newMetrics registers the resolution collectors on reg. A nil reg yields
// nil metrics, on which observe is a no-op.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bundle_resolutions_total",
				Help: "Number of bundle resolutions by result.",
			},
			[]string{"result"},
		),
		rounds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bundle_resolution_rounds",
				Help:    "Selection rounds needed per resolution.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		downgrades: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bundle_downgrades_total",
				Help: "Total number of lowering steps across resolutions.",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bundle_resolution_duration_seconds",
				Help:    "Time taken to resolve a bundle.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	var err error
	if m.resolutions, err = register(reg, m.resolutions); err != nil {
		return nil, err
	}
	if m.rounds, err = register(reg, m.rounds); err != nil {
		return nil, err
	}
	if m.downgrades, err = register(reg, m.downgrades); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c on reg, or returns the collector registered before
// under the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe records one finished resolution.
func (m *metrics) observe(started time.Time, summary Summary, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(started).Seconds())
	m.resolutions.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.rounds.Observe(float64(summary.Rounds))
		m.downgrades.Add(float64(summary.Downgrades))
	}
}

func resultLabel(err error) string {
	if err == nil {
		return resultSuccess
	}
	var berr *bundle.Error
	switch {
	case errors.As(err, &berr):
		return string(berr.Kind)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
