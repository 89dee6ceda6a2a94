// ABOUTME: Prometheus counters for suite outcomes
// ABOUTME: Registered on a caller-supplied registry so tests and embedders stay isolated
package suite

import (
	"errors"
	"fmt"

	"github.com/harper/driftcheck/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records scenario outcomes
type Metrics struct {
	scenarios   *prometheus.CounterVec
	regressions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the suite metrics and registers them on reg.
// Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driftcheck",
			Name:      "scenarios_total",
			Help:      "Scenarios evaluated, by outcome status.",
		}, []string{"status"}),
		regressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "driftcheck",
			Name:      "regressions_total",
			Help:      "Baseline comparisons that detected a regression, by severity.",
		}, []string{"severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "driftcheck",
			Name:      "scenario_duration_seconds",
			Help:      "Wall time to generate and evaluate one scenario.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}

	var err error
	if m.scenarios, err = register(reg, m.scenarios); err != nil {
		return nil, err
	}
	if m.regressions, err = register(reg, m.regressions); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("failed to register metric: %w", err)
	}
	return c, nil
}

func (m *Metrics) observe(r ScenarioResult) {
	if m == nil {
		return
	}
	m.scenarios.WithLabelValues(string(r.Status)).Inc()
	m.duration.Observe(r.Duration.Seconds())
	if r.Regression != nil && r.Regression.Severity != models.SeverityNone {
		m.regressions.WithLabelValues(string(r.Regression.Severity)).Inc()
	}
}
