package observability

import (
	"context"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the narrator collectors.
type Metrics struct {
	TreeEvents     *prometheus.CounterVec
	Evicted        prometheus.Counter
	CaretCommands  *prometheus.CounterVec
	ModeChanges    *prometheus.CounterVec
	UnitsEmitted   prometheus.Counter
	Narrations     *prometheus.CounterVec
	UnitCharacters prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TreeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_tree_events_total",
				Help: "Facts reported about the accessible tree (dead nodes, corruption, evictions)",
			},
			[]string{"type"},
		),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "narrator_cache_evicted_entries_total",
			Help: "Cache entries dropped by facade evictions",
		}),
		CaretCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_caret_commands_total",
				Help: "Caret commands executed",
			},
			[]string{"command", "found"},
		),
		ModeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_mode_changes_total",
				Help: "Applied interaction mode changes",
			},
			[]string{"to", "reason"},
		),
		UnitsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "narrator_units_emitted_total",
			Help: "Content units handed to the speech engine",
		}),
		Narrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "narrator_narrations_total",
				Help: "Narration state transitions",
			},
			[]string{"status", "cause"},
		),
		UnitCharacters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrator_unit_characters",
			Help:    "Length of emitted content units in characters",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{
		m.TreeEvents, m.Evicted, m.CaretCommands, m.ModeChanges,
		m.UnitsEmitted, m.Narrations, m.UnitCharacters,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTreeEvent: func(_ context.Context, e *domain.TreeEvent) {
			m.TreeEvents.WithLabelValues(string(e.Type)).Inc()
			if e.Type == domain.EventCacheEvicted {
				m.Evicted.Add(float64(e.Evicted))
			}
		},
		OnCaretMoved: func(_ context.Context, e *domain.CaretEvent) {
			found := "false"
			if e.Found {
				found = "true"
			}
			m.CaretCommands.WithLabelValues(e.Command, found).Inc()
		},
		OnModeChanged: func(_ context.Context, e *domain.ModeEvent) {
			m.ModeChanges.WithLabelValues(string(e.To), e.Reason).Inc()
		},
		OnUnitEmitted: func(_ context.Context, e *domain.NarrationEvent) {
			m.UnitsEmitted.Inc()
			if e.Unit != nil {
				m.UnitCharacters.Observe(float64(e.Unit.Len()))
			}
		},
		OnNarrationState: func(_ context.Context, e *domain.NarrationEvent) {
			m.Narrations.WithLabelValues(string(e.Status), string(e.Cause)).Inc()
		},
	}
}
