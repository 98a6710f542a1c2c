// Package metrics exports session activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robalobadob/wordle/apps/game-session/internal/actor"
	"github.com/robalobadob/wordle/apps/game-session/internal/session"
)

const namespace = "game_session"

// Collector implements session.Observer.
type Collector struct {
	transitions *prometheus.CounterVec
	finished    *prometheus.CounterVec
	discarded   *prometheus.CounterVec
	tries       prometheus.Histogram
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed session status transitions.",
		}, []string{"from", "to"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached game over, by result and whether the deadline ended them.",
		}, []string{"result", "forced"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_discarded_total",
			Help:      "Replies and deadlines dropped without effect.",
		}, []string{"reason"}),
		tries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_tries",
			Help:      "Guesses used by finished games.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
	}
	for _, col := range []prometheus.Collector{c.transitions, c.finished, c.discarded, c.tries} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Transition(_ actor.Address, from, to session.StatusKind) {
	c.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (c *Collector) Finished(f session.Finished) {
	forced := "false"
	if f.Forced {
		forced = "true"
	}
	c.finished.WithLabelValues(f.Result.String(), forced).Inc()
	c.tries.Observe(float64(f.Tries))
}

func (c *Collector) Discarded(_ actor.Address, reason string) {
	c.discarded.WithLabelValues(reason).Inc()
}
