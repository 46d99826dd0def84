// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booth"

// Collector holds the application's Prometheus metrics.
// It implements election.Observer.
type Collector struct {
	Ballots        *prometheus.CounterVec
	Votes          prometheus.Counter
	Imports        *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_total",
			Help:      "Ballots submitted, by result and rejection reason.",
		}, []string{"result", "reason"}),
		Votes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Candidate tallies incremented by accepted ballots.",
		}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Election bundle imports, by result.",
		}, []string{"result"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Organizer login attempts, by result.",
		}, []string{"result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions alive after the last sweep.",
		}),
	}

	reg.MustRegister(c.Ballots, c.Votes, c.Imports, c.LoginAttempts, c.ActiveSessions)
	return c
}

func (c *Collector) BallotAccepted(selections int) {
	c.Ballots.WithLabelValues("accepted", "").Inc()
	c.Votes.Add(float64(selections))
}

func (c *Collector) BallotRejected(reason string) {
	c.Ballots.WithLabelValues("rejected", reason).Inc()
}

func (c *Collector) ImportSucceeded() { c.Imports.WithLabelValues("ok").Inc() }
func (c *Collector) ImportFailed()    { c.Imports.WithLabelValues("error").Inc() }

// Login results
const (
	LoginOK        = "ok"
	LoginDenied    = "denied"
	LoginThrottled = "throttled"
)

func (c *Collector) LoginAttempt(result string) {
	c.LoginAttempts.WithLabelValues(result).Inc()
}

func (c *Collector) SetActiveSessions(n int) {
	c.ActiveSessions.Set(float64(n))
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
