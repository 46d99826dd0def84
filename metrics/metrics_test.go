// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/booth/election"
)

var _ election.Observer = (*Collector)(nil)

func TestCollector_Ballots(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.BallotAccepted(2)
	c.BallotAccepted(1)
	c.BallotRejected(election.ReasonDuplicate)

	if got := testutil.ToFloat64(c.Ballots.WithLabelValues("accepted", "")); got != 2 {
		t.Errorf("accepted ballots = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Ballots.WithLabelValues("rejected", election.ReasonDuplicate)); got != 1 {
		t.Errorf("rejected ballots = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Votes); got != 3 {
		t.Errorf("votes = %v, want 3", got)
	}
}

func TestCollector_ImportsAndSessions(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.ImportSucceeded()
	c.ImportFailed()
	c.ImportFailed()
	c.SetActiveSessions(4)
	c.LoginAttempt(LoginThrottled)

	if got := testutil.ToFloat64(c.Imports.WithLabelValues("error")); got != 2 {
		t.Errorf("failed imports = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.ActiveSessions); got != 4 {
		t.Errorf("active sessions = %v, want 4", got)
	}
	if got := testutil.ToFloat64(c.LoginAttempts.WithLabelValues(LoginThrottled)); got != 1 {
		t.Errorf("throttled logins = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.BallotAccepted(1)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "booth_votes_total 1") {
		t.Errorf("metrics output missing booth_votes_total:\n%s", w.Body.String())
	}
}
