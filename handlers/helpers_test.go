// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/booth/auth"
	"github.com/danielhkuo/booth/cliparse"
	"github.com/danielhkuo/booth/db"
	"github.com/danielhkuo/booth/election"
	"github.com/danielhkuo/booth/metrics"
	"github.com/danielhkuo/booth/models"
	"github.com/danielhkuo/booth/session"
	"github.com/danielhkuo/booth/testutil"
)

type testEnv struct {
	conn     *sql.DB
	cfg      cliparse.Config
	store    *election.Store
	users    *db.UserRepo
	metrics  *metrics.Collector
	sessions *session.Manager

	elections *ElectionHandler
	voting    *VotingHandler
	accounts  *UserHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig(t)

	store, err := election.NewStore(context.Background(), db.NewElectionRepo(conn), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(store.Close)

	m := metrics.New(prometheus.NewRegistry())
	users := db.NewUserRepo(conn)

	return &testEnv{
		conn:      conn,
		cfg:       cfg,
		store:     store,
		users:     users,
		metrics:   m,
		sessions:  session.NewManager(time.Hour),
		elections: NewElectionHandler(store, cfg, m),
		voting:    NewVotingHandler(store, election.NewLedger(store, m)),
		accounts:  NewUserHandler(users, auth.NewThrottle(cfg.LoginRate, cfg.LoginBurst), m, cfg.TrustProxy),
	}
}

// importSample loads testutil.SampleBundle into the store
func (env *testEnv) importSample(t *testing.T) {
	t.Helper()
	if _, err := env.store.Import(context.Background(), testutil.WriteSampleBundle(t)); err != nil {
		t.Fatalf("Failed to import sample: %v", err)
	}
}

// register sets the organizer password directly in the database
func (env *testEnv) register(t *testing.T, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := env.users.Register(context.Background(), hash); err != nil {
		t.Fatalf("Failed to register organizer: %v", err)
	}
}

// showPolls marks exactly ids as shown
func (env *testEnv) showPolls(t *testing.T, ids ...string) {
	t.Helper()
	e, err := env.store.Election()
	if err != nil {
		t.Fatalf("Failed to read election: %v", err)
	}
	want := make(map[string]bool)
	for _, id := range ids {
		want[id] = true
	}
	for _, p := range e.Polls {
		show := want[p.ID]
		if err := env.store.UpdateResource(context.Background(), p.ID, models.PollPatch{Show: &show}); err != nil {
			t.Fatalf("Failed to update poll %s: %v", p.ID, err)
		}
	}
}

func (env *testEnv) voteCount(t *testing.T, candidateID string) int64 {
	t.Helper()
	c, err := env.store.Candidate(candidateID)
	if err != nil {
		t.Fatalf("Failed to read candidate %s: %v", candidateID, err)
	}
	return c.VoteCount
}

// withSession attaches sess to the request context, as session.Middleware does
func withSession(r *http.Request, sess *session.Session) *http.Request {
	return r.WithContext(session.NewContext(r.Context(), sess))
}

// lockedSession returns a session that has entered voting
func (env *testEnv) lockedSession(t *testing.T) *session.Session {
	t.Helper()
	sess := env.sessions.New()
	if _, err := sess.Fire(session.EventBeginVoting); err != nil {
		t.Fatalf("Failed to lock session: %v", err)
	}
	return sess
}
