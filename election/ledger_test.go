// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/booth/models"
	"github.com/danielhkuo/booth/testutil"
)

type countingObserver struct {
	mu       sync.Mutex
	accepted int
	rejected map[string]int
}

func (o *countingObserver) BallotAccepted(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accepted++
}

func (o *countingObserver) BallotRejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rejected == nil {
		o.rejected = make(map[string]int)
	}
	o.rejected[reason]++
}

// failingRepo fails every ballot and batch poll write; reads delegate
type failingRepo struct {
	Repository
}

func (failingRepo) IncrementVotes(context.Context, []string) error {
	return errors.New("disk full")
}

func (failingRepo) UpdatePolls(context.Context, []models.Poll) error {
	return errors.New("disk full")
}

func voteCounts(t *testing.T, s *Store) map[string]int64 {
	t.Helper()
	e, err := s.Election()
	if err != nil {
		t.Fatalf("Election: %v", err)
	}
	counts := make(map[string]int64)
	for _, p := range e.Polls {
		for _, c := range p.Candidates {
			counts[c.ID] = c.VoteCount
		}
	}
	return counts
}

func TestCastBallot_DistinctPolls(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)
	obs := &countingObserver{}
	ledger := NewLedger(store, obs)

	if err := ledger.CastBallot(context.Background(), []string{"b", "c"}); err != nil {
		t.Fatalf("CastBallot: %v", err)
	}

	got := voteCounts(t, store)
	want := map[string]int64{"a": 0, "b": 1, "c": 1}
	for id, n := range want {
		if got[id] != n {
			t.Errorf("candidate %s: expected %d votes, got %d", id, n, got[id])
		}
	}
	if obs.accepted != 1 {
		t.Errorf("expected 1 accepted ballot, got %d", obs.accepted)
	}
}

func TestCastBallot_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		ballot  []string
		wantErr error
		reason  string
	}{
		{"same poll", []string{"a", "b"}, ErrVote, ReasonDuplicate},
		{"same poll plus other", []string{"c", "a", "b"}, ErrVote, ReasonDuplicate},
		{"same candidate twice", []string{"a", "a"}, ErrVote, ReasonDuplicate},
		{"unknown candidate", []string{"a", "nobody"}, ErrNotFound, ReasonNotFound},
		{"poll id instead of candidate", []string{"p1"}, ErrNotFound, ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			importSample(t, store)
			obs := &countingObserver{}
			ledger := NewLedger(store, obs)

			err := ledger.CastBallot(context.Background(), tt.ballot)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			for id, n := range voteCounts(t, store) {
				if n != 0 {
					t.Errorf("candidate %s changed to %d on a rejected ballot", id, n)
				}
			}
			if obs.rejected[tt.reason] != 1 || obs.accepted != 0 {
				t.Errorf("observer: accepted=%d rejected=%v", obs.accepted, obs.rejected)
			}
		})
	}
}

func TestCastBallot_EmptyBallot(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)

	if err := NewLedger(store, nil).CastBallot(context.Background(), nil); err != nil {
		t.Fatalf("empty ballot should be accepted: %v", err)
	}
	for id, n := range voteCounts(t, store) {
		if n != 0 {
			t.Errorf("candidate %s changed on an empty ballot", id)
		}
	}
}

func TestCastBallot_NotImported(t *testing.T) {
	store, _ := newTestStore(t)
	err := NewLedger(store, nil).CastBallot(context.Background(), []string{"a"})
	if !errors.Is(err, ErrNotImported) {
		t.Errorf("expected ErrNotImported, got %v", err)
	}
}

func TestCastBallot_StorageFailureAppliesNothing(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)
	store.repo = failingRepo{Repository: store.repo}
	obs := &countingObserver{}

	err := NewLedger(store, obs).CastBallot(context.Background(), []string{"a", "c"})
	if err == nil {
		t.Fatal("expected an error from the failing repository")
	}
	if errors.Is(err, ErrVote) || errors.Is(err, ErrNotFound) {
		t.Errorf("storage failure misreported as %v", err)
	}

	for id, n := range voteCounts(t, store) {
		if n != 0 {
			t.Errorf("candidate %s changed to %d after a failed ballot", id, n)
		}
	}
	if obs.rejected[ReasonStorage] != 1 {
		t.Errorf("expected storage rejection, got %v", obs.rejected)
	}
}

func TestCastBallot_ConcurrentSameCandidate(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)
	ledger := NewLedger(store, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.CastBallot(context.Background(), []string{"a"})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent ballot failed: %v", err)
		}
	}
	if got := voteCounts(t, store)["a"]; got != 2 {
		t.Errorf("expected 2 votes for a, got %d", got)
	}
}

// TestCastBallot_ConcurrentMixed runs many ballots, some invalid, against
// all candidates at once and checks that no increment is lost
func TestCastBallot_ConcurrentMixed(t *testing.T) {
	store, conn := newTestStore(t)
	importSample(t, store)
	ledger := NewLedger(store, nil)

	ballots := [][]string{
		{"a", "c"},
		{"b"},
		{"a", "b"}, // rejected
		{"c"},
	}
	const rounds = 25

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for r := 0; r < rounds; r++ {
		for _, b := range ballots {
			wg.Add(1)
			go func(ballot []string) {
				defer wg.Done()
				if err := ledger.CastBallot(context.Background(), ballot); err == nil {
					accepted.Add(1)
				}
			}(b)
		}
	}
	wg.Wait()

	if got := int(accepted.Load()); got != 3*rounds {
		t.Errorf("expected %d accepted ballots, got %d", 3*rounds, got)
	}

	want := map[string]int64{"a": rounds, "b": rounds, "c": 2 * rounds}
	got := voteCounts(t, store)
	for id, n := range want {
		if got[id] != n {
			t.Errorf("candidate %s: expected %d votes in memory, got %d", id, n, got[id])
		}

		var stored int64
		if err := conn.QueryRow("SELECT vote_count FROM candidate WHERE id = $1", id).Scan(&stored); err != nil {
			t.Fatalf("query %s: %v", id, err)
		}
		if stored != n {
			t.Errorf("candidate %s: expected %d votes stored, got %d", id, n, stored)
		}
	}
}

func TestCastBallot_ConcurrentWithImport(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)
	ledger := NewLedger(store, nil)
	bundle := testutil.WriteSampleBundle(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.CastBallot(context.Background(), []string{"a"}); err != nil {
				t.Errorf("ballot during import: %v", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := store.Import(context.Background(), bundle); err != nil {
			t.Errorf("Import: %v", err)
		}
	}()
	wg.Wait()

	// the re-import resets a to the bundle's count, so only ballots that
	// ran after it are left
	if err := ledger.CastBallot(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("ballot after import: %v", err)
	}
	if n := voteCounts(t, store)["a"]; n < 1 || n > 21 {
		t.Errorf("vote count out of range: %d", n)
	}
}

// A ballot spanning two polls must never be half visible to a reader.
func TestCastBallot_SnapshotNeverTorn(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	const writers, ballots = 4, 200
	var wg sync.WaitGroup
	var done atomic.Bool
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < ballots; j++ {
				if err := ledger.CastBallot(ctx, []string{"a", "c"}); err != nil {
					t.Errorf("CastBallot: %v", err)
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		done.Store(true)
	}()

	torn := 0
	for !done.Load() {
		counts := voteCounts(t, store)
		if counts["a"] != counts["c"] {
			torn++
		}
		p, err := store.Poll("p1")
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if p.Candidates[1].VoteCount != 0 {
			t.Fatalf("b gained votes it was never cast")
		}
	}
	if torn > 0 {
		t.Errorf("snapshot showed a half-applied ballot %d times", torn)
	}

	counts := voteCounts(t, store)
	if counts["a"] != writers*ballots || counts["c"] != writers*ballots {
		t.Errorf("expected %d votes each, got a=%d c=%d", writers*ballots, counts["a"], counts["c"])
	}
}

// TestScenario_ShowOnlyFirstPoll walks the organizer/voter flow on the
// sample election: only p1 shown, [a] counted, [a, b] rejected.
func TestScenario_ShowOnlyFirstPoll(t *testing.T) {
	store, _ := newTestStore(t)
	importSample(t, store)
	ctx := context.Background()

	if err := store.ShowPolls(ctx, []string{"p1"}); err != nil {
		t.Fatalf("ShowPolls: %v", err)
	}

	e, err := store.Election()
	if err != nil {
		t.Fatalf("Election: %v", err)
	}
	shown := e.Ballot()
	if len(shown.Polls) != 1 || shown.Polls[0].ID != "p1" {
		t.Fatalf("expected only p1 shown, got %+v", shown.Polls)
	}
	if len(shown.Polls[0].Candidates) != 2 {
		t.Errorf("expected a and b on the voting screen, got %+v", shown.Polls[0].Candidates)
	}

	ledger := NewLedger(store, nil)
	if err := ledger.CastBallot(ctx, []string{"a"}); err != nil {
		t.Fatalf("ballot [a]: %v", err)
	}
	if err := ledger.CastBallot(ctx, []string{"a", "b"}); !errors.Is(err, ErrVote) {
		t.Fatalf("ballot [a, b]: expected ErrVote, got %v", err)
	}

	a, _ := store.Candidate("a")
	b, _ := store.Candidate("b")
	if a.VoteCount != 1 || b.VoteCount != 0 {
		t.Errorf("expected a=1 b=0, got a=%d b=%d", a.VoteCount, b.VoteCount)
	}
}
