package engine

import (
	"reflect"
	"testing"
	"time"

	"photosynthesis-lab/internal/domain"
)

// reverseShuffler reverses the slice and counts how often it was asked.
type reverseShuffler struct {
	calls int
}

func (s *reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	s.calls++
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func newTestRound(sched *ManualScheduler, sh Shuffler) *MatchingRound {
	return NewMatchingRound(domain.DefaultContent().Matching, MatchingOptions{
		Scheduler: sched,
		Shuffler:  sh,
	})
}

func TestMatchingRoundCompletes(t *testing.T) {
	round := newTestRound(NewManualScheduler(epoch), &reverseShuffler{})

	for _, item := range domain.DefaultContent().Matching.Left {
		if round.IsComplete() {
			t.Fatalf("round complete before pairing %s", item.ID)
		}
		if !round.SelectLeft(item.ID) {
			t.Fatalf("select left %s ignored", item.ID)
		}
		if !round.SelectRight(item.PairedWith) {
			t.Fatalf("select right %s ignored", item.PairedWith)
		}
	}

	snap := round.Snapshot()
	if !round.IsComplete() || !snap.Complete {
		t.Fatalf("expected round complete, got %+v", snap)
	}
	if snap.Matched != 5 || snap.Total != 5 || len(snap.ConfirmedPairs) != 5 {
		t.Fatalf("expected 5/5 pairs, got %+v", snap)
	}
	if snap.SelectedLeftID != "" {
		t.Fatalf("expected no selection after final pair, got %q", snap.SelectedLeftID)
	}
}

func TestMatchingRoundIgnoresPairedLeft(t *testing.T) {
	round := newTestRound(NewManualScheduler(epoch), &reverseShuffler{})
	round.SelectLeft("l1")
	round.SelectRight("r1")

	if round.SelectLeft("l1") {
		t.Fatalf("expected selecting a paired left card to be ignored")
	}
	if got := round.Snapshot().SelectedLeftID; got != "" {
		t.Fatalf("expected no selection, got %q", got)
	}

	round.SelectLeft("l2")
	if round.SelectRight("r1") {
		t.Fatalf("expected selecting a paired right card to be ignored")
	}
}

func TestMatchingRoundFlagsIncorrectPick(t *testing.T) {
	sched := NewManualScheduler(epoch)
	round := newTestRound(sched, &reverseShuffler{})

	round.SelectLeft("l1")
	if !round.SelectRight("r2") {
		t.Fatalf("expected incorrect pick to be evaluated")
	}
	snap := round.Snapshot()
	if snap.LastIncorrectRightID != "r2" {
		t.Fatalf("expected r2 flagged, got %q", snap.LastIncorrectRightID)
	}
	if len(snap.ConfirmedPairs) != 0 {
		t.Fatalf("expected no pairs after incorrect pick, got %v", snap.ConfirmedPairs)
	}
	if snap.SelectedLeftID != "l1" {
		t.Fatalf("expected l1 to stay selected, got %q", snap.SelectedLeftID)
	}

	sched.Advance(DefaultIncorrectFlash - time.Millisecond)
	if round.Snapshot().LastIncorrectRightID != "r2" {
		t.Fatalf("flag cleared before flash window ended")
	}
	sched.Advance(time.Millisecond)
	if got := round.Snapshot().LastIncorrectRightID; got != "" {
		t.Fatalf("expected flag cleared after flash window, got %q", got)
	}
}

func TestMatchingRoundSelectRightNeedsLeft(t *testing.T) {
	round := newTestRound(NewManualScheduler(epoch), &reverseShuffler{})
	if round.SelectRight("r1") {
		t.Fatalf("expected right pick without a left selection to be ignored")
	}
	if round.SelectLeft("nope") || round.SelectLeft("r1") {
		t.Fatalf("expected unknown left ids to be ignored")
	}
	round.SelectLeft("l1")
	if round.SelectRight("l2") {
		t.Fatalf("expected unknown right ids to be ignored")
	}
}

func TestMatchingRoundSelectLeftClearsFlag(t *testing.T) {
	sched := NewManualScheduler(epoch)
	round := newTestRound(sched, &reverseShuffler{})

	round.SelectLeft("l1")
	round.SelectRight("r3")
	round.SelectLeft("l2")
	if got := round.Snapshot().LastIncorrectRightID; got != "" {
		t.Fatalf("expected new left pick to clear the flag, got %q", got)
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected flash timer cancelled, %d pending", sched.Pending())
	}
}

func TestMatchingRoundResetReshuffles(t *testing.T) {
	sched := NewManualScheduler(epoch)
	sh := &reverseShuffler{}
	round := newTestRound(sched, sh)

	if sh.calls != 1 {
		t.Fatalf("expected one shuffle at construction, got %d", sh.calls)
	}
	want := []string{"r5", "r4", "r3", "r2", "r1"}
	if got := round.Snapshot().RightOrder; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}

	round.SelectLeft("l1")
	round.SelectRight("r1")
	round.SelectLeft("l2")
	round.SelectRight("r1")
	round.SelectRight("r5")

	if !round.Reset() {
		t.Fatalf("expected reset to apply")
	}
	if sh.calls != 2 {
		t.Fatalf("expected reset to reshuffle, shuffles=%d", sh.calls)
	}
	snap := round.Snapshot()
	if snap.SelectedLeftID != "" || snap.LastIncorrectRightID != "" || len(snap.ConfirmedPairs) != 0 || snap.Complete {
		t.Fatalf("expected clean round after reset, got %+v", snap)
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected reset to cancel flash timer, %d pending", sched.Pending())
	}
}

func TestMatchingRoundRandomOrderIsPermutation(t *testing.T) {
	round := NewMatchingRound(domain.DefaultContent().Matching, MatchingOptions{Scheduler: NewManualScheduler(epoch)})
	seen := map[string]bool{}
	for _, id := range round.Snapshot().RightOrder {
		seen[id] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected a permutation of 5 right ids, got %v", seen)
	}
}
