package app

import (
	"fmt"
	"sync"
	"time"

	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/engine"
)

// Workspace is one learner's lab: a simulation, a matching round and a quiz
// built from the same content, plus the subscribers watching them.
type Workspace struct {
	id        string
	contentID string
	createdAt time.Time
	now       func() time.Time

	simulation *engine.Simulation
	matching   *engine.MatchingRound
	quiz       *engine.QuizSession

	mu          sync.Mutex
	closed      bool
	subscribers map[chan domain.LabSnapshot]struct{}
}

// NewWorkspace is exported for infrastructure layers and tests that need a
// workspace without going through LabService.
func NewWorkspace(id string, content domain.Content, opts Options) *Workspace {
	return newWorkspace(id, content, opts.withDefaults())
}

func newWorkspace(id string, content domain.Content, opts Options) *Workspace {
	w := &Workspace{
		id:          id,
		contentID:   content.ID,
		createdAt:   opts.Now(),
		now:         opts.Now,
		subscribers: make(map[chan domain.LabSnapshot]struct{}),
	}
	w.simulation = engine.NewSimulation(engine.SimulationOptions{
		Scheduler:   opts.Scheduler,
		Now:         opts.Now,
		RunDuration: opts.RunDuration,
		OnChange:    w.broadcast,
	})
	w.matching = engine.NewMatchingRound(content.Matching, engine.MatchingOptions{
		Scheduler:      opts.Scheduler,
		Shuffler:       opts.Shuffler,
		IncorrectFlash: opts.IncorrectFlash,
		OnChange:       w.broadcast,
	})
	w.quiz = engine.NewQuizSession(content.Quiz, engine.QuizOptions{
		Shuffler: opts.Shuffler,
		OnChange: w.broadcast,
	})
	return w
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) ContentID() string { return w.contentID }

func (w *Workspace) CreatedAt() time.Time { return w.createdAt }

// Snapshot reads every session of the workspace.
func (w *Workspace) Snapshot() domain.LabSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// IsClosed reports whether the workspace has been torn down.
func (w *Workspace) IsClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workspace) apply(action domain.Action) (bool, error) {
	switch action.Name {
	case domain.ActionSimulationStart:
		return w.simulation.Start(), nil
	case domain.ActionSimulationReset:
		return w.simulation.Reset(), nil
	case domain.ActionSimulationSetLight:
		return w.simulation.SetLight(action.Value), nil
	case domain.ActionSimulationSetWater:
		return w.simulation.SetWater(action.Value), nil
	case domain.ActionSimulationSetTemperature:
		return w.simulation.SetTemperature(action.Value), nil
	case domain.ActionMatchingSelectLeft:
		return w.matching.SelectLeft(action.ID), nil
	case domain.ActionMatchingSelectRight:
		return w.matching.SelectRight(action.ID), nil
	case domain.ActionMatchingReset:
		return w.matching.Reset(), nil
	case domain.ActionQuizSelectAnswer:
		return w.quiz.SelectAnswer(action.Index), nil
	case domain.ActionQuizSubmit:
		return w.quiz.Submit(), nil
	case domain.ActionQuizNext:
		return w.quiz.Next(), nil
	case domain.ActionQuizSetMatchingAnswer:
		return w.quiz.SetMatchingAnswer(action.Index, action.Answer), nil
	case domain.ActionQuizSubmitMatching:
		return w.quiz.SubmitMatching(), nil
	case domain.ActionQuizFinish:
		return w.quiz.Finish(), nil
	case domain.ActionQuizReset:
		return w.quiz.Reset(), nil
	default:
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownAction, action.Name)
	}
}

func (w *Workspace) subscribe() (<-chan domain.LabSnapshot, func()) {
	ch := make(chan domain.LabSnapshot, 8)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	w.subscribers[ch] = struct{}{}
	initial := w.snapshotLocked()
	w.mu.Unlock()

	ch <- initial

	cancel := func() {
		w.mu.Lock()
		if _, ok := w.subscribers[ch]; ok {
			delete(w.subscribers, ch)
			close(ch)
		}
		w.mu.Unlock()
	}
	return ch, cancel
}

// broadcast runs after every applied transition, including timer-driven ones.
// Snapshots are taken under the workspace lock so subscribers never see an
// older state after a newer one.
func (w *Workspace) broadcast() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.subscribers) == 0 {
		return
	}
	snap := w.snapshotLocked()
	for ch := range w.subscribers {
		select {
		case ch <- snap:
		default:
			// slow subscriber: drop its oldest snapshot to make room for the newest
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (w *Workspace) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.simulation.Halt()
	w.matching.Halt()
	for ch := range w.subscribers {
		delete(w.subscribers, ch)
		close(ch)
	}
}

func (w *Workspace) snapshotLocked() domain.LabSnapshot {
	return domain.LabSnapshot{
		WorkspaceID: w.id,
		ContentID:   w.contentID,
		Simulation:  w.simulation.Snapshot(),
		Matching:    w.matching.Snapshot(),
		Quiz:        w.quiz.Snapshot(),
		UpdatedAt:   w.now(),
	}
}
