package engine

import (
	"sync"
	"time"

	"photosynthesis-lab/internal/domain"
)

// DefaultIncorrectFlash is how long a wrong right-hand pick stays flagged.
const DefaultIncorrectFlash = 500 * time.Millisecond

type MatchingOptions struct {
	Scheduler      Scheduler
	Shuffler       Shuffler
	IncorrectFlash time.Duration
	OnChange       func()
}

// MatchingRound pairs the left cards of a MatchingGame with their right
// partners. Confirmed pairs only grow until Reset.
type MatchingRound struct {
	sched    Scheduler
	shuffler Shuffler
	flashFor time.Duration
	onChange func()

	leftIDs  []string
	rightIDs []string
	partner  map[string]string // left id -> correct right id
	isRight  map[string]bool

	mu          sync.Mutex
	selected    string
	pairs       map[string]string // left -> right
	pairedRight map[string]string // right -> left
	incorrect   string
	flashGen    uint64
	flash       Timer
	order       []string
}

func NewMatchingRound(game domain.MatchingGame, opts MatchingOptions) *MatchingRound {
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler()
	}
	if opts.Shuffler == nil {
		opts.Shuffler = NewRandomShuffler()
	}
	if opts.IncorrectFlash <= 0 {
		opts.IncorrectFlash = DefaultIncorrectFlash
	}
	m := &MatchingRound{
		sched:    opts.Scheduler,
		shuffler: opts.Shuffler,
		flashFor: opts.IncorrectFlash,
		onChange: opts.OnChange,
		partner:  make(map[string]string, len(game.Left)),
		isRight:  make(map[string]bool, len(game.Right)),
	}
	for _, item := range game.Left {
		m.leftIDs = append(m.leftIDs, item.ID)
		m.partner[item.ID] = item.PairedWith
	}
	for _, item := range game.Right {
		m.rightIDs = append(m.rightIDs, item.ID)
		m.isRight[item.ID] = true
	}
	m.resetLocked()
	return m
}

// SelectLeft marks a left card as the active pick. Already paired or unknown
// cards are ignored.
func (m *MatchingRound) SelectLeft(id string) bool {
	m.mu.Lock()
	if _, known := m.partner[id]; !known {
		m.mu.Unlock()
		return false
	}
	if _, paired := m.pairs[id]; paired {
		m.mu.Unlock()
		return false
	}
	m.selected = id
	m.clearIncorrectLocked()
	m.mu.Unlock()

	m.notify()
	return true
}

// SelectRight checks a right card against the active left pick. A correct
// pick is committed; a wrong one is flagged until the flash window passes.
func (m *MatchingRound) SelectRight(id string) bool {
	m.mu.Lock()
	if m.selected == "" || !m.isRight[id] {
		m.mu.Unlock()
		return false
	}
	if _, paired := m.pairedRight[id]; paired {
		m.mu.Unlock()
		return false
	}

	if m.partner[m.selected] == id {
		m.pairs[m.selected] = id
		m.pairedRight[id] = m.selected
		m.selected = ""
	} else {
		m.stopFlashLocked()
		m.incorrect = id
		m.flashGen++
		gen := m.flashGen
		m.flash = m.sched.AfterFunc(m.flashFor, func() { m.expireFlash(gen) })
	}
	m.mu.Unlock()

	m.notify()
	return true
}

// IsComplete reports whether every left card has been paired.
func (m *MatchingRound) IsComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeLocked()
}

// Reset drops all picks and pairs and reshuffles the right-hand order.
func (m *MatchingRound) Reset() bool {
	m.mu.Lock()
	m.resetLocked()
	m.mu.Unlock()

	m.notify()
	return true
}

// Halt cancels the pending flash callback without notifying observers.
func (m *MatchingRound) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flashGen++
	m.stopFlashLocked()
}

func (m *MatchingRound) Snapshot() domain.MatchingSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	pairs := make(map[string]string, len(m.pairs))
	for l, r := range m.pairs {
		pairs[l] = r
	}
	return domain.MatchingSnapshot{
		SelectedLeftID:       m.selected,
		ConfirmedPairs:       pairs,
		LastIncorrectRightID: m.incorrect,
		RightOrder:           append([]string(nil), m.order...),
		Matched:              len(m.pairs),
		Total:                len(m.leftIDs),
		Complete:             m.completeLocked(),
	}
}

func (m *MatchingRound) resetLocked() {
	m.selected = ""
	m.pairs = make(map[string]string, len(m.leftIDs))
	m.pairedRight = make(map[string]string, len(m.rightIDs))
	m.clearIncorrectLocked()
	m.order = shuffled(m.shuffler, m.rightIDs)
}

func (m *MatchingRound) completeLocked() bool {
	return len(m.pairs) == len(m.leftIDs)
}

func (m *MatchingRound) clearIncorrectLocked() {
	m.incorrect = ""
	m.flashGen++
	m.stopFlashLocked()
}

func (m *MatchingRound) stopFlashLocked() {
	if m.flash != nil {
		m.flash.Stop()
		m.flash = nil
	}
}

func (m *MatchingRound) expireFlash(gen uint64) {
	m.mu.Lock()
	if gen != m.flashGen || m.incorrect == "" {
		m.mu.Unlock()
		return
	}
	m.incorrect = ""
	m.flash = nil
	m.mu.Unlock()

	m.notify()
}

func (m *MatchingRound) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
