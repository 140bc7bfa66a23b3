package engine

import (
	"math"
	"sync"

	"photosynthesis-lab/internal/domain"
)

// Final result messages by percentage bracket.
const (
	ResultExcellent = "🌟 Excellent! You're a photosynthesis expert!"
	ResultGreat     = "👍 Great job! Keep learning!"
	ResultReview    = "📚 Good effort! Review the material and try again!"
)

type QuizOptions struct {
	Shuffler Shuffler
	OnChange func()
}

// QuizSession walks through the multiple-choice questions, then the matching
// rows, and ends in the complete phase. The score is never stored; it is
// recounted from the recorded answers on every read.
type QuizSession struct {
	content  domain.QuizContent
	rights   []string
	isRight  map[string]bool
	shuffler Shuffler
	onChange func()

	mu               sync.Mutex
	phase            domain.Phase
	index            int
	selected         *int
	revealed         bool
	results          []*bool
	options          []string
	matchingAnswers  []string
	matchingRevealed bool
}

func NewQuizSession(content domain.QuizContent, opts QuizOptions) *QuizSession {
	if opts.Shuffler == nil {
		opts.Shuffler = NewRandomShuffler()
	}
	q := &QuizSession{
		content:  content,
		isRight:  make(map[string]bool, len(content.Matching)),
		shuffler: opts.Shuffler,
		onChange: opts.OnChange,
	}
	for _, p := range content.Matching {
		q.rights = append(q.rights, p.Right)
		q.isRight[p.Right] = true
	}
	q.resetLocked()
	return q
}

// SelectAnswer picks an option of the current question until it is revealed.
func (q *QuizSession) SelectAnswer(index int) bool {
	return q.apply(func() bool {
		if q.phase != domain.PhaseMCQ || q.revealed {
			return false
		}
		if index < 0 || index >= len(q.content.MCQ[q.index].Options) {
			return false
		}
		choice := index
		q.selected = &choice
		return true
	})
}

// Submit reveals the current question and records whether it was answered
// correctly. Nothing happens without a selected answer.
func (q *QuizSession) Submit() bool {
	return q.apply(func() bool {
		if q.phase != domain.PhaseMCQ || q.revealed || q.selected == nil {
			return false
		}
		correct := *q.selected == q.content.MCQ[q.index].CorrectIndex
		q.results[q.index] = &correct
		q.revealed = true
		return true
	})
}

// Next moves past a revealed question. After the last one the session enters
// the matching phase with a freshly shuffled list of definitions.
func (q *QuizSession) Next() bool {
	return q.apply(func() bool {
		if q.phase != domain.PhaseMCQ || !q.revealed {
			return false
		}
		if q.index < len(q.content.MCQ)-1 {
			q.index++
			q.selected = nil
			q.revealed = false
			return true
		}
		q.phase = domain.PhaseMatching
		q.options = shuffled(q.shuffler, q.rights)
		return true
	})
}

// SetMatchingAnswer assigns a definition to a matching row before submission.
func (q *QuizSession) SetMatchingAnswer(index int, value string) bool {
	return q.apply(func() bool {
		if q.phase != domain.PhaseMatching || q.matchingRevealed {
			return false
		}
		if index < 0 || index >= len(q.matchingAnswers) || !q.isRight[value] {
			return false
		}
		q.matchingAnswers[index] = value
		return true
	})
}

// SubmitMatching reveals the matching rows. It can run once, and only after
// every row has an answer.
func (q *QuizSession) SubmitMatching() bool {
	return q.apply(func() bool {
		if q.phase != domain.PhaseMatching || q.matchingRevealed {
			return false
		}
		for _, a := range q.matchingAnswers {
			if a == "" {
				return false
			}
		}
		q.matchingRevealed = true
		return true
	})
}

func (q *QuizSession) Finish() bool {
	return q.apply(func() bool {
		if q.phase != domain.PhaseMatching || !q.matchingRevealed {
			return false
		}
		q.phase = domain.PhaseComplete
		return true
	})
}

// Reset returns to the first question with no answers. Always applies.
func (q *QuizSession) Reset() bool {
	return q.apply(func() bool {
		q.resetLocked()
		return true
	})
}

// Score counts correct answers recorded so far.
func (q *QuizSession) Score() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.scoreLocked()
}

func (q *QuizSession) Snapshot() domain.QuizSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	results := make([]*bool, len(q.results))
	for i, r := range q.results {
		if r != nil {
			v := *r
			results[i] = &v
		}
	}
	var selected *int
	if q.selected != nil {
		v := *q.selected
		selected = &v
	}

	score := q.scoreLocked()
	total := q.content.TotalQuestions()
	snap := domain.QuizSnapshot{
		Phase:             q.phase,
		CurrentIndex:      q.index,
		SelectedAnswer:    selected,
		Revealed:          q.revealed,
		PerQuestionResult: results,
		MatchingOptions:   append([]string{}, q.options...),
		MatchingAnswers:   append([]string{}, q.matchingAnswers...),
		MatchingRevealed:  q.matchingRevealed,
		MatchingCorrect:   q.matchingCorrectLocked(),
		Score:             score,
		TotalQuestions:    total,
		Percentage:        Percentage(score, total),
	}
	if q.phase == domain.PhaseComplete {
		snap.ResultMessage = ResultMessage(snap.Percentage)
	}
	return snap
}

// Percentage is score/total as a whole percent, rounded half up.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// ResultMessage picks the closing message. Lower bounds are inclusive.
func ResultMessage(percentage int) string {
	switch {
	case percentage >= 80:
		return ResultExcellent
	case percentage >= 60:
		return ResultGreat
	default:
		return ResultReview
	}
}

func (q *QuizSession) resetLocked() {
	q.phase = domain.PhaseMCQ
	q.index = 0
	q.selected = nil
	q.revealed = false
	q.results = make([]*bool, len(q.content.MCQ))
	q.options = nil
	q.matchingAnswers = make([]string, len(q.content.Matching))
	q.matchingRevealed = false
}

func (q *QuizSession) scoreLocked() int {
	score := 0
	for _, r := range q.results {
		if r != nil && *r {
			score++
		}
	}
	return score + q.matchingCorrectLocked()
}

// matchingCorrectLocked only counts once the rows are revealed.
func (q *QuizSession) matchingCorrectLocked() int {
	if !q.matchingRevealed {
		return 0
	}
	n := 0
	for i, a := range q.matchingAnswers {
		if a == q.content.Matching[i].Right {
			n++
		}
	}
	return n
}

func (q *QuizSession) apply(fn func() bool) bool {
	q.mu.Lock()
	applied := fn()
	q.mu.Unlock()

	if applied && q.onChange != nil {
		q.onChange()
	}
	return applied
}
