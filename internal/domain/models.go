package domain

import "time"

// Band is the qualitative bucket of a photosynthesis rate.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// EnvironmentalInputs are the three slider values of the simulation.
type EnvironmentalInputs struct {
	Light       int `json:"light"`
	Water       int `json:"water"`
	Temperature int `json:"temperature"`
}

// RateResult is derived from EnvironmentalInputs on every read.
type RateResult struct {
	Value   float64 `json:"value"`
	Band    Band    `json:"band"`
	Message string  `json:"message"`
}

// FactorHints describe each input on its own.
type FactorHints struct {
	Light       string `json:"light"`
	Water       string `json:"water"`
	Temperature string `json:"temperature"`
}

// Bubble is one oxygen emission produced while the simulation runs.
type Bubble struct {
	Seq int       `json:"seq"`
	At  time.Time `json:"at"`
}

// SimulationSnapshot is a read-only view of a simulation session.
type SimulationSnapshot struct {
	Inputs  EnvironmentalInputs `json:"inputs"`
	Rate    RateResult          `json:"rate"`
	Running bool                `json:"running"`
	Bubbles []Bubble            `json:"bubbles"`
	Hints   FactorHints         `json:"hints"`
}

// MatchItem is one card of the matching game. PairedWith names the correct
// card on the opposite side.
type MatchItem struct {
	ID         string `json:"id" yaml:"id"`
	Content    string `json:"content" yaml:"content"`
	PairedWith string `json:"pairedWith" yaml:"pairedWith"`
}

// MatchingGame holds the two sides of the matching game.
type MatchingGame struct {
	Left  []MatchItem `json:"left" yaml:"left"`
	Right []MatchItem `json:"right" yaml:"right"`
}

// MatchingSnapshot is a read-only view of a matching round.
type MatchingSnapshot struct {
	SelectedLeftID       string            `json:"selectedLeftId,omitempty"`
	ConfirmedPairs       map[string]string `json:"confirmedPairs"`
	LastIncorrectRightID string            `json:"lastIncorrectRightId,omitempty"`
	RightOrder           []string          `json:"rightOrder"`
	Matched              int               `json:"matched"`
	Total                int               `json:"total"`
	Complete             bool              `json:"complete"`
}

// MCQQuestion is a multiple-choice question with exactly one correct option.
type MCQQuestion struct {
	ID           string   `json:"id" yaml:"id"`
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
}

// MatchingPair is one term/definition row of the quiz matching phase.
type MatchingPair struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// QuizContent is the fixed question set of the quiz.
type QuizContent struct {
	MCQ      []MCQQuestion  `json:"mcq" yaml:"mcq"`
	Matching []MatchingPair `json:"matching" yaml:"matching"`
}

// TotalQuestions counts MCQ and matching items together.
func (q QuizContent) TotalQuestions() int {
	return len(q.MCQ) + len(q.Matching)
}

// Phase is the top-level stage of a quiz session.
type Phase string

const (
	PhaseMCQ      Phase = "mcq"
	PhaseMatching Phase = "matching"
	PhaseComplete Phase = "complete"
)

// QuizSnapshot is a read-only view of a quiz session. Empty strings in
// MatchingAnswers and nil entries in PerQuestionResult mean "not answered".
type QuizSnapshot struct {
	Phase             Phase    `json:"phase"`
	CurrentIndex      int      `json:"currentIndex"`
	SelectedAnswer    *int     `json:"selectedAnswer"`
	Revealed          bool     `json:"revealed"`
	PerQuestionResult []*bool  `json:"perQuestionResult"`
	MatchingOptions   []string `json:"matchingOptions"`
	MatchingAnswers   []string `json:"matchingAnswers"`
	MatchingRevealed  bool     `json:"matchingRevealed"`
	MatchingCorrect   int      `json:"matchingCorrect"`
	Score             int      `json:"score"`
	TotalQuestions    int      `json:"totalQuestions"`
	Percentage        int      `json:"percentage"`
	ResultMessage     string   `json:"resultMessage,omitempty"`
}

// LabSnapshot bundles every session of a workspace.
type LabSnapshot struct {
	WorkspaceID string             `json:"workspaceId"`
	ContentID   string             `json:"contentId"`
	Simulation  SimulationSnapshot `json:"simulation"`
	Matching    MatchingSnapshot   `json:"matching"`
	Quiz        QuizSnapshot       `json:"quiz"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// ActionName identifies a user transition on a workspace.
type ActionName string

const (
	ActionSimulationStart          ActionName = "simulation.start"
	ActionSimulationReset          ActionName = "simulation.reset"
	ActionSimulationSetLight       ActionName = "simulation.setLight"
	ActionSimulationSetWater       ActionName = "simulation.setWater"
	ActionSimulationSetTemperature ActionName = "simulation.setTemperature"
	ActionMatchingSelectLeft       ActionName = "matching.selectLeft"
	ActionMatchingSelectRight      ActionName = "matching.selectRight"
	ActionMatchingReset            ActionName = "matching.reset"
	ActionQuizSelectAnswer         ActionName = "quiz.selectAnswer"
	ActionQuizSubmit               ActionName = "quiz.submit"
	ActionQuizNext                 ActionName = "quiz.next"
	ActionQuizSetMatchingAnswer    ActionName = "quiz.setMatchingAnswer"
	ActionQuizSubmitMatching       ActionName = "quiz.submitMatching"
	ActionQuizFinish               ActionName = "quiz.finish"
	ActionQuizReset                ActionName = "quiz.reset"
)

// Action is the client-facing form of a transition. Only the fields relevant
// to Name are read: Value for slider setters, ID for matching selections,
// Index for quiz answers and Answer for quiz matching.
type Action struct {
	Name   ActionName `json:"name"`
	Value  int        `json:"value,omitempty"`
	ID     string     `json:"id,omitempty"`
	Index  int        `json:"index,omitempty"`
	Answer string     `json:"answer,omitempty"`
}
