package domain

import "fmt"

// DefaultContentID names the built-in photosynthesis content.
const DefaultContentID = "photosynthesis"

// Content is the immutable dataset a workspace is built from.
type Content struct {
	ID       string       `json:"id" yaml:"id"`
	Matching MatchingGame `json:"matching" yaml:"matching"`
	Quiz     QuizContent  `json:"quiz" yaml:"quiz"`
}

// Validate checks that both matching sets are bijections and every MCQ has a
// reachable correct option.
func (c Content) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidContent)
	}
	if err := validateMatchingGame(c.Matching); err != nil {
		return err
	}
	if len(c.Quiz.MCQ) == 0 {
		return fmt.Errorf("%w: quiz has no multiple choice questions", ErrInvalidContent)
	}
	for _, q := range c.Quiz.MCQ {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %q needs at least two options", ErrInvalidContent, q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %q correct index %d out of range", ErrInvalidContent, q.ID, q.CorrectIndex)
		}
	}
	lefts := make(map[string]struct{}, len(c.Quiz.Matching))
	rights := make(map[string]struct{}, len(c.Quiz.Matching))
	for _, p := range c.Quiz.Matching {
		if p.Left == "" || p.Right == "" {
			return fmt.Errorf("%w: quiz matching pair with empty side", ErrInvalidContent)
		}
		if _, dup := lefts[p.Left]; dup {
			return fmt.Errorf("%w: duplicate quiz matching term %q", ErrInvalidContent, p.Left)
		}
		if _, dup := rights[p.Right]; dup {
			return fmt.Errorf("%w: duplicate quiz matching definition %q", ErrInvalidContent, p.Right)
		}
		lefts[p.Left] = struct{}{}
		rights[p.Right] = struct{}{}
	}
	return nil
}

func validateMatchingGame(g MatchingGame) error {
	if len(g.Left) == 0 || len(g.Left) != len(g.Right) {
		return fmt.Errorf("%w: matching sides must be non-empty and equal in size", ErrInvalidContent)
	}
	right := make(map[string]MatchItem, len(g.Right))
	for _, item := range g.Right {
		if _, dup := right[item.ID]; dup {
			return fmt.Errorf("%w: duplicate right item %q", ErrInvalidContent, item.ID)
		}
		right[item.ID] = item
	}
	seen := make(map[string]struct{}, len(g.Left))
	for _, item := range g.Left {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate left item %q", ErrInvalidContent, item.ID)
		}
		seen[item.ID] = struct{}{}
		if _, clash := right[item.ID]; clash {
			return fmt.Errorf("%w: item id %q used on both sides", ErrInvalidContent, item.ID)
		}
		partner, ok := right[item.PairedWith]
		if !ok || partner.PairedWith != item.ID {
			return fmt.Errorf("%w: left item %q is not paired both ways", ErrInvalidContent, item.ID)
		}
	}
	return nil
}

// ContentView is the learner-facing form of Content with answer keys removed.
type ContentView struct {
	ID          string            `json:"id"`
	Left        []MatchItemView   `json:"left"`
	Right       []MatchItemView   `json:"right"`
	MCQ         []MCQQuestionView `json:"mcq"`
	Terms       []string          `json:"terms"`
	Definitions []string          `json:"definitions"`
	Total       int               `json:"totalQuestions"`
}

type MatchItemView struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type MCQQuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// View strips pairings and correct answers. Definitions keep content order;
// callers that show them as choices shuffle them first.
func (c Content) View() ContentView {
	v := ContentView{ID: c.ID, Total: c.Quiz.TotalQuestions()}
	for _, item := range c.Matching.Left {
		v.Left = append(v.Left, MatchItemView{ID: item.ID, Content: item.Content})
	}
	for _, item := range c.Matching.Right {
		v.Right = append(v.Right, MatchItemView{ID: item.ID, Content: item.Content})
	}
	for _, q := range c.Quiz.MCQ {
		v.MCQ = append(v.MCQ, MCQQuestionView{ID: q.ID, Prompt: q.Prompt, Options: append([]string(nil), q.Options...)})
	}
	for _, p := range c.Quiz.Matching {
		v.Terms = append(v.Terms, p.Left)
		v.Definitions = append(v.Definitions, p.Right)
	}
	return v
}

// DefaultContent returns the built-in photosynthesis lab content.
func DefaultContent() Content {
	return Content{
		ID: DefaultContentID,
		Matching: MatchingGame{
			Left: []MatchItem{
				{ID: "l1", Content: "6CO₂", PairedWith: "r1"},
				{ID: "l2", Content: "6H₂O", PairedWith: "r2"},
				{ID: "l3", Content: "C₆H₁₂O₆", PairedWith: "r3"},
				{ID: "l4", Content: "6O₂", PairedWith: "r4"},
				{ID: "l5", Content: "Light Energy", PairedWith: "r5"},
			},
			Right: []MatchItem{
				{ID: "r1", Content: "Carbon Dioxide (from air)", PairedWith: "l1"},
				{ID: "r2", Content: "Water (from roots)", PairedWith: "l2"},
				{ID: "r3", Content: "Glucose (sugar produced)", PairedWith: "l3"},
				{ID: "r4", Content: "Oxygen (released)", PairedWith: "l4"},
				{ID: "r5", Content: "From the Sun (powers reaction)", PairedWith: "l5"},
			},
		},
		Quiz: QuizContent{
			MCQ: []MCQQuestion{
				{
					ID:           "1",
					Prompt:       "What is the primary pigment in plants that absorbs light energy for photosynthesis?",
					Options:      []string{"Carotene", "Chlorophyll", "Xanthophyll", "Anthocyanin"},
					CorrectIndex: 1,
				},
				{
					ID:           "2",
					Prompt:       "Which gas is released as a byproduct of photosynthesis?",
					Options:      []string{"Carbon dioxide", "Nitrogen", "Oxygen", "Hydrogen"},
					CorrectIndex: 2,
				},
				{
					ID:           "3",
					Prompt:       "Where in the plant cell does photosynthesis primarily occur?",
					Options:      []string{"Mitochondria", "Nucleus", "Chloroplast", "Ribosome"},
					CorrectIndex: 2,
				},
				{
					ID:           "4",
					Prompt:       "What are the tiny pores on leaves called that allow CO₂ to enter?",
					Options:      []string{"Stomata", "Cuticle", "Epidermis", "Mesophyll"},
					CorrectIndex: 0,
				},
				{
					ID:           "5",
					Prompt:       "The Calvin Cycle (light-independent reactions) occurs in which part of the chloroplast?",
					Options:      []string{"Thylakoid membrane", "Outer membrane", "Stroma", "Grana"},
					CorrectIndex: 2,
				},
			},
			Matching: []MatchingPair{
				{Left: "Chlorophyll", Right: "Green pigment that captures light"},
				{Left: "Thylakoid", Right: "Where light-dependent reactions occur"},
				{Left: "Stroma", Right: "Where the Calvin Cycle takes place"},
				{Left: "ATP", Right: "Energy currency molecule"},
				{Left: "Glucose", Right: "Sugar produced during photosynthesis"},
			},
		},
	}
}
