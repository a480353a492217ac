// Package tutor holds the calculus tutoring vocabulary shared by the
// assistant configuration and the local tool handlers: student snapshots,
// questions and answer evaluation.
package tutor

import "strings"

// Criterion is the kind of reasoning a question exercises.
type Criterion string

const (
	CriterionLogic    Criterion = "logic_based"
	CriterionRealLife Criterion = "real_life_based"
	CriterionAbstract Criterion = "abstract_based"
)

// Criteria lists every criterion in display order.
var Criteria = []Criterion{CriterionLogic, CriterionRealLife, CriterionAbstract}

// Difficulty bounds shared by levels and questions.
const (
	MinLevel = 1
	MaxLevel = 5
)

// MaxHistory is how many attempts a snapshot keeps in RecentHistory.
const MaxHistory = 10

// Level is a student's standing on one criterion.
type Level struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// StudentSnapshot is the learner profile exchanged with the assistant in
// tool-call arguments. It is never persisted locally.
type StudentSnapshot struct {
	StudentID              string            `json:"student_id"`
	Levels                 []Level           `json:"levels"`
	WeakAreas              []string          `json:"weak_areas"`
	StrongAreas            []string          `json:"strong_areas"`
	DesiredDifficultyLevel float64           `json:"desired_difficulty_level,omitempty"`
	RecentHistory          []QuestionAttempt `json:"recent_history,omitempty"`
}

// NewSnapshot returns a starting profile: level 1 on every criterion.
func NewSnapshot(studentID string) StudentSnapshot {
	levels := make([]Level, len(Criteria))
	for i, c := range Criteria {
		levels[i] = Level{Name: string(c), Value: MinLevel}
	}
	return StudentSnapshot{
		StudentID:              studentID,
		Levels:                 levels,
		WeakAreas:              []string{},
		StrongAreas:            []string{},
		DesiredDifficultyLevel: MinLevel,
	}
}

// Level returns the value recorded for criterion name.
func (s StudentSnapshot) Level(name string) (float64, bool) {
	for _, l := range s.Levels {
		if l.Name == name {
			return l.Value, true
		}
	}
	return 0, false
}

// RecentMistakes returns the questions answered incorrectly, oldest first.
func (s StudentSnapshot) RecentMistakes() []QuestionAttempt {
	var out []QuestionAttempt
	for _, a := range s.RecentHistory {
		if !a.Correct {
			out = append(out, a)
		}
	}
	return out
}

// Option is one multiple-choice answer.
type Option struct {
	Label       string `json:"option_label"`
	Text        string `json:"option_text"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

// Question is a multiple-choice calculus question with four options.
type Question struct {
	ID              string    `json:"question_id"`
	Text            string    `json:"question_text"`
	Topic           string    `json:"topic,omitempty"`
	Subtopic        string    `json:"subtopic,omitempty"`
	Criterion       Criterion `json:"criterion,omitempty"`
	DifficultyLevel int       `json:"difficulty_level,omitempty"`
	Options         []Option  `json:"options"`
}

// Option returns the option with the given label, ignoring case.
func (q Question) Option(label string) (Option, bool) {
	for _, o := range q.Options {
		if strings.EqualFold(o.Label, label) {
			return o, true
		}
	}
	return Option{}, false
}

// CorrectOption returns the first option marked correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// QuestionAttempt is one answered question in a snapshot's history.
type QuestionAttempt struct {
	QuestionID      string    `json:"question_id"`
	Topic           string    `json:"topic,omitempty"`
	Criterion       Criterion `json:"criterion,omitempty"`
	DifficultyLevel int       `json:"difficulty_level,omitempty"`
	StudentAnswer   string    `json:"student_answer"`
	Correct         bool      `json:"correct"`
}
