package tutor

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
)

var (
	// ErrNoCorrectOption is returned when a question marks no option correct.
	ErrNoCorrectOption = errors.New("question has no correct option")

	// ErrUnknownAnswer is returned when the answer matches no option.
	ErrUnknownAnswer = errors.New("answer does not match any option")
)

// Evaluation is the evaluateAnswer result returned to the assistant.
type Evaluation struct {
	Correct       bool            `json:"correct"`
	StudentAnswer string          `json:"student_answer"`
	CorrectOption string          `json:"correct_option"`
	Explanation   string          `json:"explanation"`
	Snapshot      StudentSnapshot `json:"snapshot"`
}

// Evaluate grades answer against q and returns snap updated with the
// outcome. snap is not modified.
func Evaluate(q Question, answer string, snap StudentSnapshot) (Evaluation, error) {
	correct, ok := q.CorrectOption()
	if !ok {
		return Evaluation{}, ErrNoCorrectOption
	}
	chosen, ok := matchOption(q, answer)
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: %q", ErrUnknownAnswer, answer)
	}

	isCorrect := chosen.IsCorrect
	explanation := chosen.Explanation
	if !isCorrect && correct.Explanation != "" {
		if explanation != "" {
			explanation += " "
		}
		explanation += correct.Explanation
	}

	return Evaluation{
		Correct:       isCorrect,
		StudentAnswer: chosen.Label,
		CorrectOption: correct.Label,
		Explanation:   explanation,
		Snapshot:      applyAttempt(snap, q, chosen.Label, isCorrect),
	}, nil
}

// matchOption accepts a bare label ("b"), a label with punctuation
// ("B)", "B. 3x^2") or the option text itself.
func matchOption(q Question, answer string) (Option, bool) {
	a := strings.TrimSpace(answer)
	if a == "" {
		return Option{}, false
	}
	if o, ok := q.Option(a); ok {
		return o, true
	}
	for _, o := range q.Options {
		if strings.EqualFold(strings.TrimSpace(o.Text), a) {
			return o, true
		}
	}
	r := []rune(a)
	if len(r) > 1 && !unicode.IsLetter(r[1]) && !unicode.IsDigit(r[1]) {
		if o, ok := q.Option(string(r[0])); ok {
			return o, true
		}
	}
	return Option{}, false
}

func applyAttempt(snap StudentSnapshot, q Question, label string, correct bool) StudentSnapshot {
	out := StudentSnapshot{
		StudentID:              snap.StudentID,
		Levels:                 slices.Clone(snap.Levels),
		WeakAreas:              slices.Clone(snap.WeakAreas),
		StrongAreas:            slices.Clone(snap.StrongAreas),
		DesiredDifficultyLevel: snap.DesiredDifficultyLevel,
	}
	if out.WeakAreas == nil {
		out.WeakAreas = []string{}
	}
	if out.StrongAreas == nil {
		out.StrongAreas = []string{}
	}

	history := append(slices.Clone(snap.RecentHistory), QuestionAttempt{
		QuestionID:      q.ID,
		Topic:           q.Topic,
		Criterion:       q.Criterion,
		DifficultyLevel: q.DifficultyLevel,
		StudentAnswer:   label,
		Correct:         correct,
	})
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	out.RecentHistory = history

	if q.Criterion != "" {
		delta := -1.0
		if correct {
			delta = 1
		}
		i := slices.IndexFunc(out.Levels, func(l Level) bool { return l.Name == string(q.Criterion) })
		if i < 0 {
			out.Levels = append(out.Levels, Level{Name: string(q.Criterion), Value: MinLevel})
			i = len(out.Levels) - 1
		}
		out.Levels[i].Value = clampLevel(out.Levels[i].Value + delta)
	}

	if topic := strings.TrimSpace(q.Topic); topic != "" {
		if correct {
			out.StrongAreas = addArea(out.StrongAreas, topic)
			out.WeakAreas = removeArea(out.WeakAreas, topic)
		} else {
			out.WeakAreas = addArea(out.WeakAreas, topic)
			out.StrongAreas = removeArea(out.StrongAreas, topic)
		}
	}

	if len(out.Levels) > 0 {
		var sum float64
		for _, l := range out.Levels {
			sum += l.Value
		}
		out.DesiredDifficultyLevel = clampLevel(math.Round(sum / float64(len(out.Levels))))
	}
	return out
}

func clampLevel(v float64) float64 {
	return math.Max(MinLevel, math.Min(MaxLevel, v))
}

func addArea(areas []string, topic string) []string {
	if slices.ContainsFunc(areas, func(a string) bool { return strings.EqualFold(a, topic) }) {
		return areas
	}
	return append(areas, topic)
}

func removeArea(areas []string, topic string) []string {
	return slices.DeleteFunc(areas, func(a string) bool { return strings.EqualFold(a, topic) })
}
