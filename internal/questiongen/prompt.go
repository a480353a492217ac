package questiongen

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/calctutor/internal/tutor"
)

const systemPrompt = `You write multiple-choice calculus practice questions for one student.

Rules:
- Return exactly the requested number of questions.
- Each question has four options labelled A, B, C and D, in that order. Exactly one is correct.
- Distractors come from common mistakes, not random values.
- Every option has an explanation of why it is right or wrong.
- Use Markdown with LaTeX ($...$) for math. Keep question text self-contained.
- topic is a standard calculus topic (limits, derivatives, integrals, series, differential equations, ...). subtopic narrows it.
- criterion is logic_based, real_life_based or abstract_based. Vary it across the set.
- difficulty_level is 1 (easiest) to 5 (hardest). Aim at the target difficulty given below.
- Prefer the student's weak areas and revisit the kind of mistake they made recently.
- Check every calculation. The marked answer must be correct.
- Do not repeat any question from the "already asked" list.`

// buildUserMessage renders the student context for one generation call.
func buildUserMessage(input GenerateInput, cfg Config) string {
	snap := input.Snapshot
	count := input.Count
	if count <= 0 {
		count = cfg.Count
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Questions requested: %d\n", count)
	fmt.Fprintf(&b, "Target difficulty: %d\n", targetDifficulty(snap))
	b.WriteString("Levels:\n")
	if len(snap.Levels) == 0 {
		b.WriteString("None\n")
	}
	for _, l := range snap.Levels {
		fmt.Fprintf(&b, "- %s: %g\n", l.Name, l.Value)
	}
	fmt.Fprintf(&b, "Weak areas: %s\n", listOrNone(snap.WeakAreas))
	fmt.Fprintf(&b, "Strong areas: %s\n", listOrNone(snap.StrongAreas))

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	b.WriteString("\n\nRecent mistakes:\n")
	b.WriteString(buildErrors(snap.RecentMistakes(), cfg.MaxRecentErrors))

	return b.String()
}

// targetDifficulty uses desired_difficulty_level when set, otherwise the
// rounded mean of the levels.
func targetDifficulty(snap tutor.StudentSnapshot) int {
	d := snap.DesiredDifficultyLevel
	if d == 0 && len(snap.Levels) > 0 {
		var sum float64
		for _, l := range snap.Levels {
			sum += l.Value
		}
		d = sum / float64(len(snap.Levels))
	}
	return int(math.Max(tutor.MinLevel, math.Min(tutor.MaxLevel, math.Round(d))))
}

// buildErrors formats recent mistakes for the prompt, keeping the last max.
func buildErrors(mistakes []tutor.QuestionAttempt, max int) string {
	if len(mistakes) == 0 {
		return "None"
	}
	if max > 0 && len(mistakes) > max {
		mistakes = mistakes[len(mistakes)-max:]
	}

	var b strings.Builder
	for i, m := range mistakes {
		fmt.Fprintf(&b, "%d. %s", i+1, m.QuestionID)
		if m.Topic != "" {
			fmt.Fprintf(&b, " (%s", m.Topic)
			if m.Criterion != "" {
				fmt.Fprintf(&b, ", %s", m.Criterion)
			}
			b.WriteString(")")
		}
		fmt.Fprintf(&b, ": answered %s\n", m.StudentAnswer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
