package questiongen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/calctutor/internal/tutor"
)

func TestBuildUserMessage_NewStudent(t *testing.T) {
	msg := buildUserMessage(GenerateInput{Snapshot: tutor.NewSnapshot("ada")}, DefaultConfig())

	for _, want := range []string{
		"Questions requested: 3",
		"Target difficulty: 1",
		"- logic_based: 1",
		"Weak areas: None",
		"Already asked:\nNone",
		"Recent mistakes:\nNone",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestTargetDifficulty(t *testing.T) {
	tests := []struct {
		name string
		snap tutor.StudentSnapshot
		want int
	}{
		{"desired wins", tutor.StudentSnapshot{DesiredDifficultyLevel: 4, Levels: []tutor.Level{{Value: 1}}}, 4},
		{"mean of levels", tutor.StudentSnapshot{Levels: []tutor.Level{{Value: 2}, {Value: 3}, {Value: 3}}}, 3},
		{"empty", tutor.StudentSnapshot{}, 1},
		{"clamped", tutor.StudentSnapshot{DesiredDifficultyLevel: 9}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := targetDifficulty(tt.snap); got != tt.want {
				t.Errorf("targetDifficulty = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildDedup_Limit(t *testing.T) {
	var prior []string
	for i := range 10 {
		prior = append(prior, fmt.Sprintf("Q%d", i))
	}
	out := buildDedup(prior, 3)
	if strings.Contains(out, "Q6") || !strings.Contains(out, "1. Q7") || !strings.Contains(out, "3. Q9") {
		t.Errorf("unexpected dedup list:\n%s", out)
	}
}

func TestBuildErrors_Limit(t *testing.T) {
	var mistakes []tutor.QuestionAttempt
	for i := range 7 {
		mistakes = append(mistakes, tutor.QuestionAttempt{QuestionID: fmt.Sprintf("m%d", i), StudentAnswer: "A"})
	}
	out := buildErrors(mistakes, 5)
	if strings.Contains(out, "m1:") || !strings.Contains(out, "1. m2: answered A") {
		t.Errorf("unexpected errors list:\n%s", out)
	}
}
