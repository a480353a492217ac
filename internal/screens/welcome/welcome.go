package welcome

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/calctutor/internal/render"
	"github.com/abhisek/calctutor/internal/router"
	"github.com/abhisek/calctutor/internal/screen"
	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/ui/components"
	"github.com/abhisek/calctutor/internal/ui/layout"
	"github.com/abhisek/calctutor/internal/ui/theme"
)

const (
	namePlaceholder = "Enter your name to start chatting..."
	nameCharLimit   = 64
)

// Enroller looks up or creates the thread for a student name.
type Enroller interface {
	Enroll(ctx context.Context, name string) (*students.Enrollment, error)
}

// ChatFactory builds the chat screen for an enrolled student.
type ChatFactory func(name string, e *students.Enrollment) screen.Screen

type enrolledMsg struct {
	name       string
	enrollment *students.Enrollment
	err        error
}

// WelcomeScreen asks for the student's name and enrolls them.
type WelcomeScreen struct {
	ctx      context.Context
	enroller Enroller
	chat     ChatFactory

	input    components.TextInput
	button   components.Button
	starting bool
	errText  string
	done     bool
}

var (
	_ screen.Screen  = (*WelcomeScreen)(nil)
	_ screen.Resumer = (*WelcomeScreen)(nil)
)

// New creates a WelcomeScreen. A successful enrollment opens the screen
// built by chat on top of it.
func New(ctx context.Context, enroller Enroller, chat ChatFactory) *WelcomeScreen {
	return &WelcomeScreen{
		ctx:      ctx,
		enroller: enroller,
		chat:     chat,
		input:    components.NewTextInput(namePlaceholder, nameCharLimit),
		button:   components.NewButton("Start Chat", "Starting..."),
	}
}

// Prefill puts name in the prompt.
func (w *WelcomeScreen) Prefill(name string) {
	w.input.Model.SetValue(name)
	w.input.Model.CursorEnd()
	w.button.Active = w.input.Value() != ""
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return w.input.Init()
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start chat"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case enrolledMsg:
		return w, w.enrolled(msg)

	case tea.KeyPressMsg:
		if msg.String() == "enter" {
			return w, w.start()
		}
	}

	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	w.button.Active = w.input.Value() != ""
	return w, cmd
}

func (w *WelcomeScreen) start() tea.Cmd {
	name := w.input.Value()
	if name == "" || w.starting || w.done {
		return nil
	}
	w.starting = true
	w.button.Busy = true
	w.errText = ""
	w.input.SetDisabled(true)

	ctx, enroller := w.ctx, w.enroller
	return func() tea.Msg {
		e, err := enroller.Enroll(ctx, name)
		return enrolledMsg{name: name, enrollment: e, err: err}
	}
}

func (w *WelcomeScreen) enrolled(msg enrolledMsg) tea.Cmd {
	w.starting = false
	w.button.Busy = false
	if msg.err != nil || msg.enrollment == nil {
		w.errText = render.StartErrorText
		return w.input.SetDisabled(false)
	}
	w.done = true
	next := w.chat(msg.name, msg.enrollment)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

// Resume clears the prompt when the student leaves the chat, so another
// name can be entered.
func (w *WelcomeScreen) Resume() tea.Cmd {
	w.done = false
	w.starting = false
	w.errText = ""
	w.button.Busy = false
	w.button.Active = false
	w.input.Reset()
	return w.input.SetDisabled(false)
}

func (w *WelcomeScreen) View(width, height int) string {
	boxWidth := min(width-4, 60)
	w.input.SetWidth(boxWidth)

	sections := []string{
		RenderBanner(width),
		"",
		lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Your calculus tutor. Ask anything, practice anything."),
		"",
		w.input.View(),
		w.button.View(),
	}

	if w.errText != "" {
		sections = append(sections, "", theme.ErrorText.Render(w.errText))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.TrimRight(content, "\n"))
}
