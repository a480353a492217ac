package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/calctutor/internal/render"
	"github.com/abhisek/calctutor/internal/ui/theme"
)

const (
	inputHeight  = 3
	statusHeight = 1
	buttonWidth  = 14
)

// transcriptView draws entries, caching rendered markdown per entry.
type transcriptView struct {
	md    *render.Markdown
	width int
	cache map[int]cached
}

type cached struct {
	text string
	out  string
}

func newTranscriptView() *transcriptView {
	return &transcriptView{cache: map[int]cached{}}
}

// Render draws all entries for the given width.
func (v *transcriptView) Render(entries []render.Entry, width int) string {
	if width != v.width {
		v.width = width
		v.cache = map[int]cached{}
		// A nil renderer shows raw markdown.
		v.md, _ = render.NewMarkdown(max(width-2, 20), render.TUIStyle())
	}

	var b strings.Builder
	var prev render.Role
	for i, e := range entries {
		if speaker(e.Role) != speaker(prev) {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(label(e.Role))
			b.WriteString("\n")
		}
		b.WriteString(v.entry(i, e, width))
		b.WriteString("\n")
		prev = e.Role
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *transcriptView) entry(i int, e render.Entry, width int) string {
	switch e.Role {
	case render.RoleUser:
		return theme.UserBubble.Width(min(lipgloss.Width(e.Text)+2, width)).Render(e.Text)
	case render.RoleError:
		return theme.ErrorText.Width(width).Render(e.Text)
	case render.RoleCode:
		code := render.NumberLines(e.Text)
		if e.Lang != "" {
			code = theme.Hint.Render(e.Lang) + "\n" + code
		}
		return theme.CodeBlock.Render(code)
	}

	if strings.TrimSpace(e.Text) == "" {
		return ""
	}
	if c, ok := v.cache[i]; ok && c.text == e.Text {
		return c.out
	}
	out := v.md.Render(e.Text)
	v.cache[i] = cached{text: e.Text, out: out}
	return out
}

// speaker groups entries under one label.
func speaker(r render.Role) string {
	switch r {
	case render.RoleUser:
		return "user"
	case "":
		return ""
	}
	return "tutor"
}

func label(r render.Role) string {
	if r == render.RoleUser {
		return theme.UserLabel.Render("You")
	}
	return theme.AssistantLabel.Render("Tutor")
}

func (c *ChatScreen) render() string {
	input := lipgloss.JoinHorizontal(lipgloss.Center,
		c.input.View(),
		" ",
		lipgloss.NewStyle().Width(buttonWidth).Render(c.button.View()),
	)

	var status string
	switch {
	case c.busy:
		status = c.spinner.View() + " " + theme.Hint.Render("Tutor is thinking...")
	case c.notice != "":
		status = theme.Hint.Render(c.notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		c.viewport.View(),
		status,
		input,
	)
}
