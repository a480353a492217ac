// Package theme holds the chat client's colours and shared styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

var (
	Primary   = lipgloss.Color("#6366F1") // indigo
	Secondary = lipgloss.Color("#14B8A6") // teal
	Accent    = lipgloss.Color("#F59E0B") // amber
	Error     = lipgloss.Color("#F43F5E") // rose
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

// Header and footer bars.
var (
	Bar = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)

	Brand = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	StatusText = lipgloss.NewStyle().
			Foreground(Accent)

	KeyName = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true)

	KeyDesc = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Transcript.
var (
	UserLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	AssistantLabel = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	UserBubble = lipgloss.NewStyle().
			Foreground(Text).
			Background(BgCard).
			Padding(0, 1)

	// CodeBlock sets code from replies apart with an amber rule.
	CodeBlock = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Accent).
			PaddingLeft(1)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Input row.
var (
	InputBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	InputBoxFocused = InputBox.
			BorderForeground(Primary)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Foreground(TextDim).
			Background(BgCard).
			Padding(0, 2)
)
