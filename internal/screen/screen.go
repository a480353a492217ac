package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/calctutor/internal/ui/layout"
)

// Screen is one full-window view of the chat client.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens that replace the default
// footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show a status on the
// right of the header, such as the enrolled student.
type StatusProvider interface {
	Status() string
}

// Resumer is implemented by screens that reset themselves when the screen
// above them is closed.
type Resumer interface {
	Resume() tea.Cmd
}
