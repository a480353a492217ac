package components

import (
	"github.com/abhisek/calctutor/internal/ui/theme"
)

// Button is a styled submit button. While Busy it shows BusyLabel.
type Button struct {
	Label     string
	BusyLabel string
	Active    bool
	Busy      bool
}

// NewButton creates a new button.
func NewButton(label, busyLabel string) Button {
	return Button{
		Label:     label,
		BusyLabel: busyLabel,
	}
}

// View renders the button.
func (b Button) View() string {
	label := b.Label
	if b.Busy && b.BusyLabel != "" {
		label = b.BusyLabel
	}
	if b.Active && !b.Busy {
		return theme.ButtonActive.Render("▸ " + label)
	}
	return theme.ButtonInactive.Render("  " + label)
}
