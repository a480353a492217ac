// Package layout draws the frame around the active screen: a header bar
// with the app name and the enrolled student, and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/calctutor/internal/ui/theme"
)

// Smallest terminal the chat is usable in.
const (
	MinWidth  = 60
	MinHeight = 16
)

// barPadding is the border plus the leading indent inside a bar.
const barPadding = 4

// KeyHint is one "key description" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Terminal too small\n\nThe chat needs at least %d x %d.\nCurrent size: %d x %d",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(msg))
}

// RenderHeader puts the app name left, title centred and status right.
func RenderHeader(title, status string, width int) string {
	left := theme.Brand.Render("  ∫ calctutor")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := ""
	if status != "" {
		right = theme.StatusText.Render("● " + status)
	}

	inner := max(width-barPadding, 0)
	lw, cw, rw := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)
	leftGap := max((inner-cw)/2-lw, 1)
	rightGap := max(inner-lw-leftGap-cw-rw, 1)

	return bar(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}

// RenderFooter lists the key hints of the active screen.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = theme.KeyName.Render(h.Key) + " " + theme.KeyDesc.Render(h.Description)
	}
	return bar("  "+strings.Join(parts, "   "), width)
}

// RenderFrame stacks header, content and footer, giving the content all
// rows the bars leave.
func RenderFrame(header, content, footer string, width, height int) string {
	rows := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(rows).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func bar(content string, width int) string {
	return theme.Bar.Width(width).Render(content)
}
