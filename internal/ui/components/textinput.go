package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/calctutor/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with a border and a disabled state.
// While disabled it ignores key presses and keeps its value.
type TextInput struct {
	Model    textinput.Model
	disabled bool
}

// NewTextInput creates a focused input. charLimit <= 0 means no limit.
func NewTextInput(placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.Focus()

	if charLimit > 0 {
		ti.CharLimit = charLimit
	}

	return TextInput{Model: ti}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.disabled {
		if _, ok := msg.(tea.KeyMsg); ok {
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// SetDisabled blurs or refocuses the input.
func (t *TextInput) SetDisabled(disabled bool) tea.Cmd {
	t.disabled = disabled
	if disabled {
		t.Model.Blur()
		return nil
	}
	return t.Model.Focus()
}

// Disabled reports whether the input ignores typing.
func (t TextInput) Disabled() bool {
	return t.disabled
}

// SetWidth sets the outer width, including the border.
func (t *TextInput) SetWidth(w int) {
	// border + padding + prompt
	inner := w - 4 - len([]rune(t.Model.Prompt))
	if inner < 1 {
		inner = 1
	}
	t.Model.SetWidth(inner)
}

// View renders the text input.
func (t TextInput) View() string {
	style := theme.InputBox
	if !t.disabled && t.Model.Focused() {
		style = theme.InputBoxFocused
	}
	return style.Render(t.Model.View())
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.Reset()
}
