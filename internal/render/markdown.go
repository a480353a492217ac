package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/glamour"
)

const markdownTabWidth = 4

// StyleDark is the glamour style used inside the full-screen client, where
// the terminal background cannot be queried.
const StyleDark = "dark"

// Markdown renders assistant prose for terminals.
type Markdown struct {
	width int
	tr    *glamour.TermRenderer
}

// NewMarkdown creates a renderer wrapping at width columns. An empty style
// takes it from GLAMOUR_STYLE, as with other glamour programs.
func NewMarkdown(width int, style string) (*Markdown, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithEnvironmentConfig()
	if style != "" {
		styleOpt = glamour.WithStylePath(style)
	}
	tr, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("new markdown renderer: %w", err)
	}
	return &Markdown{width: width, tr: tr}, nil
}

// TUIStyle returns GLAMOUR_STYLE when it names a fixed style or file, and
// StyleDark otherwise.
func TUIStyle() string {
	if s := os.Getenv("GLAMOUR_STYLE"); s != "" && s != "auto" {
		return s
	}
	return StyleDark
}

// Width is the wrap width the renderer was built for.
func (m *Markdown) Width() int {
	return m.width
}

// Render formats markdown. On failure the input is returned unchanged.
func (m *Markdown) Render(in string) string {
	if m == nil || m.tr == nil {
		return in
	}
	out, err := m.tr.Render(in)
	if err != nil {
		return in
	}
	out = strings.TrimRightFunc(out, unicode.IsSpace)
	out = strings.TrimLeft(out, "\n")
	return strings.ReplaceAll(out, "\t", strings.Repeat(" ", markdownTabWidth))
}

// NumberLines prefixes each line of code with its 1-based line number.
func NumberLines(code string) string {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	w := len(strconv.Itoa(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d. %s", w, i+1, line)
	}
	return b.String()
}
