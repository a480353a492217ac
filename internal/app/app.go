package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/calctutor/internal/chatclient"
	"github.com/abhisek/calctutor/internal/router"
	"github.com/abhisek/calctutor/internal/screen"
	"github.com/abhisek/calctutor/internal/screens/chat"
	"github.com/abhisek/calctutor/internal/screens/welcome"
	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/toolcall"
	"github.com/abhisek/calctutor/internal/ui/layout"
)

// Options configures the chat client.
type Options struct {
	Client     *chatclient.Client
	Dispatcher *toolcall.Dispatcher
	// Name prefills the name prompt.
	Name string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// conversation sends messages on one thread, answering tool calls with
// the local dispatcher.
type conversation struct {
	client     *chatclient.Client
	dispatcher *toolcall.Dispatcher
	threadID   string
}

func (c conversation) Send(ctx context.Context, text string) (chat.EventSource, error) {
	turn, err := c.client.StartTurn(ctx, c.dispatcher, c.threadID, text)
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// newAppModel creates an AppModel starting at the welcome screen.
func newAppModel(ctx context.Context, opts Options) AppModel {
	chatFactory := func(name string, e *students.Enrollment) screen.Screen {
		conv := conversation{client: opts.Client, dispatcher: opts.Dispatcher, threadID: e.ThreadID}
		return chat.New(ctx, conv, name, e, opts.Client.FileURL)
	}
	w := welcome.New(ctx, opts.Client, chatFactory)
	if opts.Name != "" {
		w.Prefill(opts.Name)
	}
	return newModel(w)
}

func newModel(initial screen.Screen) AppModel {
	return AppModel{
		router: router.New(initial),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.frame())
	return v
}

// frame renders header, active screen and footer for the current size.
func (m AppModel) frame() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var status string
	if sp, ok := active.(screen.StatusProvider); ok {
		status = sp.Status()
	}
	footerHints := []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	}

	header := layout.RenderHeader(active.Title(), status, m.width)
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(newAppModel(ctx, opts), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
