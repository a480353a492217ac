// Package chat is the conversation screen: the transcript, the message
// input and the reply stream.
package chat

import (
	"context"
	"errors"
	"io"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/render"
	"github.com/abhisek/calctutor/internal/router"
	"github.com/abhisek/calctutor/internal/screen"
	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/ui/components"
	"github.com/abhisek/calctutor/internal/ui/layout"
	"github.com/abhisek/calctutor/internal/ui/theme"
)

const (
	messagePlaceholder = "Type your message..."
	messageCharLimit   = 4000
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// EventSource yields the events of one reply, ending with io.EOF.
type EventSource interface {
	Next(ctx context.Context) (assistant.Event, error)
}

// Conversation sends student messages on an enrolled thread.
type Conversation interface {
	Send(ctx context.Context, text string) (EventSource, error)
}

// ChatScreen shows one student's conversation with the tutor.
type ChatScreen struct {
	ctx  context.Context
	conv Conversation
	name string

	transcript *render.Transcript
	view       *transcriptView

	viewport viewport.Model
	input    components.TextInput
	button   components.Button
	spinner  spinner.Model

	busy   bool
	notice string
	width  int
	height int
}

var _ screen.Screen = (*ChatScreen)(nil)

// New creates the chat screen for an enrolled student. A new student, or
// one without messages, is greeted; otherwise the thread history is shown.
// fileURL turns assistant file ids into links; nil keeps them
// server-relative.
func New(ctx context.Context, conv Conversation, name string, e *students.Enrollment, fileURL func(string) string) *ChatScreen {
	t := render.NewTranscript(fileURL)
	if e == nil || e.IsNewStudent || len(e.Messages) == 0 {
		t.Add(render.RoleAssistant, render.Greeting(name))
	} else {
		t.LoadHistory(e.Messages)
	}

	return &ChatScreen{
		ctx:        ctx,
		conv:       conv,
		name:       name,
		transcript: t,
		view:       newTranscriptView(),
		viewport:   viewport.New(),
		input:      components.NewTextInput(messagePlaceholder, messageCharLimit),
		button:     components.NewButton("Send", "Sending..."),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(theme.Hint),
		),
	}
}

func (c *ChatScreen) Title() string {
	return "Chat"
}

// Status shows the student in the header.
func (c *ChatScreen) Status() string {
	return c.name
}

func (c *ChatScreen) Init() tea.Cmd {
	return c.input.Init()
}

func (c *ChatScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
		{Key: "Ctrl+Y", Description: "Copy reply"},
		{Key: "Esc", Description: "Switch student"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (c *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case turnStartedMsg:
		if msg.err != nil {
			return c, c.finish(msg.err)
		}
		return c, c.next(msg.src)

	case turnEventMsg:
		if c.transcript.Apply(msg.ev) {
			c.refresh()
		}
		return c, c.next(msg.src)

	case turnEndedMsg:
		return c, c.finish(msg.err)

	case copiedMsg:
		if msg.err != nil {
			c.notice = "Could not copy to the clipboard"
		} else {
			c.notice = "Copied the last reply"
		}
		return c, nil

	case spinner.TickMsg:
		if !c.busy {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd

	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter":
			return c, c.send()
		case "ctrl+y":
			return c, c.copyReply()
		case "esc":
			// The reply stream belongs to this screen.
			if c.busy {
				return c, nil
			}
			return c, func() tea.Msg { return router.PopScreenMsg{} }
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			c.viewport, cmd = c.viewport.Update(msg)
			return c, cmd
		}

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return c, cmd
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	c.button.Active = c.input.Value() != ""
	return c, cmd
}

// send posts the input as a new turn. Input stays disabled until the
// reply, including any tool calls, has finished.
func (c *ChatScreen) send() tea.Cmd {
	text := c.input.Value()
	if text == "" || c.busy {
		return nil
	}
	c.transcript.Add(render.RoleUser, text)
	c.input.Reset()
	c.input.SetDisabled(true)
	c.busy = true
	c.button.Busy = true
	c.notice = ""
	c.refresh()

	ctx, conv := c.ctx, c.conv
	start := func() tea.Msg {
		src, err := conv.Send(ctx, text)
		return turnStartedMsg{src: src, err: err}
	}
	return tea.Batch(start, c.spinner.Tick)
}

func (c *ChatScreen) next(src EventSource) tea.Cmd {
	ctx := c.ctx
	return func() tea.Msg {
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return turnEndedMsg{}
		}
		if err != nil {
			return turnEndedMsg{err: err}
		}
		return turnEventMsg{src: src, ev: ev}
	}
}

func (c *ChatScreen) finish(err error) tea.Cmd {
	if err != nil && !c.endsWithError() {
		c.transcript.Add(render.RoleError, render.ReplyErrorText)
	}
	c.busy = false
	c.button.Busy = false
	c.refresh()
	return c.input.SetDisabled(false)
}

func (c *ChatScreen) endsWithError() bool {
	entries := c.transcript.Entries()
	return len(entries) > 0 && entries[len(entries)-1].Role == render.RoleError
}

func (c *ChatScreen) copyReply() tea.Cmd {
	reply := c.transcript.LastReply()
	if reply == "" {
		c.notice = "Nothing to copy yet"
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(reply)}
	}
}

// refresh redraws the transcript and keeps the newest lines in view.
func (c *ChatScreen) refresh() {
	if c.width == 0 {
		return
	}
	c.viewport.SetContent(c.view.Render(c.transcript.Entries(), c.width))
	c.viewport.GotoBottom()
}

// resize lays the screen out for the content area it is drawn in.
func (c *ChatScreen) resize(width, height int) {
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	c.input.SetWidth(width - buttonWidth - 1)
	c.viewport.SetWidth(width)
	c.viewport.SetHeight(max(height-inputHeight-statusHeight, 1))
	c.refresh()
}

func (c *ChatScreen) View(width, height int) string {
	c.resize(width, height)
	return c.render()
}
