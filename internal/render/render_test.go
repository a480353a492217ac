package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/calctutor/internal/assistant"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "prose only",
			in:   "  The derivative of x^2 is 2x.  ",
			want: []Segment{{Text: "The derivative of x^2 is 2x."}},
		},
		{
			name: "prose and code",
			in:   "Try this:\n```python\nprint(1)\nprint(2)\n```\nDone.",
			want: []Segment{
				{Text: "Try this:"},
				{Code: true, Lang: "python", Text: "print(1)\nprint(2)"},
				{Text: "Done."},
			},
		},
		{
			name: "tilde fence",
			in:   "~~~\nx = 1\n~~~",
			want: []Segment{{Code: true, Text: "x = 1"}},
		},
		{
			name: "unclosed fence",
			in:   "Look:\n```\na\nb",
			want: []Segment{{Text: "Look:"}, {Code: true, Text: "a\nb"}},
		},
		{
			name: "shorter fence does not close",
			in:   "````\n```\ninner\n```\n````",
			want: []Segment{{Code: true, Text: "```\ninner\n```"}},
		},
		{
			name: "blank",
			in:   " \n\n ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestNumberLines(t *testing.T) {
	assert.Equal(t, "1. a\n2. b", NumberLines("a\nb\n"))

	code := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10"
	got := NumberLines(code)
	assert.Contains(t, got, " 1. 1\n")
	assert.Contains(t, got, "10. 10")
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello Ada! How can I help you today?", Greeting("Ada"))
}

func TestTranscriptStreamsMessage(t *testing.T) {
	tr := NewTranscript(func(id string) string { return "http://tutor/api/files/" + id })
	tr.Add(RoleUser, "What is d/dx x^2?")

	assert.False(t, tr.Apply(assistant.Event{Type: assistant.EventRunCreated, Data: &assistant.RunInfo{ID: "run_1"}}))
	assert.True(t, tr.Apply(assistant.Event{Type: assistant.EventMessageCreated, Data: &assistant.MessageInfo{ID: "msg_1", Role: "assistant"}}))
	tr.Apply(assistant.Event{Type: assistant.EventMessageDelta, Data: &assistant.MessageDelta{ID: "msg_1", Text: "It is "}})
	tr.Apply(assistant.Event{Type: assistant.EventMessageDelta, Data: &assistant.MessageDelta{ID: "msg_1", Text: "2x."}})

	require.Equal(t, 2, tr.Len())
	assert.Equal(t, "It is 2x.", tr.Entries()[1].Text)

	tr.Apply(assistant.Event{Type: assistant.EventMessageDelta, Data: &assistant.MessageDelta{ID: "msg_1", ImageFileID: "file_9"}})
	assert.Contains(t, tr.Entries()[1].Text, "![file_9](http://tutor/api/files/file_9)")

	tr.Apply(assistant.Event{Type: assistant.EventMessageCompleted, Data: &assistant.MessageCompleted{ID: "msg_1", Text: "ignored"}})
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, RoleAssistant, tr.Entries()[1].Role)
	assert.Contains(t, tr.Entries()[1].Text, "It is 2x.")
	assert.Contains(t, tr.Entries()[1].Text, "file_9")
}

func TestTranscriptCompletionSplitsCodeAndAnnotations(t *testing.T) {
	tr := NewTranscript(nil)
	tr.Apply(assistant.Event{Type: assistant.EventMessageCreated, Data: &assistant.MessageInfo{ID: "msg_1", Role: "assistant"}})
	tr.Apply(assistant.Event{Type: assistant.EventMessageCompleted, Data: &assistant.MessageCompleted{
		ID:   "msg_1",
		Text: "See [plot](sandbox:/mnt/data/plot.png)\n```python\nplot(x)\n```",
		Annotations: []assistant.Annotation{
			{Type: "file_path", Text: "sandbox:/mnt/data/plot.png", FileID: "file_2"},
			{Type: "file_citation", Text: "ignored", FileID: "file_3"},
		},
	}})

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "See [plot](/api/files/file_2)", entries[0].Text)
	assert.Equal(t, RoleCode, entries[1].Role)
	assert.Equal(t, "python", entries[1].Lang)
	assert.Equal(t, "plot(x)", entries[1].Text)

	assert.Equal(t, "See [plot](/api/files/file_2)\n\n```python\nplot(x)\n```", tr.LastReply())
}

func TestTranscriptDeltaWithoutCreated(t *testing.T) {
	tr := NewTranscript(nil)
	tr.Apply(assistant.Event{Type: assistant.EventMessageDelta, Data: &assistant.MessageDelta{ID: "msg_7", Text: "hi"}})
	tr.Apply(assistant.Event{Type: assistant.EventMessageDelta, Data: &assistant.MessageDelta{ID: "msg_7", Text: " there"}})
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "hi there", tr.Entries()[0].Text)
}

func TestTranscriptIgnoresUserMessageCreated(t *testing.T) {
	tr := NewTranscript(nil)
	assert.False(t, tr.Apply(assistant.Event{Type: assistant.EventMessageCreated, Data: &assistant.MessageInfo{ID: "msg_u", Role: "user"}}))
	assert.Zero(t, tr.Len())
}

func TestTranscriptErrors(t *testing.T) {
	tr := NewTranscript(nil)
	assert.True(t, tr.Apply(assistant.Event{Type: assistant.EventError, Data: &assistant.ErrorInfo{Message: "boom"}}))
	assert.True(t, tr.Apply(assistant.Event{Type: assistant.EventRunFailed, Data: &assistant.RunInfo{Status: "failed"}}))
	assert.False(t, tr.Apply(assistant.Event{Type: assistant.EventRunCompleted, Data: &assistant.RunInfo{Status: "completed"}}))

	require.Equal(t, 2, tr.Len())
	for _, e := range tr.Entries() {
		assert.Equal(t, RoleError, e.Role)
		assert.Equal(t, ReplyErrorText, e.Text)
	}
	assert.Empty(t, tr.LastReply())
}

func TestTranscriptLoadHistory(t *testing.T) {
	tr := NewTranscript(nil)
	tr.LoadHistory([]assistant.HistoryMessage{
		{Role: "user", Text: "hello"},
		{Role: "assistant", Text: "Hi!\n```\nx\n```"},
	})
	entries := tr.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, RoleAssistant, entries[1].Role)
	assert.Equal(t, RoleCode, entries[2].Role)
	assert.Equal(t, "Hi!\n\n```\nx\n```", tr.LastReply())
}

func TestMarkdownRenderFallsBackOnNil(t *testing.T) {
	var m *Markdown
	assert.Equal(t, "**bold**", m.Render("**bold**"))
}

func TestMarkdownRender(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "notty")
	m, err := NewMarkdown(40, "")
	require.NoError(t, err)
	assert.Equal(t, 40, m.Width())

	out := m.Render("# Limits\n\nA limit describes behaviour near a point.")
	assert.Contains(t, out, "Limits")
	assert.Contains(t, out, "behaviour")
	assert.NotRegexp(t, `\s$`, out)
}

func TestTUIStyle(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "")
	assert.Equal(t, StyleDark, TUIStyle())
	t.Setenv("GLAMOUR_STYLE", "auto")
	assert.Equal(t, StyleDark, TUIStyle())
	t.Setenv("GLAMOUR_STYLE", "light")
	assert.Equal(t, "light", TUIStyle())
}
