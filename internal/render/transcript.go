// Package render turns relayed assistant events into a chat transcript
// and renders it for terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/abhisek/calctutor/internal/assistant"
)

// Role says who an entry came from and how it is drawn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleCode      Role = "code"
	RoleError     Role = "error"
)

// Fixed texts shown by the chat front ends.
const (
	StartErrorText = "Sorry, there was an error starting the chat. Please try again."
	ReplyErrorText = "Sorry, something went wrong while answering. Please try again."
)

// Greeting is the first assistant line for a student without history.
func Greeting(name string) string {
	return fmt.Sprintf("Hello %s! How can I help you today?", name)
}

// Entry is one line of the conversation.
type Entry struct {
	Role Role
	Text string
	// Lang is the fence language of a code entry.
	Lang string

	messageID string
}

// Transcript accumulates entries as events arrive. A message streams into
// one assistant entry and is split into prose and code entries when it
// completes.
type Transcript struct {
	entries []Entry
	fileURL func(fileID string) string
	local   int
}

// NewTranscript creates an empty transcript. fileURL turns an assistant
// file id into a link; nil uses the server-relative path.
func NewTranscript(fileURL func(string) string) *Transcript {
	if fileURL == nil {
		fileURL = assistant.FileURL
	}
	return &Transcript{fileURL: fileURL}
}

// Entries returns the current entries. The slice must not be modified.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Add appends an entry.
func (t *Transcript) Add(role Role, text string) {
	t.entries = append(t.entries, Entry{Role: role, Text: text})
}

// AddMessage appends a finished message, splitting assistant text into
// prose and code entries.
func (t *Transcript) AddMessage(role Role, text string) {
	if role != RoleAssistant {
		t.Add(role, text)
		return
	}
	t.local++
	t.entries = append(t.entries, splitEntries(text, fmt.Sprintf("local-%d", t.local))...)
}

// LoadHistory appends the messages of an existing thread.
func (t *Transcript) LoadHistory(msgs []assistant.HistoryMessage) {
	for _, m := range msgs {
		role := RoleAssistant
		if m.Role == string(RoleUser) {
			role = RoleUser
		}
		t.AddMessage(role, m.Text)
	}
}

// Apply folds one relay event into the transcript. It reports whether the
// entries changed.
func (t *Transcript) Apply(ev assistant.Event) bool {
	switch d := ev.Data.(type) {
	case *assistant.MessageInfo:
		if d.Role != "" && d.Role != string(RoleAssistant) {
			return false
		}
		t.entries = append(t.entries, Entry{Role: RoleAssistant, messageID: d.ID})
		return true

	case *assistant.MessageDelta:
		i := t.open(d.ID)
		if d.Text != "" {
			t.entries[i].Text += d.Text
		}
		if d.ImageFileID != "" {
			t.entries[i].Text += fmt.Sprintf("\n![%s](%s)\n", d.ImageFileID, t.fileURL(d.ImageFileID))
		}
		return true

	case *assistant.MessageCompleted:
		i := t.open(d.ID)
		text := t.entries[i].Text
		if strings.TrimSpace(text) == "" {
			text = d.Text
		}
		for _, a := range d.Annotations {
			if a.Type == "file_path" && a.Text != "" && a.FileID != "" {
				text = strings.ReplaceAll(text, a.Text, t.fileURL(a.FileID))
			}
		}
		done := splitEntries(text, d.ID)
		t.entries = append(t.entries[:i], append(done, t.entries[i+1:]...)...)
		return true

	case *assistant.ErrorInfo:
		t.Add(RoleError, ReplyErrorText)
		return true
	}

	switch ev.Type {
	case assistant.EventRunFailed, assistant.EventRunCancelled, assistant.EventRunExpired, assistant.EventRunIncomplete:
		t.Add(RoleError, ReplyErrorText)
		return true
	}
	return false
}

// open returns the index of the streaming entry for messageID, creating
// it when the created event was missed.
func (t *Transcript) open(messageID string) int {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].messageID == messageID && messageID != "" {
			return i
		}
	}
	t.entries = append(t.entries, Entry{Role: RoleAssistant, messageID: messageID})
	return len(t.entries) - 1
}

// LastReply returns the text of the most recent assistant message,
// including its code blocks.
func (t *Transcript) LastReply() string {
	end := len(t.entries) - 1
	for end >= 0 && t.entries[end].Role != RoleAssistant && t.entries[end].Role != RoleCode {
		end--
	}
	if end < 0 {
		return ""
	}
	start := end
	id := t.entries[end].messageID
	for start > 0 {
		prev := t.entries[start-1]
		if prev.Role != RoleAssistant && prev.Role != RoleCode {
			break
		}
		if id == "" || prev.messageID != id {
			break
		}
		start--
	}

	var parts []string
	for _, e := range t.entries[start : end+1] {
		if e.Role == RoleCode {
			parts = append(parts, "```"+e.Lang+"\n"+e.Text+"\n```")
			continue
		}
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, "\n\n")
}

func splitEntries(text, messageID string) []Entry {
	segs := Split(text)
	if len(segs) == 0 {
		return []Entry{{Role: RoleAssistant, messageID: messageID}}
	}
	out := make([]Entry, 0, len(segs))
	for _, s := range segs {
		e := Entry{Role: RoleAssistant, Text: s.Text, messageID: messageID}
		if s.Code {
			e.Role, e.Lang = RoleCode, s.Lang
		}
		out = append(out, e)
	}
	return out
}
