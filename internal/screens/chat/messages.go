package chat

import "github.com/abhisek/calctutor/internal/assistant"

// turnStartedMsg is sent once the message was accepted and the reply
// stream is open.
type turnStartedMsg struct {
	src EventSource
	err error
}

// turnEventMsg carries one event of the reply.
type turnEventMsg struct {
	src EventSource
	ev  assistant.Event
}

// turnEndedMsg is sent when the reply stream is exhausted.
type turnEndedMsg struct {
	err error
}

// copiedMsg reports the result of copying the last reply.
type copiedMsg struct {
	err error
}
