// Package router stacks the client's screens. The welcome screen sits at
// the bottom; each enrolled student's chat is pushed on top of it.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/calctutor/internal/screen"
)

// PushScreenMsg opens a screen above the active one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the active screen.
type PopScreenMsg struct{}

// Router owns the screen stack and routes messages to the top screen.
type Router struct {
	stack []screen.Screen
}

func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

// Push shows s and runs its Init.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop closes the top screen and resumes the one below it. The root screen
// is never popped.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) < 2 {
		return nil
	}
	r.stack[len(r.stack)-1] = nil
	r.stack = r.stack[:len(r.stack)-1]
	if res, ok := r.Active().(screen.Resumer); ok {
		return res.Resume()
	}
	return nil
}

func (r *Router) Active() screen.Screen {
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Update handles navigation and hands every other message to the active
// screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	}

	top := len(r.stack) - 1
	next, cmd := r.stack[top].Update(msg)
	r.stack[top] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	return r.Active().View(width, height)
}
