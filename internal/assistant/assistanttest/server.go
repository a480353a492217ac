// Package assistanttest provides an in-memory Assistants API for tests.
package assistanttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
)

// Step is one observable state of a scripted run. Each poll of the run
// advances one step; the last step repeats.
type Step struct {
	Status openai.RunStatus

	// Text is appended to the step's message, creating it if needed.
	Text string
	// Image adds an image file part to the message.
	Image string
	// NewMessage starts a fresh assistant message for Text and Image.
	NewMessage bool

	ToolCalls []openai.ToolCall
	LastError *openai.RunLastError
}

// Server is a fake Assistants API. Point a go-openai client at URL().
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	seq        int
	assistants []AssistantRequest
	threads    map[string][]*openai.Message
	runs       map[string]*run
	script     []Step
	files      map[string]string
	submitted  [][]openai.ToolOutput
	fail       map[string]int
}

type run struct {
	openai.Run
	steps   []Step
	pos     int
	current *openai.Message
}

// NewServer starts a fake API and stops it when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		threads: make(map[string][]*openai.Message),
		runs:    make(map[string]*run),
		files:   make(map[string]string),
		fail:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/assistants", s.createAssistant)
	mux.HandleFunc("POST /v1/threads", s.createThread)
	mux.HandleFunc("POST /v1/threads/{thread}/messages", s.createMessage)
	mux.HandleFunc("GET /v1/threads/{thread}/messages", s.listMessages)
	mux.HandleFunc("POST /v1/threads/{thread}/runs", s.createRun)
	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", s.retrieveRun)
	mux.HandleFunc("POST /v1/threads/{thread}/runs/{run}/submit_tool_outputs", s.submitToolOutputs)
	mux.HandleFunc("GET /v1/files/{file}/content", s.fileContent)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value for the client's BaseURL setting.
func (s *Server) BaseURL() string {
	return s.URL + "/v1"
}

// Script sets the steps every subsequent run follows.
func (s *Server) Script(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = steps
}

// AddFile makes content downloadable under id.
func (s *Server) AddFile(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = content
}

// AddMessage seeds a thread with a message.
func (s *Server) AddMessage(threadID, role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendMessage(threadID, role, text, nil)
}

// FailNext makes the next n calls of the named operation return 500.
// Operations: create_thread, create_message, list_messages, create_run,
// retrieve_run, submit_tool_outputs.
func (s *Server) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = n
}

// Threads returns how many threads were created.
func (s *Server) Threads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// AssistantRequest is a received assistant creation request.
type AssistantRequest struct {
	Model        string                 `json:"model"`
	Name         string                 `json:"name"`
	Instructions string                 `json:"instructions"`
	Tools        []openai.AssistantTool `json:"tools"`
}

// Assistants returns the assistant creation requests received.
func (s *Server) Assistants() []AssistantRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AssistantRequest(nil), s.assistants...)
}

// Submitted returns every batch of tool outputs received.
func (s *Server) Submitted() [][]openai.ToolOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]openai.ToolOutput(nil), s.submitted...)
}

// Messages returns the texts of a thread's messages, oldest first.
func (s *Server) Messages(threadID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.threads[threadID] {
		for _, c := range m.Content {
			if c.Text != nil {
				out = append(out, m.Role+": "+c.Text.Value)
			}
		}
	}
	return out
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return prefix + "_" + strconv.Itoa(s.seq)
}

func (s *Server) failing(w http.ResponseWriter, op string) bool {
	if s.fail[op] == 0 {
		return false
	}
	s.fail[op]--
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `{"error":{"message":"%s failed","type":"server_error"}}`, op)
	return true
}

func (s *Server) createAssistant(w http.ResponseWriter, r *http.Request) {
	var req AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistants = append(s.assistants, req)
	writeJSON(w, openai.Assistant{ID: s.nextID("asst"), Model: req.Model, Name: &req.Name})
}

func (s *Server) createThread(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w, "create_thread") {
		return
	}
	id := s.nextID("thread")
	s.threads[id] = nil
	writeJSON(w, openai.Thread{ID: id, Object: "thread"})
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var req openai.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w, "create_message") {
		return
	}
	threadID := r.PathValue("thread")
	if _, ok := s.threads[threadID]; !ok {
		notFound(w, "thread")
		return
	}
	m := s.appendMessage(threadID, req.Role, req.Content, nil)
	writeJSON(w, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w, "list_messages") {
		return
	}
	threadID := r.PathValue("thread")
	msgs, ok := s.threads[threadID]
	if !ok {
		notFound(w, "thread")
		return
	}

	q := r.URL.Query()
	runID := q.Get("run_id")
	var data []openai.Message
	for _, m := range msgs {
		if runID != "" && (m.RunID == nil || *m.RunID != runID) {
			continue
		}
		data = append(data, *m)
	}
	if q.Get("order") == "desc" {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	if data == nil {
		data = []openai.Message{}
	}
	writeJSON(w, openai.MessagesList{Object: "list", Messages: data})
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req openai.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w, "create_run") {
		return
	}
	threadID := r.PathValue("thread")
	if _, ok := s.threads[threadID]; !ok {
		notFound(w, "thread")
		return
	}
	rn := &run{
		Run:   openai.Run{ID: s.nextID("run"), ThreadID: threadID, AssistantID: req.AssistantID, Status: openai.RunStatusQueued},
		steps: s.script,
		pos:   -1,
	}
	s.runs[rn.ID] = rn
	writeJSON(w, rn.Run)
}

func (s *Server) retrieveRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w, "retrieve_run") {
		return
	}
	rn, ok := s.runs[r.PathValue("run")]
	if !ok {
		notFound(w, "run")
		return
	}
	s.advance(rn)
	writeJSON(w, rn.Run)
}

func (s *Server) submitToolOutputs(w http.ResponseWriter, r *http.Request) {
	var req openai.SubmitToolOutputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w, "submit_tool_outputs") {
		return
	}
	rn, ok := s.runs[r.PathValue("run")]
	if !ok {
		notFound(w, "run")
		return
	}
	if rn.Status != openai.RunStatusRequiresAction {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"run is not waiting for tool outputs","type":"invalid_request_error"}}`)
		return
	}
	s.submitted = append(s.submitted, req.ToolOutputs)
	rn.Status = openai.RunStatusQueued
	rn.RequiredAction = nil
	writeJSON(w, rn.Run)
}

func (s *Server) fileContent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	content, ok := s.files[r.PathValue("file")]
	s.mu.Unlock()
	if !ok {
		notFound(w, "file")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	fmt.Fprint(w, content)
}

// advance moves rn to its next scripted step.
func (s *Server) advance(rn *run) {
	if len(rn.steps) == 0 {
		rn.Status = openai.RunStatusCompleted
		return
	}
	if rn.pos < len(rn.steps)-1 {
		rn.pos++
	} else {
		return
	}
	st := rn.steps[rn.pos]

	if st.NewMessage || (rn.current == nil && (st.Text != "" || st.Image != "")) {
		rn.current = s.appendMessage(rn.ThreadID, "assistant", "", &rn.ID)
	}
	if st.Text != "" {
		appendText(rn.current, st.Text)
	}
	if st.Image != "" {
		rn.current.Content = append(rn.current.Content, openai.MessageContent{
			Type:      "image_file",
			ImageFile: &openai.ImageFile{FileID: st.Image},
		})
	}

	rn.Status = st.Status
	rn.LastError = st.LastError
	rn.RequiredAction = nil
	if len(st.ToolCalls) > 0 {
		rn.RequiredAction = &openai.RunRequiredAction{
			Type:              openai.RequiredActionTypeSubmitToolOutputs,
			SubmitToolOutputs: &openai.SubmitToolOutputs{ToolCalls: st.ToolCalls},
		}
	}
}

func (s *Server) appendMessage(threadID, role, text string, runID *string) *openai.Message {
	m := &openai.Message{
		ID:       s.nextID("msg"),
		Object:   "thread.message",
		ThreadID: threadID,
		Role:     role,
		RunID:    runID,
	}
	if text != "" {
		appendText(m, text)
	}
	s.threads[threadID] = append(s.threads[threadID], m)
	return m
}

func appendText(m *openai.Message, text string) {
	for i := range m.Content {
		if m.Content[i].Text != nil {
			m.Content[i].Text.Value += text
			return
		}
	}
	m.Content = append(m.Content, openai.MessageContent{
		Type: "text",
		Text: &openai.MessageText{Value: text, Annotations: []any{}},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, what string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error":{"message":"no such %s","type":"invalid_request_error"}}`, what)
}
