package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/assistant/assistanttest"
	"github.com/abhisek/calctutor/internal/store"
	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/tutor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	api    *assistanttest.Server
	store  *store.Store
	router http.Handler
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := assistanttest.NewServer(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := quietLogger()
	client, err := assistant.NewClient(assistant.Config{APIKey: "test-key", BaseURL: api.BaseURL()}, st.Events(), logger)
	require.NoError(t, err)

	srv := New(":0", Deps{
		Students:   students.NewService(st.Students(), client, logger),
		Assistants: client,
		Creator:    assistant.NewBootstrapper(client, st.Assistants(), assistant.Config{}, logger),
		Relay: assistant.NewRelay(client, "asst_test", assistant.RelayConfig{
			PollInterval: 5 * time.Millisecond,
			RunTimeout:   2 * time.Second,
		}, logger),
		Logger: logger,
	})
	return &testEnv{api: api, store: st, router: srv.Handler()}
}

func (e *testEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) enroll(t *testing.T, name string) students.Enrollment {
	t.Helper()
	w := e.post(t, "/api/students", `{"studentName":"`+name+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res students.Enrollment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

type frame struct {
	event string
	data  string
}

func parseFrames(t *testing.T, body string) []frame {
	t.Helper()
	var out []frame
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var f frame
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				f.event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				f.data = strings.TrimPrefix(line, "data: ")
			}
		}
		out = append(out, f)
	}
	return out
}

func eventNames(frames []frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.event
	}
	return out
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestEnrollMissingName(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{``, `{}`, `{"studentName":""}`, `{"studentName":"   "}`, `not json`} {
		w := env.post(t, "/api/students", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, "Student name is required", errorBody(t, w), "body %q", body)
	}
	assert.Equal(t, 0, env.api.Threads())
}

func TestEnrollNewStudentCreatesOneThread(t *testing.T) {
	env := newTestEnv(t)

	res := env.enroll(t, "Ada")
	assert.True(t, res.IsNewStudent)
	assert.NotEmpty(t, res.ThreadID)
	assert.Empty(t, res.Messages)
	assert.Equal(t, 1, env.api.Threads())

	all, err := env.store.Students().List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ada", all[0].Name)
	assert.Equal(t, res.ThreadID, all[0].ThreadID)
}

func TestEnrollRepeatedNameReturnsSameThread(t *testing.T) {
	env := newTestEnv(t)

	first := env.enroll(t, "Ada")
	env.api.AddMessage(first.ThreadID, "user", "what is a derivative?")
	env.api.AddMessage(first.ThreadID, "assistant", "The rate of change.")

	second := env.enroll(t, "Ada")
	assert.Equal(t, first.ThreadID, second.ThreadID)
	assert.False(t, second.IsNewStudent)
	assert.Equal(t, []assistant.HistoryMessage{
		{Role: "user", Text: "what is a derivative?"},
		{Role: "assistant", Text: "The rate of change."},
	}, second.Messages)
	assert.Equal(t, 1, env.api.Threads())
}

func TestEnrollFailure(t *testing.T) {
	env := newTestEnv(t)
	env.api.FailNext("create_thread", 1)

	w := env.post(t, "/api/students", `{"studentName":"Ada"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to process student request", errorBody(t, w))

	all, err := env.store.Students().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateAssistant(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/assistants", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["assistantId"])

	reqs := env.api.Assistants()
	require.Len(t, reqs, 1)
	assert.Equal(t, tutor.AssistantName, reqs[0].Name)
	require.Len(t, reqs[0].Tools, 2)
	assert.Equal(t, tutor.ToolGenerateQuestions, reqs[0].Tools[0].Function.Name)
	assert.Equal(t, tutor.ToolEvaluateAnswer, reqs[0].Tools[1].Function.Name)
}

func TestCreateThread(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/assistants/threads", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"threadId":"thread_`)
	assert.Equal(t, 1, env.api.Threads())
}

func TestSendMessageStreams(t *testing.T) {
	env := newTestEnv(t)
	threadID := env.enroll(t, "Ada").ThreadID

	env.api.Script(
		assistanttest.Step{Status: openai.RunStatusInProgress, Text: "The derivative "},
		assistanttest.Step{Status: openai.RunStatusInProgress, Text: "of x^2 is 2x."},
		assistanttest.Step{Status: openai.RunStatusCompleted},
	)

	w := env.post(t, "/api/assistants/threads/"+threadID+"/messages", `{"content":"d/dx x^2?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	frames := parseFrames(t, w.Body.String())
	assert.Equal(t, []string{
		assistant.EventRunCreated,
		assistant.EventMessageCreated,
		assistant.EventMessageDelta,
		assistant.EventMessageDelta,
		assistant.EventMessageCompleted,
		assistant.EventRunCompleted,
		assistant.EventDone,
	}, eventNames(frames))
	assert.Equal(t, DoneData, frames[len(frames)-1].data)

	ev, err := assistant.DecodeEvent(frames[4].event, []byte(frames[4].data))
	require.NoError(t, err)
	assert.Equal(t, "The derivative of x^2 is 2x.", ev.Data.(*assistant.MessageCompleted).Text)
	assert.Equal(t, []string{"user: d/dx x^2?", "assistant: The derivative of x^2 is 2x."}, env.api.Messages(threadID))
}

func TestSendMessageMissingContent(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/assistants/threads/thread_x/messages", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Message content is required", errorBody(t, w))
}

func TestSendMessageRunFailureIsStreamed(t *testing.T) {
	env := newTestEnv(t)
	threadID := env.enroll(t, "Ada").ThreadID
	env.api.FailNext("create_run", 1)

	w := env.post(t, "/api/assistants/threads/"+threadID+"/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	frames := parseFrames(t, w.Body.String())
	assert.Equal(t, []string{assistant.EventError, assistant.EventDone}, eventNames(frames))
	assert.Contains(t, frames[0].data, `"message"`)
}

func TestSubmitActionsResumesRun(t *testing.T) {
	env := newTestEnv(t)
	threadID := env.enroll(t, "Ada").ThreadID

	env.api.Script(
		assistanttest.Step{
			Status: openai.RunStatusRequiresAction,
			ToolCalls: []openai.ToolCall{{
				ID:       "call_1",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: tutor.ToolEvaluateAnswer, Arguments: `{}`},
			}},
		},
		assistanttest.Step{Status: openai.RunStatusInProgress, Text: "Correct!"},
		assistanttest.Step{Status: openai.RunStatusCompleted},
	)

	w := env.post(t, "/api/assistants/threads/"+threadID+"/messages", `{"content":"my answer is B"}`)
	frames := parseFrames(t, w.Body.String())
	require.Equal(t, []string{assistant.EventRunCreated, assistant.EventRunRequiresAction, assistant.EventDone}, eventNames(frames))

	ev, err := assistant.DecodeEvent(frames[1].event, []byte(frames[1].data))
	require.NoError(t, err)
	info := ev.Data.(*assistant.RunInfo)
	require.Len(t, info.ToolCalls, 1)

	body, err := json.Marshal(map[string]any{
		"runId": info.ID,
		"toolCallOutputs": []map[string]string{
			{"tool_call_id": "call_1", "output": `{"correct":true}`},
		},
	})
	require.NoError(t, err)

	w = env.post(t, "/api/assistants/threads/"+threadID+"/actions", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	frames = parseFrames(t, w.Body.String())
	assert.Equal(t, []string{
		assistant.EventMessageCreated,
		assistant.EventMessageDelta,
		assistant.EventMessageCompleted,
		assistant.EventRunCompleted,
		assistant.EventDone,
	}, eventNames(frames))

	submitted := env.api.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, "call_1", submitted[0][0].ToolCallID)
	assert.Equal(t, `{"correct":true}`, submitted[0][0].Output)
}

func TestSubmitActionsMissingRunID(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/assistants/threads/thread_x/actions", `{"toolCallOutputs":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Run ID is required", errorBody(t, w))
}

func TestFileProxy(t *testing.T) {
	env := newTestEnv(t)
	env.api.AddFile("file_plot", "PNGDATA")

	req := httptest.NewRequest(http.MethodGet, "/api/files/file_plot", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "PNGDATA", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/files/missing", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

type panicEnroller struct{}

func (panicEnroller) Enroll(context.Context, string) (*students.Enrollment, error) {
	panic("boom")
}

func TestRecovery(t *testing.T) {
	srv := New(":0", Deps{Students: panicEnroller{}, Logger: quietLogger()})

	req := httptest.NewRequest(http.MethodPost, "/api/students", bytes.NewBufferString(`{"studentName":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", errorBody(t, w))
}
