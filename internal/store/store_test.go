package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/a.db", "file:/tmp/a.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"},
		{"file:x.db?mode=rwc", "file:x.db?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPostgresDSN(t *testing.T) {
	tests := map[string]bool{
		"postgres://u:p@localhost/db": true,
		"postgresql://localhost/db":   true,
		"/home/u/.local/share/x.db":   false,
		"file::memory:?cache=shared":  false,
		"postgres-backup.db":          false,
	}
	for dsn, want := range tests {
		if got := IsPostgresDSN(dsn); got != want {
			t.Errorf("IsPostgresDSN(%q) = %v, want %v", dsn, got, want)
		}
	}
}

func TestStudentFindByNameMiss(t *testing.T) {
	s := openTestStore(t)

	st, err := s.Students().FindByName(context.Background(), "ada")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil student, got %+v", st)
	}
}

func TestStudentSelectQualifiesJoinedColumns(t *testing.T) {
	for _, d := range []string{dialectSQLite, dialectPostgres} {
		query, _ := (&studentRepo{dialect: d}).selectStudents().Query()
		if strings.Contains(query, "threads.thread_id") || strings.Contains(query, `"threads"."thread_id"`) || strings.Contains(query, "`threads`.`thread_id`") {
			t.Errorf("%s: thread column must use the join alias: %s", d, query)
		}
		if !strings.Contains(query, " AS ") {
			t.Errorf("%s: expected an aliased join: %s", d, query)
		}
	}
}

func TestStudentFindReturnsStoredThread(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	if _, err := repo.Create(ctx, "emmy", "thread_emmy"); err != nil {
		t.Fatalf("create: %v", err)
	}
	again, err := repo.FindByName(ctx, "emmy")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if again == nil || again.ThreadID != "thread_emmy" {
		t.Fatalf("expected the stored thread, got %+v", again)
	}
}

func TestStudentCreateAndFind(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	created, err := repo.Create(ctx, "ada", "thread_abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := repo.FindByName(ctx, "ada")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("expected student")
	}
	if got.ThreadID != "thread_abc" {
		t.Errorf("thread = %q, want thread_abc", got.ThreadID)
	}
	if got.ID != created.ID {
		t.Errorf("id = %d, want %d", got.ID, created.ID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestStudentCreateDuplicateName(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	if _, err := repo.Create(ctx, "ada", "thread_1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(ctx, "ada", "thread_2")
	if !errors.Is(err, ErrStudentExists) {
		t.Fatalf("expected ErrStudentExists, got %v", err)
	}

	got, err := repo.FindByName(ctx, "ada")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ThreadID != "thread_1" {
		t.Errorf("thread reassigned to %q", got.ThreadID)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 student, got %d", len(all))
	}
}

func TestStudentCreateDuplicateThreadRollsBack(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	if _, err := repo.Create(ctx, "ada", "thread_1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, "grace", "thread_1"); err == nil {
		t.Fatal("expected error for reused thread id")
	}

	got, err := repo.FindByName(ctx, "grace")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatal("student row should have been rolled back")
	}
}

func TestStudentList(t *testing.T) {
	s := openTestStore(t)
	repo := s.Students()
	ctx := context.Background()

	for _, name := range []string{"ada", "grace", "emmy"} {
		if _, err := repo.Create(ctx, name, "thread_"+name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 students, got %d", len(all))
	}
	if all[0].Name != "ada" || all[2].Name != "emmy" {
		t.Errorf("unexpected order: %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}
	if all[1].ThreadID != "thread_grace" {
		t.Errorf("thread = %q, want thread_grace", all[1].ThreadID)
	}
}

func TestAssistantLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.Assistants()
	ctx := context.Background()

	rec, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil when no assistant recorded")
	}

	for _, id := range []string{"asst_1", "asst_2"} {
		if err := repo.Record(ctx, AssistantRecord{AssistantID: id, Name: "Calculus Tutor", Model: "gpt-4o"}); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	rec, err = repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if rec.AssistantID != "asst_2" {
		t.Errorf("latest = %q, want asst_2", rec.AssistantID)
	}
}

func TestAPIEventsQueryAndUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.Events()
	ctx := context.Background()

	events := []APIEvent{
		{Source: SourceAssistant, Operation: "create_thread", LatencyMs: 100, Success: true},
		{Source: SourceAssistant, Operation: "create_run", ThreadID: "thread_1", LatencyMs: 200, Success: true},
		{Source: SourceAssistant, Operation: "create_run", ThreadID: "thread_1", LatencyMs: 400, Success: false, ErrorMessage: "boom"},
		{Source: SourceLLM, Operation: "question-gen", Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 50, LatencyMs: 900, Success: true, RequestBody: "[system]\nhi"},
	}
	for _, ev := range events {
		if err := repo.AppendAPIEvent(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryAPIEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 events, got %d", len(all))
	}
	if all[0].Source != SourceLLM {
		t.Errorf("expected newest first, got %s", all[0].Source)
	}

	runs, err := repo.QueryAPIEvents(ctx, QueryOpts{Operation: "create_run", ThreadID: "thread_1", Limit: 1})
	if err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ErrorMessage != "boom" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	got, err := repo.GetAPIEvent(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RequestBody != "[system]\nhi" {
		t.Errorf("request body = %q", got.RequestBody)
	}
	missing, err := repo.GetAPIEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing event")
	}

	usage, err := repo.UsageByOperation(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(usage))
	}
	run := usage[0]
	if run.Key != "assistant/create_run" || run.Calls != 2 || run.Failures != 1 || run.AvgLatencyMs != 300 {
		t.Errorf("unexpected create_run stat: %+v", run)
	}

	models, err := repo.UsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(models) != 1 || models[0].Key != "gpt-4o-mini" || models[0].InputTokens != 100 {
		t.Errorf("unexpected model usage: %+v", models)
	}
}

func TestAPIEventsFrom(t *testing.T) {
	s := openTestStore(t)
	repo := s.Events()
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour).UTC()
	if err := repo.AppendAPIEvent(ctx, APIEvent{Timestamp: old, Source: SourceAssistant, Operation: "create_thread", Success: true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendAPIEvent(ctx, APIEvent{Source: SourceAssistant, Operation: "create_thread", Success: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	recent, err := repo.QueryAPIEvents(ctx, QueryOpts{From: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent event, got %d", len(recent))
	}
}
