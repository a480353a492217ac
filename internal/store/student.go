package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrStudentExists is returned by Create when the name is already taken.
var ErrStudentExists = errors.New("student already exists")

// Student is a learner identified by display name, paired with the remote
// conversation thread created for them.
type Student struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ThreadID  string    `json:"threadId"`
	CreatedAt time.Time `json:"createdAt"`
}

// StudentRepo maps student names to thread identifiers.
type StudentRepo interface {
	// FindByName returns the student with the given name, or nil if none exists.
	FindByName(ctx context.Context, name string) (*Student, error)

	// Create stores a student and its thread together. Returns
	// ErrStudentExists if the name is taken.
	Create(ctx context.Context, name, threadID string) (*Student, error)

	// List returns all students, oldest first.
	List(ctx context.Context) ([]Student, error)
}

type studentRepo struct {
	db      *sql.DB
	dialect string
}

func (r *studentRepo) selectStudents() *entsql.Selector {
	b := entsql.Dialect(r.dialect)
	// The joined table needs its alias before columns are taken from it.
	s, t := b.Table(tableStudents), b.Table(tableThreads).As("t")
	return b.Select(s.C("id"), s.C("name"), t.C("thread_id"), s.C("created_at")).
		From(s).
		Join(t).On(s.C("id"), t.C("student_id"))
}

func (r *studentRepo) FindByName(ctx context.Context, name string) (*Student, error) {
	sel := r.selectStudents()
	query, args := sel.Where(entsql.EQ(sel.C("name"), name)).Query()

	var st Student
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&st.ID, &st.Name, &st.ThreadID, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query student %q: %w", name, err)
	}
	return &st, nil
}

func (r *studentRepo) Create(ctx context.Context, name, threadID string) (*Student, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	b := entsql.Dialect(r.dialect)

	query, args := b.Insert(tableStudents).
		Columns("name", "created_at").
		Values(name, now).
		Returning("id").
		Query()
	var id int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrStudentExists
		}
		return nil, fmt.Errorf("insert student: %w", err)
	}

	query, args = b.Insert(tableThreads).
		Columns("thread_id", "created_at", "student_id").
		Values(threadID, now, id).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &Student{ID: id, Name: name, ThreadID: threadID, CreatedAt: now}, nil
}

func (r *studentRepo) List(ctx context.Context) ([]Student, error) {
	sel := r.selectStudents()
	query, args := sel.OrderBy(sel.C("id")).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name, &st.ThreadID, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
