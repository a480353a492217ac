package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// AssistantRecord is a remote assistant created by bootstrap.
type AssistantRecord struct {
	ID          int
	AssistantID string
	Name        string
	Model       string
	CreatedAt   time.Time
}

// AssistantRepo remembers which remote assistants were created.
type AssistantRepo interface {
	// Record stores a newly created assistant.
	Record(ctx context.Context, rec AssistantRecord) error

	// Latest returns the most recently recorded assistant, or nil if none exist.
	Latest(ctx context.Context) (*AssistantRecord, error)
}

type assistantRepo struct {
	db      *sql.DB
	dialect string
}

func (r *assistantRepo) Record(ctx context.Context, rec AssistantRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query, args := entsql.Dialect(r.dialect).Insert(tableAssistants).
		Columns("assistant_id", "name", "model", "created_at").
		Values(rec.AssistantID, rec.Name, rec.Model, rec.CreatedAt).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert assistant: %w", err)
	}
	return nil
}

func (r *assistantRepo) Latest(ctx context.Context) (*AssistantRecord, error) {
	b := entsql.Dialect(r.dialect)
	t := b.Table(tableAssistants)
	query, args := b.Select(t.C("id"), t.C("assistant_id"), t.C("name"), t.C("model"), t.C("created_at")).
		From(t).
		OrderBy(entsql.Desc(t.C("id"))).
		Limit(1).
		Query()

	var rec AssistantRecord
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&rec.ID, &rec.AssistantID, &rec.Name, &rec.Model, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest assistant: %w", err)
	}
	return &rec, nil
}
