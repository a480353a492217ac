// Package students enrolls learners by name, pairing each with one
// assistant thread.
package students

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/store"
)

// createTimeout bounds a shared enrollment once it no longer follows a
// caller's context.
const createTimeout = time.Minute

// ErrNameRequired is returned when the student name is blank.
var ErrNameRequired = errors.New("student name is required")

// Threads is the part of the assistant client enrollment needs.
type Threads interface {
	CreateThread(ctx context.Context) (string, error)
	History(ctx context.Context, threadID string) ([]assistant.HistoryMessage, error)
}

// Enrollment is the result of Enroll.
type Enrollment struct {
	ThreadID     string                     `json:"threadId"`
	IsNewStudent bool                       `json:"isNewStudent"`
	Messages     []assistant.HistoryMessage `json:"messages"`
}

// Service maps student names to threads.
type Service struct {
	repo    store.StudentRepo
	threads Threads
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService creates a Service.
func NewService(repo store.StudentRepo, threads Threads, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, threads: threads, logger: logger}
}

// Enroll returns the thread for name with its history, creating the
// student and thread on first sight.
func (s *Service) Enroll(ctx context.Context, name string) (*Enrollment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	st, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	if st != nil {
		return s.existing(ctx, st)
	}

	ch := s.group.DoChan(name, func() (any, error) {
		// Every caller enrolling name shares this flight.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), createTimeout)
		defer cancel()
		return s.create(fctx, name)
	})
	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-ch:
	}
	if r.Err != nil {
		return nil, r.Err
	}
	res := r.Val.(created)
	if !res.fresh {
		return s.existing(ctx, res.student)
	}
	return &Enrollment{ThreadID: res.student.ThreadID, IsNewStudent: true, Messages: []assistant.HistoryMessage{}}, nil
}

type created struct {
	student *store.Student
	fresh   bool
}

func (s *Service) existing(ctx context.Context, st *store.Student) (*Enrollment, error) {
	msgs, err := s.threads.History(ctx, st.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if msgs == nil {
		msgs = []assistant.HistoryMessage{}
	}
	return &Enrollment{ThreadID: st.ThreadID, Messages: msgs}, nil
}

func (s *Service) create(ctx context.Context, name string) (created, error) {
	threadID, err := s.threads.CreateThread(ctx)
	if err != nil {
		return created{}, err
	}

	st, err := s.repo.Create(ctx, name, threadID)
	if errors.Is(err, store.ErrStudentExists) {
		// Another process enrolled the same name first; its thread wins.
		s.logger.Warn("student created concurrently, discarding thread", "student", name, "thread_id", threadID)
		st, err = s.repo.FindByName(ctx, name)
		if err == nil && st == nil {
			err = fmt.Errorf("student %q vanished after conflict", name)
		}
		if err != nil {
			return created{}, fmt.Errorf("reload student: %w", err)
		}
		return created{student: st}, nil
	}
	if err != nil {
		return created{}, fmt.Errorf("create student: %w", err)
	}
	s.logger.Info("student enrolled", "student", name, "thread_id", st.ThreadID)
	return created{student: st, fresh: true}, nil
}

// List returns every enrolled student.
func (s *Service) List(ctx context.Context) ([]store.Student, error) {
	return s.repo.List(ctx)
}
