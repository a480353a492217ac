package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/calctutor/internal/store"
	"github.com/abhisek/calctutor/internal/tutor"
)

// TutorSpec is the calculus tutor assistant definition.
func TutorSpec(model string) AssistantSpec {
	if model == "" {
		model = tutor.DefaultModel
	}
	return AssistantSpec{
		Name:         tutor.AssistantName,
		Model:        model,
		Instructions: tutor.Instructions,
		Tools:        tutor.Tools(),
	}
}

// Bootstrapper creates the tutor assistant and remembers which one to use.
type Bootstrapper struct {
	client *Client
	repo   store.AssistantRepo
	cfg    Config
	logger *slog.Logger
}

// NewBootstrapper creates a Bootstrapper.
func NewBootstrapper(client *Client, repo store.AssistantRepo, cfg Config, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrapper{client: client, repo: repo, cfg: cfg, logger: logger}
}

// Create makes a new remote assistant and records it.
func (b *Bootstrapper) Create(ctx context.Context) (string, error) {
	spec := TutorSpec(b.cfg.Model)
	id, err := b.client.CreateAssistant(ctx, spec)
	if err != nil {
		return "", err
	}
	if err := b.repo.Record(ctx, store.AssistantRecord{AssistantID: id, Name: spec.Name, Model: spec.Model}); err != nil {
		return "", fmt.Errorf("record assistant %s: %w", id, err)
	}
	b.logger.Info("assistant created", "assistant_id", id, "model", spec.Model)
	return id, nil
}

// Resolve returns the configured assistant id, else the latest recorded
// one, else a newly created assistant.
func (b *Bootstrapper) Resolve(ctx context.Context) (string, error) {
	if b.cfg.AssistantID != "" {
		return b.cfg.AssistantID, nil
	}
	rec, err := b.repo.Latest(ctx)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return rec.AssistantID, nil
	}
	b.logger.Info("no assistant recorded, creating one")
	return b.Create(ctx)
}
