package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/notes"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

// NoteService manages the per-owner scratchpad note.
type NoteService interface {
	// Get returns the owner's note, creating an empty one on first use.
	Get(ctx context.Context) (*models.Note, error)

	// Update replaces the note content.
	Update(ctx context.Context, content string) (*models.Note, error)

	// Clear tombstones the note. The next Get starts a fresh one.
	Clear(ctx context.Context) error
}

type noteService struct {
	auth    auth.Service
	repo    notes.Repository
	trigger *SyncTrigger
}

func NewNoteService(authSvc auth.Service, repo notes.Repository, trigger *SyncTrigger) NoteService {
	return &noteService{auth: authSvc, repo: repo, trigger: trigger}
}

func (s *noteService) Get(ctx context.Context) (*models.Note, error) {
	ownerID := s.auth.EffectiveOwnerID(ctx)
	n, err := s.repo.GetByOwner(ctx, ownerID)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("failed to load note: %w", err)
	}

	now := timex.NowMillis()
	n = &models.Note{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncStatusPending,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	s.trigger.Kick()
	return n, nil
}

func (s *noteService) Update(ctx context.Context, content string) (*models.Note, error) {
	n, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	n.Content = content
	n.UpdatedAt = timex.NowMillis()
	n.SyncStatus = models.SyncStatusPending
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	s.trigger.Kick()
	return n, nil
}

func (s *noteService) Clear(ctx context.Context) error {
	ownerID := s.auth.EffectiveOwnerID(ctx)
	n, err := s.repo.GetByOwner(ctx, ownerID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load note: %w", err)
	}

	n.Deleted = true
	n.UpdatedAt = timex.NowMillis()
	n.SyncStatus = models.SyncStatusPending
	if err := s.repo.Put(ctx, n); err != nil {
		return fmt.Errorf("failed to clear note: %w", err)
	}
	s.trigger.Kick()
	return nil
}
