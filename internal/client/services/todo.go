package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/todos"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

// TodoService exposes checklist operations scoped to the effective owner.
type TodoService interface {
	Add(ctx context.Context, content string) (*models.Todo, error)

	// Toggle flips the completion flag and returns the new state.
	Toggle(ctx context.Context, id string) (*models.Todo, error)

	UpdateContent(ctx context.Context, id, content string) (*models.Todo, error)

	// Move places the todo at position and shifts its neighbors.
	Move(ctx context.Context, id string, position int) error

	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Todo, error)
}

type todoService struct {
	auth     auth.Service
	repo     todos.Repository
	trigger  *SyncTrigger
	validate *validator.Validate
}

func NewTodoService(authSvc auth.Service, repo todos.Repository, trigger *SyncTrigger) TodoService {
	return &todoService{
		auth:     authSvc,
		repo:     repo,
		trigger:  trigger,
		validate: validator.New(),
	}
}

func (s *todoService) Add(ctx context.Context, content string) (*models.Todo, error) {
	if err := s.validate.Var(content, "required,max=1024"); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	ownerID := s.auth.EffectiveOwnerID(ctx)
	existing, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	now := timex.NowMillis()
	t := &models.Todo{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Content:    content,
		Order:      len(existing),
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncStatusPending,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save todo: %w", err)
	}
	s.trigger.Kick()
	return t, nil
}

func (s *todoService) Toggle(ctx context.Context, id string) (*models.Todo, error) {
	t, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	t.UpdatedAt = timex.NowMillis()
	t.SyncStatus = models.SyncStatusPending
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to toggle todo: %w", err)
	}
	s.trigger.Kick()
	return t, nil
}

func (s *todoService) UpdateContent(ctx context.Context, id, content string) (*models.Todo, error) {
	if err := s.validate.Var(content, "required,max=1024"); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	t, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Content = content
	t.UpdatedAt = timex.NowMillis()
	t.SyncStatus = models.SyncStatusPending
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	s.trigger.Kick()
	return t, nil
}

func (s *todoService) Move(ctx context.Context, id string, position int) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}

	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	if position < 0 {
		position = 0
	}
	if position >= len(list) {
		position = len(list) - 1
	}

	reordered := make([]models.Todo, 0, len(list))
	var moved *models.Todo
	for i := range list {
		if list[i].ID == id {
			moved = &list[i]
		} else {
			reordered = append(reordered, list[i])
		}
	}
	if moved == nil {
		return common.ErrorNotFound
	}
	reordered = append(reordered[:position], append([]models.Todo{*moved}, reordered[position:]...)...)

	now := timex.NowMillis()
	for i := range reordered {
		if reordered[i].Order == i {
			continue
		}
		if err := s.repo.SetOrder(ctx, reordered[i].ID, i, now); err != nil {
			return fmt.Errorf("failed to reorder todos: %w", err)
		}
	}
	s.trigger.Kick()
	return nil
}

func (s *todoService) Delete(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	if err := s.repo.MarkDeleted(ctx, id, timex.NowMillis()); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	s.trigger.Kick()
	return nil
}

func (s *todoService) List(ctx context.Context) ([]models.Todo, error) {
	return s.repo.ListByOwner(ctx, s.auth.EffectiveOwnerID(ctx))
}

func (s *todoService) owned(ctx context.Context, id string) (*models.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to load todo: %w", err)
	}
	if t.OwnerID != s.auth.EffectiveOwnerID(ctx) {
		return nil, common.ErrorNotOwner
	}
	return t, nil
}
