package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/bookmarks"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/categories"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

// AddCategoryInput carries the user-supplied fields of a new category.
type AddCategoryInput struct {
	Name string `validate:"required,max=128"`
	Icon string `validate:"max=64"`
}

// CategoryService exposes category operations scoped to the effective
// owner.
type CategoryService interface {
	Add(ctx context.Context, in AddCategoryInput) (*models.Category, error)
	Rename(ctx context.Context, id, name string) (*models.Category, error)

	// Move places the category at position and shifts its neighbors.
	Move(ctx context.Context, id string, position int) error

	// Delete tombstones the category and detaches every bookmark filed
	// under it, so no local record ever references a deleted category.
	Delete(ctx context.Context, id string) error

	// List returns live categories in sidebar order. Positions are
	// renumbered to a dense 0..n-1 sequence when a read finds gaps left by
	// deletions or concurrent edits.
	List(ctx context.Context) ([]models.Category, error)
}

type categoryService struct {
	auth      auth.Service
	repo      categories.Repository
	bookmarks bookmarks.Repository
	trigger   *SyncTrigger
	validate  *validator.Validate
}

func NewCategoryService(
	authSvc auth.Service,
	repo categories.Repository,
	bookmarkRepo bookmarks.Repository,
	trigger *SyncTrigger,
) CategoryService {
	return &categoryService{
		auth:      authSvc,
		repo:      repo,
		bookmarks: bookmarkRepo,
		trigger:   trigger,
		validate:  validator.New(),
	}
}

func (s *categoryService) Add(ctx context.Context, in AddCategoryInput) (*models.Category, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	ownerID := s.auth.EffectiveOwnerID(ctx)
	existing, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	now := timex.NowMillis()
	c := &models.Category{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Name:       in.Name,
		Icon:       in.Icon,
		Order:      len(existing),
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncStatusPending,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	s.trigger.Kick()
	return c, nil
}

func (s *categoryService) Rename(ctx context.Context, id, name string) (*models.Category, error) {
	if err := s.validate.Var(name, "required,max=128"); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	c, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.UpdatedAt = timex.NowMillis()
	c.SyncStatus = models.SyncStatusPending
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to rename category: %w", err)
	}
	s.trigger.Kick()
	return c, nil
}

func (s *categoryService) Move(ctx context.Context, id string, position int) error {
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

	// Rebuild the sequence with the moved category at its new slot.
	reordered := make([]models.Category, 0, len(list))
	var moved *models.Category
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
	reordered = append(reordered[:position], append([]models.Category{*moved}, reordered[position:]...)...)

	now := timex.NowMillis()
	for i := range reordered {
		if reordered[i].Order == i {
			continue
		}
		if err := s.repo.SetOrder(ctx, reordered[i].ID, i, now); err != nil {
			return fmt.Errorf("failed to reorder categories: %w", err)
		}
	}
	s.trigger.Kick()
	return nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	c, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	now := timex.NowMillis()
	if err := s.repo.MarkDeleted(ctx, id, now); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if _, err := s.bookmarks.ClearCategoryRefs(ctx, c.OwnerID, id, now); err != nil {
		return fmt.Errorf("failed to detach bookmarks: %w", err)
	}
	s.trigger.Kick()
	return nil
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	ownerID := s.auth.EffectiveOwnerID(ctx)
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	// Self-heal sparse positions left by deletions.
	dense := true
	for i := range list {
		if list[i].Order != i {
			dense = false
			break
		}
	}
	if !dense {
		now := timex.NowMillis()
		for i := range list {
			if list[i].Order == i {
				continue
			}
			if err := s.repo.SetOrder(ctx, list[i].ID, i, now); err != nil {
				return nil, fmt.Errorf("failed to renumber categories: %w", err)
			}
			list[i].Order = i
			list[i].UpdatedAt = now
			list[i].SyncStatus = models.SyncStatusPending
		}
		s.trigger.Kick()
	}
	return list, nil
}

func (s *categoryService) owned(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if c.OwnerID != s.auth.EffectiveOwnerID(ctx) {
		return nil, common.ErrorNotOwner
	}
	return c, nil
}
