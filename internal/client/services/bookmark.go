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
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

// AddBookmarkInput carries the user-supplied fields of a new bookmark.
type AddBookmarkInput struct {
	Title      string `validate:"required,max=512"`
	URL        string `validate:"required,url"`
	Icon       string `validate:"omitempty,url"`
	CategoryID string `validate:"omitempty,uuid4"`
	Tags       []string
	Notes      string
}

// UpdateBookmarkInput carries the editable fields of a bookmark. Nil
// pointers leave the field unchanged.
type UpdateBookmarkInput struct {
	Title      *string `validate:"omitempty,max=512"`
	URL        *string `validate:"omitempty,url"`
	Icon       *string
	// CategoryID set to the empty string detaches the bookmark.
	CategoryID *string `validate:"omitempty,uuid4"`
	Tags       *[]string
	Notes      *string
}

// BookmarkService exposes bookmark operations scoped to the effective
// owner. Every mutation is written locally first and kicks the sync
// trigger; callers never wait for the network.
type BookmarkService interface {
	Add(ctx context.Context, in AddBookmarkInput) (*models.Bookmark, error)
	Update(ctx context.Context, id string, in UpdateBookmarkInput) (*models.Bookmark, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Bookmark, error)
	List(ctx context.Context, f bookmarks.Filter) ([]models.Bookmark, int, error)
}

type bookmarkService struct {
	auth     auth.Service
	repo     bookmarks.Repository
	trigger  *SyncTrigger
	validate *validator.Validate
}

func NewBookmarkService(authSvc auth.Service, repo bookmarks.Repository, trigger *SyncTrigger) BookmarkService {
	return &bookmarkService{
		auth:     authSvc,
		repo:     repo,
		trigger:  trigger,
		validate: validator.New(),
	}
}

func (s *bookmarkService) Add(ctx context.Context, in AddBookmarkInput) (*models.Bookmark, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	now := timex.NowMillis()
	b := &models.Bookmark{
		ID:         uuid.NewString(),
		OwnerID:    s.auth.EffectiveOwnerID(ctx),
		Title:      in.Title,
		URL:        in.URL,
		Icon:       in.Icon,
		CategoryID: in.CategoryID,
		Tags:       in.Tags,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncStatusPending,
	}
	if err := s.repo.Put(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save bookmark: %w", err)
	}
	s.trigger.Kick()
	return b, nil
}

func (s *bookmarkService) Update(ctx context.Context, id string, in UpdateBookmarkInput) (*models.Bookmark, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}

	b, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.URL != nil {
		b.URL = *in.URL
	}
	if in.Icon != nil {
		b.Icon = *in.Icon
	}
	if in.CategoryID != nil {
		b.CategoryID = *in.CategoryID
	}
	if in.Tags != nil {
		b.Tags = *in.Tags
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	b.UpdatedAt = timex.NowMillis()
	b.SyncStatus = models.SyncStatusPending

	if err := s.repo.Put(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bookmark: %w", err)
	}
	s.trigger.Kick()
	return b, nil
}

func (s *bookmarkService) Delete(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	if err := s.repo.MarkDeleted(ctx, id, timex.NowMillis()); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	s.trigger.Kick()
	return nil
}

func (s *bookmarkService) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	b, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Deleted {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (s *bookmarkService) List(ctx context.Context, f bookmarks.Filter) ([]models.Bookmark, int, error) {
	return s.repo.ListByOwner(ctx, s.auth.EffectiveOwnerID(ctx), f)
}

// owned loads a bookmark and checks it belongs to the effective owner.
func (s *bookmarkService) owned(ctx context.Context, id string) (*models.Bookmark, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to load bookmark: %w", err)
	}
	if b.OwnerID != s.auth.EffectiveOwnerID(ctx) {
		return nil, common.ErrorNotOwner
	}
	return b, nil
}
