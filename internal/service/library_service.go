package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/repository"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// LibraryService manages per-user saved items and likes.
type LibraryService struct {
	library repository.LibraryRepository
	media   repository.MediaRepository
}

// NewLibraryService builds the service.
func NewLibraryService(library repository.LibraryRepository, media repository.MediaRepository) *LibraryService {
	return &LibraryService{library: library, media: media}
}

// Add saves a published catalog item to the caller's library. Adding the
// same item twice surfaces as CONFLICT through the unique constraint.
func (s *LibraryService) Add(ctx context.Context, userID, mediaID string) (*domain.LibraryEntry, error) {
	item, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("media item")
		}
		return nil, err
	}
	if !item.Published {
		return nil, util.NewNotFound("media item")
	}

	entry := &domain.LibraryEntry{UserID: userID, MediaID: mediaID}
	if err := s.library.Add(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove drops an item from the caller's library.
func (s *LibraryService) Remove(ctx context.Context, userID, mediaID string) error {
	if err := s.library.Remove(ctx, userID, mediaID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("library entry")
		}
		return err
	}
	return nil
}

// SetLiked toggles the like flag on a library entry.
func (s *LibraryService) SetLiked(ctx context.Context, userID, mediaID string, liked bool) error {
	if err := s.library.SetLiked(ctx, userID, mediaID, liked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("library entry")
		}
		return err
	}
	return nil
}

// List returns a page of the caller's library plus its total count.
func (s *LibraryService) List(ctx context.Context, userID string, limit, offset int) ([]domain.LibraryEntry, int64, error) {
	entries, err := s.library.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.library.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
