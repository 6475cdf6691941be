package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/media-service/internal/domain"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

type fakeLibraryRepo struct {
	entries []*domain.LibraryEntry
}

func (f *fakeLibraryRepo) find(userID, mediaID string) *domain.LibraryEntry {
	for _, entry := range f.entries {
		if entry.UserID == userID && entry.MediaID == mediaID {
			return entry
		}
	}
	return nil
}

func (f *fakeLibraryRepo) Add(ctx context.Context, entry *domain.LibraryEntry) error {
	if f.find(entry.UserID, entry.MediaID) != nil {
		return util.NewConflict("already in library", nil)
	}
	entry.ID = fmt.Sprintf("entry-%d", len(f.entries)+1)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLibraryRepo) Remove(ctx context.Context, userID, mediaID string) error {
	for i, entry := range f.entries {
		if entry.UserID == userID && entry.MediaID == mediaID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeLibraryRepo) SetLiked(ctx context.Context, userID, mediaID string, liked bool) error {
	entry := f.find(userID, mediaID)
	if entry == nil {
		return pgx.ErrNoRows
	}
	entry.Liked = liked
	return nil
}

func (f *fakeLibraryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.LibraryEntry, error) {
	matched := make([]domain.LibraryEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		if entry.UserID == userID {
			matched = append(matched, *entry)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeLibraryRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	for _, entry := range f.entries {
		if entry.UserID == userID {
			total++
		}
	}
	return total, nil
}

func libraryFixtures() (*LibraryService, *fakeLibraryRepo) {
	media := &fakeMediaRepo{items: map[string]*domain.MediaItem{
		"media-1":     {ID: "media-1", Published: true},
		"media-draft": {ID: "media-draft"},
	}}
	library := &fakeLibraryRepo{}
	return NewLibraryService(library, media), library
}

func TestLibraryAdd(t *testing.T) {
	svc, library := libraryFixtures()

	entry, err := svc.Add(context.Background(), "user-1", "media-1")
	require.NoError(t, err)
	assert.Equal(t, "media-1", entry.MediaID)
	assert.Len(t, library.entries, 1)

	t.Run("duplicate surfaces conflict", func(t *testing.T) {
		_, err := svc.Add(context.Background(), "user-1", "media-1")
		var appErr *util.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, util.CodeConflict, appErr.Code)
	})

	t.Run("draft is not addable", func(t *testing.T) {
		_, err := svc.Add(context.Background(), "user-1", "media-draft")
		var appErr *util.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, util.CodeNotFound, appErr.Code)
	})

	t.Run("unknown media", func(t *testing.T) {
		_, err := svc.Add(context.Background(), "user-1", "media-gone")
		var appErr *util.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, util.CodeNotFound, appErr.Code)
	})
}

func TestLibraryRemove(t *testing.T) {
	svc, _ := libraryFixtures()

	_, err := svc.Add(context.Background(), "user-1", "media-1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), "user-1", "media-1"))

	err = svc.Remove(context.Background(), "user-1", "media-1")
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, util.CodeNotFound, appErr.Code)
}

func TestLibrarySetLiked(t *testing.T) {
	svc, library := libraryFixtures()

	_, err := svc.Add(context.Background(), "user-1", "media-1")
	require.NoError(t, err)

	require.NoError(t, svc.SetLiked(context.Background(), "user-1", "media-1", true))
	assert.True(t, library.entries[0].Liked)

	err = svc.SetLiked(context.Background(), "user-1", "media-gone", true)
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, util.CodeNotFound, appErr.Code)
}

func TestLibraryList(t *testing.T) {
	svc, library := libraryFixtures()
	for i := 0; i < 3; i++ {
		library.entries = append(library.entries, &domain.LibraryEntry{UserID: "user-1", MediaID: fmt.Sprintf("m-%d", i)})
	}
	library.entries = append(library.entries, &domain.LibraryEntry{UserID: "user-2", MediaID: "m-x"})

	entries, total, err := svc.List(context.Background(), "user-1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(3), total)
}
