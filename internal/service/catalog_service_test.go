package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/repository"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

func (f *fakeMediaRepo) Create(ctx context.Context, item *domain.MediaItem) error {
	item.ID = fmt.Sprintf("media-%d", len(f.items)+1)
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeMediaRepo) Update(ctx context.Context, item *domain.MediaItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMediaRepo) SetPublished(ctx context.Context, id string, published bool, at *time.Time) error {
	item, ok := f.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Published = published
	item.PublishedAt = at
	return nil
}

func (f *fakeMediaRepo) matching(filter repository.MediaFilter) []domain.MediaItem {
	matched := make([]domain.MediaItem, 0, len(f.items))
	for _, item := range f.items {
		if filter.PublishedOnly && !item.Published {
			continue
		}
		if filter.Kind != nil && item.Kind != *filter.Kind {
			continue
		}
		matched = append(matched, *item)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func (f *fakeMediaRepo) List(ctx context.Context, filter repository.MediaFilter) ([]domain.MediaItem, error) {
	matched := f.matching(filter)
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeMediaRepo) Count(ctx context.Context, filter repository.MediaFilter) (int64, error) {
	return int64(len(f.matching(filter))), nil
}

func catalogFixtures() (*CatalogService, *fakeMediaRepo) {
	media := &fakeMediaRepo{items: map[string]*domain.MediaItem{}}
	return NewCatalogService(media, nil), media
}

func TestCatalogCreate(t *testing.T) {
	svc, media := catalogFixtures()

	item, err := svc.Create(context.Background(), "author-1", MediaInput{
		Kind:  domain.MediaKindMovie,
		Title: "The Long Voyage Home!",
	})
	require.NoError(t, err)
	assert.Equal(t, "the-long-voyage-home", item.Slug)
	assert.Equal(t, domain.TierFree, item.Tier)
	assert.False(t, item.Published)
	require.NotNil(t, item.AuthorID)
	assert.Equal(t, "author-1", *item.AuthorID)
	assert.Contains(t, media.items, item.ID)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Mixed CASE & symbols!  ", "mixed-case-symbols"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in))
	}
}

func TestCatalogGetDraftVisibility(t *testing.T) {
	svc, media := catalogFixtures()
	media.items["media-1"] = &domain.MediaItem{ID: "media-1", Title: "Draft"}

	_, err := svc.Get(context.Background(), "media-1", false)
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, util.CodeNotFound, appErr.Code)

	item, err := svc.Get(context.Background(), "media-1", true)
	require.NoError(t, err)
	assert.Equal(t, "media-1", item.ID)
}

func TestCatalogUpdateNotFound(t *testing.T) {
	svc, _ := catalogFixtures()

	_, err := svc.Update(context.Background(), "media-gone", MediaInput{Title: "New"})
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, util.CodeNotFound, appErr.Code)
}

func TestCatalogPublish(t *testing.T) {
	svc, media := catalogFixtures()
	media.items["media-1"] = &domain.MediaItem{ID: "media-1", Title: "Ready"}

	item, err := svc.Publish(context.Background(), "media-1")
	require.NoError(t, err)
	assert.True(t, item.Published)
	require.NotNil(t, item.PublishedAt)

	again, err := svc.Publish(context.Background(), "media-1")
	require.NoError(t, err)
	assert.True(t, again.Published)
}

func TestCatalogListCountsFullFilteredSet(t *testing.T) {
	svc, media := catalogFixtures()
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("media-%02d", i)
		media.items[id] = &domain.MediaItem{ID: id, Kind: domain.MediaKindMusic, Published: true}
	}
	media.items["draft"] = &domain.MediaItem{ID: "draft", Kind: domain.MediaKindMusic}

	items, total, err := svc.List(context.Background(), repository.MediaFilter{
		PublishedOnly: true,
		Limit:         10,
		Offset:        10,
	})
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, int64(25), total)
}

func TestCatalogStream(t *testing.T) {
	svc, media := catalogFixtures()
	media.items["media-pro"] = &domain.MediaItem{
		ID: "media-pro", Tier: domain.TierPro, Published: true, StreamURL: "https://cdn.example.com/pro.m3u8",
	}
	media.items["media-free"] = &domain.MediaItem{
		ID: "media-free", Tier: domain.TierFree, Published: true,
	}

	t.Run("insufficient tier carries upgrade hint", func(t *testing.T) {
		viewer := &domain.User{ID: "user-1", SubscriptionStatus: domain.TierBasic}

		_, err := svc.Stream(context.Background(), viewer, "media-pro")
		var appErr *util.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, util.CodeSubscriptionRequired, appErr.Code)
		assert.Equal(t, "pro", appErr.Data["required"])
		assert.Equal(t, true, appErr.Data["upgrade"])
	})

	t.Run("sufficient tier streams", func(t *testing.T) {
		viewer := &domain.User{ID: "user-1", SubscriptionStatus: domain.TierPro}

		item, err := svc.Stream(context.Background(), viewer, "media-pro")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/pro.m3u8", item.StreamURL)
	})

	t.Run("free item streams for free viewer", func(t *testing.T) {
		viewer := &domain.User{ID: "user-1", SubscriptionStatus: domain.TierFree}

		_, err := svc.Stream(context.Background(), viewer, "media-free")
		assert.NoError(t, err)
	})

	t.Run("draft is not streamable", func(t *testing.T) {
		media.items["media-draft2"] = &domain.MediaItem{ID: "media-draft2", Tier: domain.TierFree}
		viewer := &domain.User{ID: "user-1", SubscriptionStatus: domain.TierPro}

		_, err := svc.Stream(context.Background(), viewer, "media-draft2")
		var appErr *util.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, util.CodeNotFound, appErr.Code)
	})
}
