package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/events"
	"github.com/spec-kit/media-service/internal/repository"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// tierRank orders subscription tiers for stream gating.
var tierRank = map[domain.SubscriptionTier]int{
	domain.TierFree:  0,
	domain.TierBasic: 1,
	domain.TierPro:   2,
}

// CatalogService manages the media catalog.
type CatalogService struct {
	media      repository.MediaRepository
	dispatcher events.Dispatcher
}

// NewCatalogService builds the service.
func NewCatalogService(media repository.MediaRepository, dispatcher events.Dispatcher) *CatalogService {
	return &CatalogService{media: media, dispatcher: dispatcher}
}

// MediaInput captures create/update fields.
type MediaInput struct {
	Kind        domain.MediaKind
	Title       string
	Slug        string
	Description string
	Tier        domain.SubscriptionTier
	PriceCents  int64
	StreamURL   string
	Tags        []string
}

// Create inserts an unpublished catalog item. A duplicate slug surfaces as
// CONFLICT through the unique constraint.
func (s *CatalogService) Create(ctx context.Context, authorID string, input MediaInput) (*domain.MediaItem, error) {
	slug := input.Slug
	if strings.TrimSpace(slug) == "" {
		slug = Slugify(input.Title)
	}

	item := &domain.MediaItem{
		Kind:        input.Kind,
		Title:       input.Title,
		Slug:        slug,
		Description: input.Description,
		AuthorID:    &authorID,
		Tier:        input.Tier,
		PriceCents:  input.PriceCents,
		StreamURL:   input.StreamURL,
		Tags:        input.Tags,
	}
	if item.Tier == "" {
		item.Tier = domain.TierFree
	}
	if err := s.media.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update rewrites editable fields of an existing item.
func (s *CatalogService) Update(ctx context.Context, id string, input MediaInput) (*domain.MediaItem, error) {
	item, err := s.media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("media item")
		}
		return nil, err
	}

	item.Kind = input.Kind
	item.Title = input.Title
	if strings.TrimSpace(input.Slug) != "" {
		item.Slug = input.Slug
	}
	item.Description = input.Description
	if input.Tier != "" {
		item.Tier = input.Tier
	}
	item.PriceCents = input.PriceCents
	item.StreamURL = input.StreamURL
	item.Tags = input.Tags

	if err := s.media.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.media.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("media item")
		}
		return err
	}
	return nil
}

// Get loads one item. Drafts are only visible when includeDrafts is set.
func (s *CatalogService) Get(ctx context.Context, id string, includeDrafts bool) (*domain.MediaItem, error) {
	item, err := s.media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("media item")
		}
		return nil, err
	}
	if !item.Published && !includeDrafts {
		return nil, util.NewNotFound("media item")
	}
	return item, nil
}

// List returns a page of items plus the filter-scoped total.
func (s *CatalogService) List(ctx context.Context, filter repository.MediaFilter) ([]domain.MediaItem, int64, error) {
	items, err := s.media.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.media.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Publish makes an item visible and announces it.
func (s *CatalogService) Publish(ctx context.Context, id string) (*domain.MediaItem, error) {
	item, err := s.media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("media item")
		}
		return nil, err
	}
	if item.Published {
		return item, nil
	}

	now := time.Now()
	if err := s.media.SetPublished(ctx, id, true, &now); err != nil {
		return nil, err
	}
	item.Published = true
	item.PublishedAt = &now

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventMediaPublished,
			Timestamp: now,
			Payload: events.MediaPublishedPayload{
				MediaID: item.ID,
				Kind:    item.Kind,
				Title:   item.Title,
			},
		})
	}
	return item, nil
}

// Stream returns the playback URL for a published item, enforcing the
// item's minimum tier against the viewer's subscription. Failures carry the
// required tier so the client can route to the upgrade flow.
func (s *CatalogService) Stream(ctx context.Context, viewer *domain.User, id string) (*domain.MediaItem, error) {
	item, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if tierRank[viewer.SubscriptionStatus] < tierRank[item.Tier] {
		return nil, util.NewSubscriptionRequired(string(item.Tier))
	}
	return item, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a title.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
