package procedures

import (
	"context"
	"net/http"
	"time"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/repository"
	"github.com/spec-kit/media-service/internal/service"
	"github.com/spec-kit/media-service/internal/validation"
)

// MediaResponse is the public catalog item shape.
type MediaResponse struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Tier        string     `json:"tier"`
	PriceCents  int64      `json:"price_cents"`
	Tags        []string   `json:"tags"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func mediaResponse(item *domain.MediaItem) MediaResponse {
	return MediaResponse{
		ID:          item.ID,
		Kind:        string(item.Kind),
		Title:       item.Title,
		Slug:        item.Slug,
		Description: item.Description,
		Tier:        string(item.Tier),
		PriceCents:  item.PriceCents,
		Tags:        item.Tags,
		Published:   item.Published,
		PublishedAt: item.PublishedAt,
		CreatedAt:   item.CreatedAt,
	}
}

// StreamResponse carries the playback URL for an entitled viewer.
type StreamResponse struct {
	MediaResponse
	StreamURL string `json:"stream_url"`
}

var mediaKinds = []string{
	string(domain.MediaKindMovie),
	string(domain.MediaKindMusic),
	string(domain.MediaKindBlog),
	string(domain.MediaKindPodcast),
}

var mediaTiers = []string{
	string(domain.TierFree),
	string(domain.TierBasic),
	string(domain.TierPro),
}

// CatalogListInput payload for catalog.list.
type CatalogListInput struct {
	Kind   string `json:"kind"`
	Tag    string `json:"tag"`
	Search string `json:"search"`
	procedure.PageParams
}

func (in *CatalogListInput) Validate() error {
	issues := validation.New()
	issues.OneOf("kind", in.Kind, mediaKinds...)
	return issues.Err()
}

// CatalogGetInput payload for catalog.get and catalog.stream.
type CatalogGetInput struct {
	ID string `json:"id"`
}

func (in *CatalogGetInput) Validate() error {
	issues := validation.New()
	issues.Require("id", in.ID)
	return issues.Err()
}

// CatalogCreateInput payload for catalog.create.
type CatalogCreateInput struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Tier        string   `json:"tier"`
	PriceCents  int64    `json:"price_cents"`
	StreamURL   string   `json:"stream_url"`
	Tags        []string `json:"tags"`
}

func (in *CatalogCreateInput) Validate() error {
	issues := validation.New()
	issues.Require("kind", in.Kind)
	issues.OneOf("kind", in.Kind, mediaKinds...)
	issues.Require("title", in.Title)
	issues.MaxLen("title", in.Title, 200)
	issues.OneOf("tier", in.Tier, mediaTiers...)
	if in.PriceCents < 0 {
		issues.Add("price_cents", "must not be negative")
	}
	return issues.Err()
}

func (in *CatalogCreateInput) toMediaInput() service.MediaInput {
	return service.MediaInput{
		Kind:        domain.MediaKind(in.Kind),
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		Tier:        domain.SubscriptionTier(in.Tier),
		PriceCents:  in.PriceCents,
		StreamURL:   in.StreamURL,
		Tags:        in.Tags,
	}
}

// CatalogUpdateInput payload for catalog.update.
type CatalogUpdateInput struct {
	ID string `json:"id"`
	CatalogCreateInput
}

func (in *CatalogUpdateInput) Validate() error {
	issues := validation.New()
	issues.Require("id", in.ID)
	issues.Require("kind", in.Kind)
	issues.OneOf("kind", in.Kind, mediaKinds...)
	issues.Require("title", in.Title)
	issues.OneOf("tier", in.Tier, mediaTiers...)
	return issues.Err()
}

func registerCatalog(router *procedure.Router, deps Dependencies) {
	router.Register(&procedure.Procedure{
		Name:  "catalog.list",
		Input: func() any { return &CatalogListInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogListInput)
			params := in.PageParams.Normalize()

			filter := repository.MediaFilter{
				PublishedOnly: true,
				Limit:         params.Limit,
				Offset:        params.Offset(),
			}
			if in.Kind != "" {
				kind := domain.MediaKind(in.Kind)
				filter.Kind = &kind
			}
			if in.Tag != "" {
				filter.Tag = &in.Tag
			}
			if in.Search != "" {
				filter.SearchTerm = &in.Search
			}

			items, total, err := deps.Catalog.List(ctx, filter)
			if err != nil {
				return nil, err
			}
			responses := make([]MediaResponse, 0, len(items))
			for i := range items {
				responses = append(responses, mediaResponse(&items[i]))
			}
			return procedure.NewPage(responses, params.Page, params.Limit, total), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "catalog.get",
		Guards: []procedure.Guard{procedure.WithOptionalAuth(deps.Resolver)},
		Input:  func() any { return &CatalogGetInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogGetInput)
			includeDrafts := call.Authenticated() && call.User().Role == domain.RoleAdmin
			item, err := deps.Catalog.Get(ctx, in.ID, includeDrafts)
			if err != nil {
				return nil, err
			}
			return mediaResponse(item), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "catalog.stream",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:  func() any { return &CatalogGetInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogGetInput)
			item, err := deps.Catalog.Stream(ctx, call.User(), in.ID)
			if err != nil {
				return nil, err
			}
			return StreamResponse{MediaResponse: mediaResponse(item), StreamURL: item.StreamURL}, nil
		},
	})

	// Creation is open to admins or holders of an explicit media grant;
	// either condition alone admits the caller.
	router.Register(&procedure.Procedure{
		Name: "catalog.create",
		Guards: []procedure.Guard{
			procedure.Require(deps.Resolver, deps.Permissions, procedure.Requirement{
				Mode:       procedure.PolicyAny,
				Roles:      []domain.Role{domain.RoleAdmin},
				Permission: &procedure.PermissionRef{Resource: "media", Action: "create"},
			}),
		},
		Input:         func() any { return &CatalogCreateInput{} },
		SuccessStatus: http.StatusCreated,
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogCreateInput)
			item, err := deps.Catalog.Create(ctx, call.User().ID, in.toMediaInput())
			if err != nil {
				return nil, err
			}
			return mediaResponse(item), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name: "catalog.update",
		Guards: []procedure.Guard{
			procedure.Require(deps.Resolver, deps.Permissions, procedure.Requirement{
				Mode:       procedure.PolicyAny,
				Roles:      []domain.Role{domain.RoleAdmin},
				Permission: &procedure.PermissionRef{Resource: "media", Action: "update"},
			}),
		},
		Input: func() any { return &CatalogUpdateInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogUpdateInput)
			item, err := deps.Catalog.Update(ctx, in.ID, in.toMediaInput())
			if err != nil {
				return nil, err
			}
			return mediaResponse(item), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name: "catalog.delete",
		Guards: []procedure.Guard{
			procedure.Require(deps.Resolver, deps.Permissions, procedure.Requirement{
				Mode:       procedure.PolicyAny,
				Roles:      []domain.Role{domain.RoleAdmin},
				Permission: &procedure.PermissionRef{Resource: "media", Action: "delete"},
			}),
		},
		Input:          func() any { return &CatalogGetInput{} },
		SuccessMessage: "deleted",
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogGetInput)
			return nil, deps.Catalog.Delete(ctx, in.ID)
		},
	})

	router.Register(&procedure.Procedure{
		Name: "catalog.publish",
		Guards: []procedure.Guard{
			procedure.WithAuth(deps.Resolver),
			procedure.RequireAdmin(),
		},
		Input: func() any { return &CatalogGetInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CatalogGetInput)
			item, err := deps.Catalog.Publish(ctx, in.ID)
			if err != nil {
				return nil, err
			}
			return mediaResponse(item), nil
		},
	})
}
