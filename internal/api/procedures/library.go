package procedures

import (
	"context"
	"net/http"
	"time"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/validation"
)

// LibraryEntryResponse is the public library entry shape.
type LibraryEntryResponse struct {
	ID        string    `json:"id"`
	MediaID   string    `json:"media_id"`
	Liked     bool      `json:"liked"`
	CreatedAt time.Time `json:"created_at"`
}

func libraryEntryResponse(entry *domain.LibraryEntry) LibraryEntryResponse {
	return LibraryEntryResponse{
		ID:        entry.ID,
		MediaID:   entry.MediaID,
		Liked:     entry.Liked,
		CreatedAt: entry.CreatedAt,
	}
}

// LibraryItemInput payload for add/remove/like operations.
type LibraryItemInput struct {
	MediaID string `json:"media_id"`
}

func (in *LibraryItemInput) Validate() error {
	issues := validation.New()
	issues.Require("media_id", in.MediaID)
	return issues.Err()
}

// LibraryListInput payload for library.list.
type LibraryListInput struct {
	procedure.PageParams
}

func registerLibrary(router *procedure.Router, deps Dependencies) {
	router.Register(&procedure.Procedure{
		Name:          "library.add",
		Guards:        []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:         func() any { return &LibraryItemInput{} },
		SuccessStatus: http.StatusCreated,
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*LibraryItemInput)
			entry, err := deps.Library.Add(ctx, call.User().ID, in.MediaID)
			if err != nil {
				return nil, err
			}
			return libraryEntryResponse(entry), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:           "library.remove",
		Guards:         []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:          func() any { return &LibraryItemInput{} },
		SuccessMessage: "removed",
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*LibraryItemInput)
			return nil, deps.Library.Remove(ctx, call.User().ID, in.MediaID)
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "library.like",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:  func() any { return &LibraryItemInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*LibraryItemInput)
			return nil, deps.Library.SetLiked(ctx, call.User().ID, in.MediaID, true)
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "library.unlike",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:  func() any { return &LibraryItemInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*LibraryItemInput)
			return nil, deps.Library.SetLiked(ctx, call.User().ID, in.MediaID, false)
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "library.list",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:  func() any { return &LibraryListInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*LibraryListInput)
			params := in.PageParams.Normalize()

			entries, total, err := deps.Library.List(ctx, call.User().ID, params.Limit, params.Offset())
			if err != nil {
				return nil, err
			}
			responses := make([]LibraryEntryResponse, 0, len(entries))
			for i := range entries {
				responses = append(responses, libraryEntryResponse(&entries[i]))
			}
			return procedure.NewPage(responses, params.Page, params.Limit, total), nil
		},
	})

	// Full-library export is a paid perk.
	router.Register(&procedure.Procedure{
		Name: "library.export",
		Guards: []procedure.Guard{
			procedure.WithAuth(deps.Resolver),
			procedure.RequireSubscription(domain.TierPro),
		},
		Handler: func(ctx context.Context, call procedure.Call, _ any) (any, error) {
			entries, _, err := deps.Library.List(ctx, call.User().ID, 1000, 0)
			if err != nil {
				return nil, err
			}
			responses := make([]LibraryEntryResponse, 0, len(entries))
			for i := range entries {
				responses = append(responses, libraryEntryResponse(&entries[i]))
			}
			return responses, nil
		},
	})
}
