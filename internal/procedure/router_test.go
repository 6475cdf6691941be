package procedure

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/media-service/internal/validation"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

type echoInput struct {
	Title string `json:"title"`
}

func (in *echoInput) Validate() error {
	issues := validation.New()
	issues.Require("title", in.Title)
	return issues.Err()
}

func TestRouterRegister(t *testing.T) {
	noop := func(ctx context.Context, call Call, input any) (any, error) { return nil, nil }

	t.Run("duplicate name panics", func(t *testing.T) {
		router := NewRouter()
		router.Register(&Procedure{Name: "test.op", Handler: noop})
		assert.Panics(t, func() {
			router.Register(&Procedure{Name: "test.op", Handler: noop})
		})
	})

	t.Run("unnamed procedure panics", func(t *testing.T) {
		router := NewRouter()
		assert.Panics(t, func() {
			router.Register(&Procedure{Handler: noop})
		})
	})

	t.Run("missing handler panics", func(t *testing.T) {
		router := NewRouter()
		assert.Panics(t, func() {
			router.Register(&Procedure{Name: "test.op"})
		})
	})

	t.Run("register after seal panics", func(t *testing.T) {
		router := NewRouter()
		router.Seal()
		assert.Panics(t, func() {
			router.Register(&Procedure{Name: "test.op", Handler: noop})
		})
	})
}

func TestRouterNamesSorted(t *testing.T) {
	noop := func(ctx context.Context, call Call, input any) (any, error) { return nil, nil }

	router := NewRouter()
	router.Register(&Procedure{Name: "catalog.list", Handler: noop})
	router.Register(&Procedure{Name: "account.login", Handler: noop})
	router.Register(&Procedure{Name: "billing.checkout", Handler: noop})
	router.Seal()

	assert.Equal(t, []string{"account.login", "billing.checkout", "catalog.list"}, router.Names())
}

func TestDispatchUnknownProcedure(t *testing.T) {
	router := NewRouter()
	router.Seal()

	_, err := router.Dispatch(context.Background(), Request{Name: "no.such"})
	requireAppError(t, err, util.CodeNotFound, http.StatusNotFound)
}

func TestDispatchGuardFailureSkipsHandler(t *testing.T) {
	handlerRan := false
	deny := func(ctx context.Context, call Call) (Call, error) {
		return call, util.NewForbidden("denied")
	}

	router := NewRouter()
	router.Register(&Procedure{
		Name:   "test.op",
		Guards: []Guard{deny},
		Handler: func(ctx context.Context, call Call, input any) (any, error) {
			handlerRan = true
			return nil, nil
		},
	})
	router.Seal()

	_, err := router.Dispatch(context.Background(), Request{Name: "test.op"})
	requireAppError(t, err, util.CodeForbidden, http.StatusForbidden)
	assert.False(t, handlerRan)
}

func TestDispatchGuardsRunInOrder(t *testing.T) {
	var order []string
	track := func(name string) Guard {
		return func(ctx context.Context, call Call) (Call, error) {
			order = append(order, name)
			return call, nil
		}
	}

	router := NewRouter()
	router.Register(&Procedure{
		Name:   "test.op",
		Guards: []Guard{track("first"), track("second")},
		Handler: func(ctx context.Context, call Call, input any) (any, error) {
			order = append(order, "handler")
			return nil, nil
		},
	})
	router.Seal()

	_, err := router.Dispatch(context.Background(), Request{Name: "test.op"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestDispatchValidationFailure(t *testing.T) {
	handlerRan := false

	router := NewRouter()
	router.Register(&Procedure{
		Name:  "test.op",
		Input: func() any { return &echoInput{} },
		Handler: func(ctx context.Context, call Call, input any) (any, error) {
			handlerRan = true
			return nil, nil
		},
	})
	router.Seal()

	t.Run("missing field", func(t *testing.T) {
		_, err := router.Dispatch(context.Background(), Request{Name: "test.op", Payload: json.RawMessage(`{}`)})

		var issues *validation.Issues
		require.ErrorAs(t, err, &issues)
		list := issues.List()
		require.Len(t, list, 1)
		assert.Equal(t, "title", list[0].Field)
		assert.False(t, handlerRan)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := router.Dispatch(context.Background(), Request{Name: "test.op", Payload: json.RawMessage(`{"title"`)})
		requireAppError(t, err, util.CodeValidationError, http.StatusUnprocessableEntity)
		assert.False(t, handlerRan)
	})
}

func TestDispatchEnvelope(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		router := NewRouter()
		router.Register(&Procedure{
			Name:  "test.op",
			Input: func() any { return &echoInput{} },
			Handler: func(ctx context.Context, call Call, input any) (any, error) {
				return map[string]string{"title": input.(*echoInput).Title}, nil
			},
		})
		router.Seal()

		envelope, err := router.Dispatch(context.Background(), Request{Name: "test.op", Payload: json.RawMessage(`{"title":"hello"}`)})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, envelope.Status)
		assert.Equal(t, "OK", envelope.Message)
		assert.Equal(t, map[string]string{"title": "hello"}, envelope.Data)
	})

	t.Run("custom status and message", func(t *testing.T) {
		router := NewRouter()
		router.Register(&Procedure{
			Name:           "test.create",
			SuccessStatus:  http.StatusCreated,
			SuccessMessage: "created",
			Handler: func(ctx context.Context, call Call, input any) (any, error) {
				return nil, nil
			},
		})
		router.Seal()

		envelope, err := router.Dispatch(context.Background(), Request{Name: "test.create"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, envelope.Status)
		assert.Equal(t, "created", envelope.Message)
	})
}

func TestDispatchHandlerErrorPassesThrough(t *testing.T) {
	router := NewRouter()
	router.Register(&Procedure{
		Name: "test.op",
		Handler: func(ctx context.Context, call Call, input any) (any, error) {
			return nil, util.NewNotFound("media item")
		},
	})
	router.Seal()

	_, err := router.Dispatch(context.Background(), Request{Name: "test.op"})
	requireAppError(t, err, util.CodeNotFound, http.StatusNotFound)
}

func TestPageParamsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageParams
		want PageParams
	}{
		{"defaults", PageParams{}, PageParams{Page: 1, Limit: 20}},
		{"negative page", PageParams{Page: -3, Limit: 10}, PageParams{Page: 1, Limit: 10}},
		{"limit clamped", PageParams{Page: 2, Limit: 500}, PageParams{Page: 2, Limit: 100}},
		{"kept as is", PageParams{Page: 4, Limit: 25}, PageParams{Page: 4, Limit: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}

	assert.Equal(t, 10, PageParams{Page: 2, Limit: 10}.Offset())
}

func TestNewPage(t *testing.T) {
	items := []string{"a", "b"}
	page := NewPage(items, 2, 10, 25)

	assert.Equal(t, items, page.Items)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 25}, page.Pagination)
}
