package procedures

import (
	"context"
	"net/http"
	"time"

	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/validation"
)

// OrderItemResponse is one purchased item snapshot.
type OrderItemResponse struct {
	MediaID    string `json:"media_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
}

// OrderResponse is the public order shape.
type OrderResponse struct {
	ID         string              `json:"id"`
	Status     string              `json:"status"`
	TotalCents int64               `json:"total_cents"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

func orderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			MediaID:    item.MediaID,
			Title:      item.Title,
			PriceCents: item.PriceCents,
		})
	}
	return OrderResponse{
		ID:         order.ID,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}

// CheckoutInput payload for billing.checkout.
type CheckoutInput struct {
	MediaIDs []string `json:"media_ids"`
	Method   string   `json:"method"`
}

func (in *CheckoutInput) Validate() error {
	issues := validation.New()
	if len(in.MediaIDs) == 0 {
		issues.Add("media_ids", "required")
	}
	for _, id := range in.MediaIDs {
		if id == "" {
			issues.Add("media_ids", "must not contain empty ids")
			break
		}
	}
	return issues.Err()
}

// SubscribeInput payload for billing.subscribe.
type SubscribeInput struct {
	Tier   string `json:"tier"`
	Method string `json:"method"`
}

func (in *SubscribeInput) Validate() error {
	issues := validation.New()
	issues.Require("tier", in.Tier)
	issues.OneOf("tier", in.Tier, string(domain.TierBasic), string(domain.TierPro))
	return issues.Err()
}

// OrdersInput payload for billing.orders.
type OrdersInput struct {
	procedure.PageParams
}

func registerBilling(router *procedure.Router, deps Dependencies) {
	router.Register(&procedure.Procedure{
		Name:          "billing.checkout",
		Guards:        []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:         func() any { return &CheckoutInput{} },
		SuccessStatus: http.StatusCreated,
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*CheckoutInput)
			order, err := deps.Billing.Checkout(ctx, call.User().ID, in.MediaIDs, in.Method)
			if err != nil {
				return nil, err
			}
			return orderResponse(order), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "billing.subscribe",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:  func() any { return &SubscribeInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*SubscribeInput)
			user, err := deps.Billing.Subscribe(ctx, call.User().ID, domain.SubscriptionTier(in.Tier), in.Method)
			if err != nil {
				return nil, err
			}
			return userResponse(user), nil
		},
	})

	router.Register(&procedure.Procedure{
		Name:   "billing.orders",
		Guards: []procedure.Guard{procedure.WithAuth(deps.Resolver)},
		Input:  func() any { return &OrdersInput{} },
		Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) {
			in := input.(*OrdersInput)
			params := in.PageParams.Normalize()

			orders, total, err := deps.Billing.Orders(ctx, call.User().ID, params.Limit, params.Offset())
			if err != nil {
				return nil, err
			}
			responses := make([]OrderResponse, 0, len(orders))
			for i := range orders {
				responses = append(responses, orderResponse(&orders[i]))
			}
			return procedure.NewPage(responses, params.Page, params.Limit, total), nil
		},
	})
}
