package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/media-service/internal/config"
	"github.com/spec-kit/media-service/internal/domain"
	"github.com/spec-kit/media-service/internal/events"
	"github.com/spec-kit/media-service/internal/repository"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// BillingService handles checkout and subscription changes.
type BillingService struct {
	orders     repository.OrderRepository
	media      repository.MediaRepository
	users      repository.UserRepository
	provider   PaymentProvider
	dispatcher events.Dispatcher
	planPrices map[string]int64
}

// BillingDependencies encapsulates requirements for the billing service.
type BillingDependencies struct {
	OrderRepo  repository.OrderRepository
	MediaRepo  repository.MediaRepository
	UserRepo   repository.UserRepository
	Provider   PaymentProvider
	Dispatcher events.Dispatcher
}

// NewBillingService builds the service.
func NewBillingService(cfg config.BillingConfig, deps BillingDependencies) *BillingService {
	return &BillingService{
		orders:     deps.OrderRepo,
		media:      deps.MediaRepo,
		users:      deps.UserRepo,
		provider:   deps.Provider,
		dispatcher: deps.Dispatcher,
		planPrices: cfg.PlanPrices,
	}
}

// Checkout charges the caller for a set of catalog items and records the
// order. A provider decline maps to PAYMENT_FAILED; any other checkout
// failure maps to CHECKOUT_FAILED.
func (s *BillingService) Checkout(ctx context.Context, userID string, mediaIDs []string, method string) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(mediaIDs))
	var total int64
	for _, mediaID := range mediaIDs {
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
		items = append(items, domain.OrderItem{
			MediaID:    item.ID,
			Title:      item.Title,
			PriceCents: item.PriceCents,
		})
		total += item.PriceCents
	}

	result, err := s.provider.Charge(ctx, ChargeRequest{
		UserID:      userID,
		AmountCents: total,
		Description: fmt.Sprintf("checkout of %d item(s)", len(items)),
		Method:      method,
	})
	if err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			return nil, util.NewPaymentFailed("payment was declined", map[string]any{
				"amount_cents": total,
			})
		}
		return nil, util.NewCheckoutFailed(err)
	}

	order := &domain.Order{
		UserID:      userID,
		Status:      domain.OrderStatusPaid,
		TotalCents:  total,
		ProviderRef: result.Ref,
		Items:       items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, util.NewCheckoutFailed(err)
	}

	s.publish(ctx, events.EventOrderCompleted, userID, events.OrderCompletedPayload{
		OrderID:    order.ID,
		TotalCents: order.TotalCents,
		ItemCount:  len(order.Items),
	})
	return order, nil
}

// Subscribe charges for a paid tier and moves the account onto it.
func (s *BillingService) Subscribe(ctx context.Context, userID string, tier domain.SubscriptionTier, method string) (*domain.User, error) {
	price, ok := s.planPrices[string(tier)]
	if !ok {
		return nil, util.NewValidationError("unknown subscription tier", map[string]any{
			"tier": string(tier),
		})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.SubscriptionStatus == tier {
		return user, nil
	}

	if _, err := s.provider.Charge(ctx, ChargeRequest{
		UserID:      userID,
		AmountCents: price,
		Description: fmt.Sprintf("subscription: %s", tier),
		Method:      method,
	}); err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			return nil, util.NewPaymentFailed("payment was declined", map[string]any{
				"tier": string(tier),
			})
		}
		return nil, util.NewCheckoutFailed(err)
	}

	oldTier := user.SubscriptionStatus
	if err := s.users.UpdateSubscription(ctx, userID, tier); err != nil {
		return nil, util.NewCheckoutFailed(err)
	}
	user.SubscriptionStatus = tier

	s.publish(ctx, events.EventSubscriptionChanged, userID, events.SubscriptionChangedPayload{
		OldTier: oldTier,
		NewTier: tier,
	})
	return user, nil
}

// Orders returns a page of the caller's orders plus their total count.
func (s *BillingService) Orders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int64, error) {
	orders, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *BillingService) publish(ctx context.Context, eventType events.EventType, userID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
