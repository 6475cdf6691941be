package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPaymentDeclined is returned by providers when the charge was processed
// and rejected, as opposed to failing to reach the provider at all.
var ErrPaymentDeclined = errors.New("payment declined")

// ChargeRequest describes one charge attempt.
type ChargeRequest struct {
	UserID      string
	AmountCents int64
	Description string
	Method      string
}

// ChargeResult carries the provider's reference for a successful charge.
type ChargeResult struct {
	Ref string
}

// PaymentProvider is the billing black box. The service only depends on its
// error split: ErrPaymentDeclined versus everything else.
type PaymentProvider interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// StubPaymentProvider approves everything except a sentinel test method.
type StubPaymentProvider struct {
	logger *zap.Logger
}

// NewStubPaymentProvider builds the stub.
func NewStubPaymentProvider(logger *zap.Logger) *StubPaymentProvider {
	return &StubPaymentProvider{logger: logger}
}

// Charge approves the request unless the method asks for a decline.
func (p *StubPaymentProvider) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Method == "test_decline" {
		return nil, ErrPaymentDeclined
	}
	ref := "stub-" + uuid.NewString()
	if p.logger != nil {
		p.logger.Debug("stub charge approved",
			zap.String("user_id", req.UserID),
			zap.Int64("amount_cents", req.AmountCents),
			zap.String("ref", ref))
	}
	return &ChargeResult{Ref: ref}, nil
}
