package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// stripeGateway implements Gateway using the Stripe refunds API.
type stripeGateway struct {
	refunds stripeRefundAPI
	logger  zerolog.Logger
}

// NewStripeGateway creates a Stripe-backed gateway.
func NewStripeGateway(apiKey string, logger zerolog.Logger) (Gateway, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	return newStripeGateway(sc.Refunds, logger), nil
}

func newStripeGateway(refunds stripeRefundAPI, logger zerolog.Logger) *stripeGateway {
	return &stripeGateway{
		refunds: refunds,
		logger:  logger.With().Str("component", "stripe-gateway").Logger(),
	}
}

// Refund refunds part of a Payment Intent or Charge. The idempotency key makes
// a retried request return the original refund instead of issuing another.
func (g *stripeGateway) Refund(ctx context.Context, req RefundRequest) (*Receipt, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		Amount: stripe.Int64(int64(req.Amount)),
	}
	params.Context = ctx
	if strings.HasPrefix(req.TransactionID, "ch_") {
		params.Charge = stripe.String(req.TransactionID)
	} else {
		params.PaymentIntent = stripe.String(req.TransactionID)
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	rf, err := g.refunds.New(params)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("transaction_id", req.TransactionID).
			Str("idempotency_key", req.IdempotencyKey).
			Msg("stripe refund request failed")
		return nil, fmt.Errorf("%w: stripe: %v", ErrRefundFailed, err)
	}

	switch rf.Status {
	case stripe.RefundStatusFailed, stripe.RefundStatusCanceled:
		g.logger.Warn().
			Str("refund_id", rf.ID).
			Str("status", string(rf.Status)).
			Msg("stripe refund not issued")
		return nil, fmt.Errorf("%w: stripe refund %s is %s", ErrRefundFailed, rf.ID, rf.Status)
	}

	g.logger.Info().
		Str("refund_id", rf.ID).
		Str("transaction_id", req.TransactionID).
		Int64("amount", int64(req.Amount)).
		Str("status", string(rf.Status)).
		Msg("stripe refund issued")

	return &Receipt{ProviderRefundID: rf.ID, Status: string(rf.Status)}, nil
}

func checkRequest(req RefundRequest) error {
	if strings.TrimSpace(req.TransactionID) == "" {
		return fmt.Errorf("%w: order has no captured payment to refund", ErrRefundFailed)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: refund amount must be positive", ErrRefundFailed)
	}
	return nil
}
