package payment

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// sandboxGateway accepts every well-formed refund without contacting a provider.
// Requests with a known idempotency key replay the original receipt.
type sandboxGateway struct {
	mu       sync.Mutex
	receipts map[string]*Receipt
	logger   zerolog.Logger
}

// NewSandboxGateway creates an in-memory gateway for local development.
func NewSandboxGateway(logger zerolog.Logger) Gateway {
	return &sandboxGateway{
		receipts: make(map[string]*Receipt),
		logger:   logger.With().Str("component", "sandbox-gateway").Logger(),
	}
}

// Refund records the refund and returns a receipt.
func (g *sandboxGateway) Refund(_ context.Context, req RefundRequest) (*Receipt, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.receipts[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return r, nil
	}

	r := &Receipt{ProviderRefundID: "sbx_" + req.IdempotencyKey, Status: "succeeded"}
	if req.IdempotencyKey != "" {
		g.receipts[req.IdempotencyKey] = r
	}

	g.logger.Info().
		Str("transaction_id", req.TransactionID).
		Int64("amount", int64(req.Amount)).
		Msg("sandbox refund issued")

	return r, nil
}
