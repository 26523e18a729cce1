// Package client calls the orderdesk HTTP API. Client satisfies refund.Loader
// and refund.Submitter, so a refund.Controller can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/refund"
	"orderdesk/internal/service"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// knownErrors are returned as their sentinel values so callers can compare them.
var knownErrors = []*model.DomainError{
	model.ErrOrderNotFound,
	model.ErrItemNotFound,
	model.ErrItemRefunded,
	model.ErrStaleOrder,
	model.ErrRefundInFlight,
	model.ErrIllegalTransition,
	model.ErrItemsNotReady,
	model.ErrWrongTrack,
	model.ErrNoItemsRemaining,
	model.ErrTransitionRejected,
	model.ErrManualReconciliation,
	model.ErrAlreadyFullyRefunded,
	model.ErrNonPositiveAmount,
	model.ErrExceedsAvailable,
	model.ErrInvalidRefundItem,
	model.ErrFeeAlreadyRefunded,
}

// Client issues order API calls on behalf of one operator.
type Client struct {
	baseURL string
	apiKey  string
	actor   *model.Actor
	http    *http.Client
}

// New constructs an API client.
func New(baseURL, apiKey string, actor *model.Actor) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		actor:   actor,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type refundBody struct {
	TransactionID      string            `json:"transactionId,omitempty"`
	Amount             money.MinorAmount `json:"amount"`
	ItemIDs            []uuid.UUID       `json:"itemIds"`
	ReturnToStock      bool              `json:"returnToStock"`
	IncludeDeliveryFee bool              `json:"includeDeliveryFee"`
}

// GetOrderView fetches the order with its derived amounts and refund options.
func (c *Client) GetOrderView(ctx context.Context, id uuid.UUID) (*service.OrderView, error) {
	var view service.OrderView
	if err := c.do(ctx, http.MethodGet, nil, &view, "api", "orders", id.String()); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetOrder fetches the order snapshot, bypassing the server's order cache.
func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var view service.OrderView
	noCache := http.Header{"Cache-Control": []string{"no-cache"}}
	if err := c.send(ctx, http.MethodGet, noCache, nil, &view, "api", "orders", id.String()); err != nil {
		return nil, err
	}
	return view.Order, nil
}

// Refund submits a refund. The server takes the actor from the request headers.
func (c *Client) Refund(ctx context.Context, req refund.Request) (*refund.Result, error) {
	body := refundBody{
		TransactionID:      req.TransactionID,
		Amount:             req.Amount,
		ItemIDs:            req.ItemIDs,
		ReturnToStock:      req.ReturnToStock,
		IncludeDeliveryFee: req.IncludeDeliveryFee,
	}
	var res refund.Result
	if err := c.do(ctx, http.MethodPost, body, &res, "api", "orders", req.OrderID.String(), "refunds"); err != nil {
		return nil, err
	}
	return &res, nil
}

// QuoteRefund prices a selection without changing the order.
func (c *Client) QuoteRefund(ctx context.Context, id uuid.UUID, sel refund.Selection) (*service.RefundQuote, error) {
	var quote service.RefundQuote
	if err := c.do(ctx, http.MethodPost, sel, &quote, "api", "orders", id.String(), "refunds", "quote"); err != nil {
		return nil, err
	}
	return &quote, nil
}

// TransitionStatus moves the order to target.
func (c *Client) TransitionStatus(ctx context.Context, id uuid.UUID, target model.Status) (*service.OrderView, error) {
	var view service.OrderView
	body := map[string]string{"status": string(target)}
	if err := c.do(ctx, http.MethodPost, body, &view, "api", "orders", id.String(), "status"); err != nil {
		return nil, err
	}
	return &view, nil
}

// SetItemReady marks an item ready or not ready.
func (c *Client) SetItemReady(ctx context.Context, orderID, itemID uuid.UUID, ready bool) (*service.OrderView, error) {
	var view service.OrderView
	body := map[string]bool{"isReady": ready}
	if err := c.do(ctx, http.MethodPatch, body, &view, "api", "orders", orderID.String(), "items", itemID.String()); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) do(ctx context.Context, method string, body, out interface{}, path ...string) error {
	return c.send(ctx, method, nil, body, out, path...)
}

func (c *Client) send(ctx context.Context, method string, header http.Header, body, out interface{}, path ...string) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to build request URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if c.actor != nil {
		req.Header.Set("X-Actor-ID", c.actor.ID)
		req.Header.Set("X-Actor-Email", c.actor.Email)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body model.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	for _, known := range knownErrors {
		if known.Code == body.Error {
			return known
		}
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error %d (%s): %s", resp.StatusCode, body.Error, body.Message)
	}
	return model.NewDomainError(body.Error, body.Message)
}
