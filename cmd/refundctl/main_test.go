package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/refund"
	"orderdesk/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	order    *model.Order
	requests []map[string]interface{}
}

func newFakeAPI() *fakeAPI {
	id := uuid.New()
	fee := money.MajorAmount(10)
	return &fakeAPI{order: &model.Order{
		ID:             id,
		Amount:         10000,
		DeliveryFee:    &fee,
		Currency:       "USD",
		Status:         model.StatusOpen,
		DeliveryMethod: model.DeliveryMethodDelivery,
		PaymentMethod:  model.PaymentMethod{Type: model.PaymentTypeCard, TransactionID: "pi_cli"},
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, Name: "Mug", Price: 25, Quantity: 2, IsReady: true},
			{ID: uuid.New(), OrderID: id, Name: "Kettle", Price: 50, Quantity: 1, IsReady: true},
		},
		Refunds: []model.Refund{},
	}}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/api/orders/" + f.order.ID.String()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == base:
		_ = json.NewEncoder(w).Encode(service.NewOrderView(f.order))
	case r.Method == http.MethodPost && r.URL.Path == base+"/refunds":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["actor"] = r.Header.Get("X-Actor-ID")
		f.requests = append(f.requests, body)

		rec := model.Refund{ID: "01HZREFUND", OrderID: f.order.ID, Amount: money.MinorAmount(body["amount"].(float64))}
		for _, raw := range body["itemIds"].([]interface{}) {
			id := uuid.MustParse(raw.(string))
			rec.ItemIDs = append(rec.ItemIDs, id)
			if item, ok := f.order.Item(id); ok {
				item.IsRefunded = true
			}
		}
		f.order.Refunds = append(f.order.Refunds, rec)
		f.order.Status = model.StatusPartiallyRefunded
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(refund.Result{
			Success: true,
			Message: "Refunded " + money.Format(rec.Amount, f.order.Currency),
			Refund:  &rec,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "ORDER_NOT_FOUND", Message: "order not found"})
	}
}

func runCLI(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	base := []string{"-server", srv.URL, "-api-key", "key", "-actor-id", "op-1", "-actor-email", "op@example.com"}
	err := run(context.Background(), append(base, args...), strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestRefund_PartialWithConfirmation(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	kettle := api.order.Items[1].ID
	out, err := runCLI(t, srv, "y\n", "refund", api.order.ID.String(), "-mode", "partial", "-items", kettle.String(), "-restock")

	require.NoError(t, err)
	assert.Contains(t, out, "Refund 50.00 USD on order")
	assert.Contains(t, out, "Refunded 50.00 USD")
	assert.Contains(t, out, "Order status: partially-refunded")

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, float64(5000), req["amount"])
	assert.Equal(t, []interface{}{kettle.String()}, req["itemIds"])
	assert.Equal(t, true, req["returnToStock"])
	assert.Equal(t, "pi_cli", req["transactionId"])
	assert.Equal(t, "op-1", req["actor"])
}

func TestRefund_RepeatedItemIsRefundedOnce(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	kettle := api.order.Items[1].ID.String()
	_, err := runCLI(t, srv, "", "refund", api.order.ID.String(), "-mode", "partial", "-items", kettle+","+kettle, "-yes")

	require.NoError(t, err)
	require.Len(t, api.requests, 1)
	assert.Equal(t, float64(5000), api.requests[0]["amount"])
	assert.Equal(t, []interface{}{kettle}, api.requests[0]["itemIds"])
}

func TestRefund_EntireOrderSkipsPrompt(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := runCLI(t, srv, "", "refund", api.order.ID.String(), "-mode", "entire-order", "-yes")

	require.NoError(t, err)
	assert.NotContains(t, out, "[y/N]")
	require.Len(t, api.requests, 1)
	assert.Equal(t, float64(11000), api.requests[0]["amount"])
	assert.Len(t, api.requests[0]["itemIds"], 2)
	assert.Equal(t, true, api.requests[0]["includeDeliveryFee"])
}

func TestRefund_DeclinedDoesNotSubmit(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := runCLI(t, srv, "n\n", "refund", api.order.ID.String(), "-mode", "entire-order")

	require.ErrorIs(t, err, errAborted)
	assert.Empty(t, api.requests)
}

func TestRefund_Rejected(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	tests := []struct {
		name    string
		args    []string
		wantErr error
		errMsg  string
	}{
		{
			name:    "Partial without items",
			args:    []string{"-mode", "partial", "-yes"},
			wantErr: model.ErrEmptySelection,
		},
		{
			name:   "Remaining before any refund",
			args:   []string{"-mode", "remaining", "-yes"},
			errMsg: "not available",
		},
		{
			name:   "Unknown mode",
			args:   []string{"-mode", "half", "-yes"},
			errMsg: "unknown refund mode",
		},
		{
			name:   "Malformed item ID",
			args:   []string{"-mode", "partial", "-items", "nope", "-yes"},
			errMsg: "invalid item ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, srv, "", append([]string{"refund", api.order.ID.String()}, tt.args...)...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
	assert.Empty(t, api.requests)
}

func TestRefund_RequiresActor(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(),
		[]string{"-server", srv.URL, "refund", api.order.ID.String(), "-mode", "entire-order", "-yes"},
		strings.NewReader(""), &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "-actor-id")
}

func TestShow(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	out, err := runCLI(t, srv, "", "show", api.order.ID.String())

	require.NoError(t, err)
	assert.Contains(t, out, "Kettle")
	assert.Contains(t, out, "110.00 USD")
	assert.Contains(t, out, "Refund modes: entire-order, partial")
}

func TestShow_NotFound(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := runCLI(t, srv, "", "show", uuid.New().String())

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "No command", args: nil},
		{name: "Missing order ID", args: []string{"show"}},
		{name: "Unknown command", args: []string{"explode", uuid.NewString()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, strings.NewReader(""), &stdout, &stderr)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestParseItemIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := parseItemIDs(" " + a.String() + ",," + b.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = parseItemIDs(a.String() + "," + b.String() + "," + strings.ToUpper(a.String()))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids, "a repeated ID is toggled once")

	ids, err = parseItemIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseItemIDs(a.String() + ",x")
	assert.Error(t, err)
}
