package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderdesk/internal/model"
	"orderdesk/internal/money"
	"orderdesk/internal/refund"
	"orderdesk/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetOrder(t *testing.T) {
	order := &model.Order{ID: uuid.New(), Amount: 4200, Currency: "USD", Status: model.StatusOpen}
	actor := &model.Actor{ID: "op-1", Email: "op@example.com"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/orders/"+order.ID.String(), r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "op-1", r.Header.Get("X-Actor-ID"))
		assert.Equal(t, "op@example.com", r.Header.Get("X-Actor-Email"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		writeJSON(w, http.StatusOK, service.NewOrderView(order))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "key", actor)
	got, err := c.GetOrder(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, money.MinorAmount(4200), got.Amount)
}

func TestClient_Refund(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/"+orderID.String()+"/refunds", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "orderId")
		assert.NotContains(t, body, "actor")
		assert.Equal(t, float64(2500), body["amount"])
		assert.Equal(t, true, body["returnToStock"])

		writeJSON(w, http.StatusCreated, refund.Result{Success: true, Message: "Refunded 25.00 USD"})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", &model.Actor{ID: "op-1"})
	res, err := c.Refund(context.Background(), refund.Request{
		OrderID:       orderID,
		Amount:        2500,
		ItemIDs:       []uuid.UUID{itemID},
		ReturnToStock: true,
		Actor:         &model.Actor{ID: "op-1"},
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Refunded 25.00 USD", res.Message)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     interface{}
		raw      string
		expected error
		contains string
	}{
		{
			name:     "Known domain error maps to its sentinel",
			status:   http.StatusConflict,
			body:     model.ErrorResponse{Error: model.ErrCodeFullyRefunded, Message: "done"},
			expected: model.ErrAlreadyFullyRefunded,
		},
		{
			name:     "Not found",
			status:   http.StatusNotFound,
			body:     model.ErrorResponse{Error: model.ErrCodeOrderNotFound, Message: "Order not found"},
			expected: model.ErrOrderNotFound,
		},
		{
			name:     "Unknown code becomes a domain error",
			status:   http.StatusBadRequest,
			body:     model.ErrorResponse{Error: model.ErrCodeInvalidJSON, Message: "invalid request body"},
			contains: "invalid request body",
		},
		{
			name:     "Payment failure",
			status:   http.StatusBadGateway,
			body:     model.ErrorResponse{Error: model.ErrCodePaymentFailed, Message: "provider down"},
			contains: "server error 502",
		},
		{
			name:     "Non JSON body",
			status:   http.StatusUnauthorized,
			raw:      "unauthorised",
			contains: "unexpected status 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.raw != "" {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.raw))
					return
				}
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "key", nil).GetOrder(context.Background(), uuid.New())

			require.Error(t, err)
			if tt.expected != nil {
				assert.Equal(t, tt.expected, err)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestClient_DrivesRefundController(t *testing.T) {
	order := &model.Order{
		ID:             uuid.New(),
		Amount:         3000,
		Currency:       "USD",
		Status:         model.StatusOpen,
		DeliveryMethod: model.DeliveryMethodPickup,
		PaymentMethod:  model.PaymentMethod{Type: model.PaymentTypeCard, TransactionID: "pi_1"},
		Items:          []model.OrderItem{{ID: uuid.New(), ProductID: "P001", Price: 30, Quantity: 1}},
		Refunds:        []model.Refund{},
	}
	var submitted map[string]interface{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders/"+order.ID.String(), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, service.NewOrderView(order))
	})
	mux.HandleFunc("/api/orders/"+order.ID.String()+"/refunds", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		writeJSON(w, http.StatusCreated, refund.Result{Success: true, Message: "Refunded 30.00 USD"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "key", &model.Actor{ID: "op-1"})
	snapshot, err := c.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)

	ctrl := refund.NewController(snapshot, c, c, nil, zerolog.Nop())
	ctrl.Dispatch(refund.SetMode{Mode: refund.ModeEntireOrder})
	ctrl.Dispatch(refund.ShowConfirm{})

	res, err := ctrl.Submit(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, float64(3000), submitted["amount"])
	assert.Equal(t, "pi_1", submitted["transactionId"])
}
