package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderdesk/internal/model"
	"orderdesk/internal/payment"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// statusByCode maps domain error codes to HTTP statuses. Codes not listed are 422.
var statusByCode = map[string]int{
	model.ErrCodeOrderNotFound:      http.StatusNotFound,
	model.ErrCodeItemNotFound:       http.StatusNotFound,
	model.ErrCodeProductNotFound:    http.StatusNotFound,
	model.ErrCodeInvalidJSON:        http.StatusBadRequest,
	model.ErrCodeMissingField:       http.StatusBadRequest,
	model.ErrCodeInvalidRequest:     http.StatusBadRequest,
	model.ErrCodeUnknownStatus:      http.StatusBadRequest,
	model.ErrCodeStaleOrder:         http.StatusConflict,
	model.ErrCodeTransitionRejected: http.StatusConflict,
	model.ErrCodeRefundInFlight:     http.StatusConflict,
	model.ErrCodeItemRefunded:       http.StatusConflict,
	model.ErrCodeFullyRefunded:      http.StatusConflict,
	model.ErrCodeFeeAlreadyRefund:   http.StatusConflict,
	model.ErrCodeInvalidRefundItem:  http.StatusConflict,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
}

// writeServiceError maps a service error onto the response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	if de, ok := model.AsDomainError(err); ok {
		status, known := statusByCode[de.Code]
		if !known {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, r, status, de.Code, de.Message, logger)
		return
	}
	if errors.Is(err, payment.ErrRefundFailed) {
		writeError(w, r, http.StatusBadGateway, model.ErrCodePaymentFailed, "the payment provider did not issue the refund", logger)
		return
	}
	logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
