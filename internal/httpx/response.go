package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// StatusOf maps a domain error code to its HTTP status.
func StatusOf(code domain.Code) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeOutOfStock, domain.CodeAlreadyCancelled, domain.CodeInvalidSpendingReversal, domain.CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError renders err as an error envelope. Storage failures are logged
// with their cause and reported without it.
func WriteError(w http.ResponseWriter, log *logger.Logger, err error) {
	code := domain.CodeOf(err)
	msg := err.Error()

	var derr *domain.Error
	if errors.As(err, &derr) {
		msg = derr.Message
	}
	if code == domain.CodeStorage {
		if errors.As(err, &derr) && derr.Cause() != nil {
			log.Error("storage failure", "error", derr.Cause())
		} else {
			log.Error("unexpected failure", "error", err)
		}
		msg = domain.ErrStorage.Message
	}

	WriteJSON(w, StatusOf(code), ErrorEnvelope{
		Error: APIError{Message: msg, Code: string(code)},
	})
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.InvalidArgument("invalid request body: %v", err)
	}
	return nil
}
