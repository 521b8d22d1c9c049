// internal/order/handler.go
package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/httpx"
	"storefront/internal/logger"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes mounts the order commands. Reads live in the query handler.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.handlePlaceOrder)
	r.Post("/orders/{orderID}/cancel", h.handleCancelOrder)
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd PlaceOrderCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	id, err := h.service.PlaceOrder(r.Context(), cmd)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "orderID")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	if err := h.service.CancelOrder(r.Context(), id, httpx.ActorFrom(r)); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
