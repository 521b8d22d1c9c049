// internal/query/handler.go
package query

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/internal/domain"
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

func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.handleListOrders)
	r.Get("/orders/with-items", h.handleListOrdersWithItems)
	r.Get("/orders/summaries", h.handleListOrderSummaries)
	r.Get("/orders/{orderID}", h.handleGetOrder)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "orderID")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	view, err := h.service.GetOrderDetail(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.PageFrom(r)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	search := domain.OrderSearch{
		MemberName: r.URL.Query().Get("member_name"),
		Status:     domain.OrderStatus(strings.ToUpper(r.URL.Query().Get("status"))),
	}

	views, err := h.service.ListOrders(r.Context(), search, page)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleListOrdersWithItems(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.PageFrom(r)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	strategy := domain.FetchStrategy(r.URL.Query().Get("strategy"))
	views, err := h.service.ListOrdersWithItems(r.Context(), strategy, page)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleListOrderSummaries(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.PageFrom(r)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	strategy := domain.ProjectionStrategy(r.URL.Query().Get("strategy"))
	summaries, err := h.service.ListOrderSummaries(r.Context(), strategy, page)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summaries)
}
