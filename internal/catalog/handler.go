// internal/catalog/handler.go
package catalog

import (
	"net/http"

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
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.handleListItems)
		r.Get("/{itemID}", h.handleGetItem)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/", h.handleAddItem)
			r.Patch("/{itemID}", h.handleUpdateItem)
		})
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !httpx.ActorFrom(r).Admin {
			httpx.WriteError(w, h.log, domain.Forbidden("catalog changes require an admin"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req NewItem
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	item, err := h.service.AddItem(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	var req ItemUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), id, req)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.PageFrom(r)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	items, err := h.service.ListItems(r.Context(), page)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, items)
}
