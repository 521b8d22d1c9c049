// internal/membership/handler.go
package membership

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
	r.Route("/members", func(r chi.Router) {
		r.Post("/", h.handleJoin)
		r.Get("/", h.handleListMembers)
		r.Get("/me", h.handleGetMe)
		r.Get("/{memberID}", h.handleGetMember)
		r.Delete("/{memberID}", h.handleWithdraw)
	})
	r.Post("/memberships/quarter-close", h.handleQuarterClose)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var cmd JoinCommand
	if err := httpx.Decode(r, &cmd); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	member, err := h.service.Join(r.Context(), cmd)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.PageFrom(r)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	members, err := h.service.ListMembers(r.Context(), page)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "memberID")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, member)
}

// handleGetMe returns the member the session identity belongs to.
func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	actor := httpx.ActorFrom(r)
	if actor.Username == "" {
		httpx.WriteError(w, h.log, domain.Forbidden("no session identity on the request"))
		return
	}

	member, err := h.service.GetMemberByUsername(r.Context(), actor.Username)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "memberID")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	actor := httpx.ActorFrom(r)
	if !actor.CanActFor(member.Username) {
		httpx.WriteError(w, h.log, domain.Forbidden("%q may not withdraw %q", actor.Username, member.Username))
		return
	}

	if err := h.service.Withdraw(r.Context(), id); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQuarterClose(w http.ResponseWriter, r *http.Request) {
	if !httpx.ActorFrom(r).Admin {
		httpx.WriteError(w, h.log, domain.Forbidden("quarter close requires an admin"))
		return
	}

	raw := r.URL.Query().Get("strategy")
	if raw == "" {
		raw = string(StrategyBulk)
	}
	strategy, err := ToStrategy(raw)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	result, err := h.service.UpdateMemberships(r.Context(), strategy)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}
