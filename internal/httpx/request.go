package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/domain"
)

const (
	HeaderUsername = "X-Username"
	HeaderRole     = "X-Role"

	RoleAdmin = "admin"
)

// ActorFrom reads the identity the upstream session service put on the request.
func ActorFrom(r *http.Request) domain.Actor {
	return domain.Actor{
		Username: strings.TrimSpace(r.Header.Get(HeaderUsername)),
		Admin:    strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderRole)), RoleAdmin),
	}
}

// IDParam parses the chi URL parameter name as a UUID.
func IDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.InvalidArgument("invalid %s %q", name, raw)
	}
	return id, nil
}

// PageFrom reads page, size and sort ("field" or "field,desc") from the
// query string. size defaults to domain.DefaultPageSize; sort has no default.
func PageFrom(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	page := domain.PageRequest{Size: domain.DefaultPageSize}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, domain.InvalidArgument("invalid page %q", v)
		}
		page.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, domain.InvalidArgument("invalid size %q", v)
		}
		page.Size = n
	}
	if v := q.Get("sort"); v != "" {
		field, dir, _ := strings.Cut(v, ",")
		page.Sort.Field = strings.TrimSpace(field)
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			page.Sort.Desc = true
		default:
			return page, domain.InvalidArgument("invalid sort direction %q", dir)
		}
	}
	return page, nil
}
