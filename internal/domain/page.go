package domain

import "fmt"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Sort struct {
	Field string
	Desc  bool
}

// PageRequest is a zero-based page/size/sort triple. A sort field is
// mandatory: unordered pagination can skip or repeat rows across pages.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Validate checks the request against the sort fields a listing accepts.
func (p PageRequest) Validate(sortable ...string) error {
	if p.Page < 0 {
		return InvalidArgument("page must be >= 0, got %d", p.Page)
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return InvalidArgument("size must be in [1, %d], got %d", MaxPageSize, p.Size)
	}
	if p.Sort.Field == "" {
		return InvalidArgument("sort field is required")
	}
	for _, f := range sortable {
		if f == p.Sort.Field {
			return nil
		}
	}
	return InvalidArgument("cannot sort by %q", p.Sort.Field)
}

// Slice applies the page window to an already ordered slice.
func Slice[T any](all []T, p PageRequest) []T {
	from := p.Offset()
	if from >= len(all) {
		return nil
	}
	to := from + p.Size
	if to > len(all) {
		to = len(all)
	}
	return all[from:to]
}

func (s Sort) String() string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s,%s", s.Field, dir)
}

// Sort fields accepted by the listings.
const (
	SortByID        = "id"
	SortByOrderedAt = "orderedAt"
	SortByName      = "name"
	SortByUsername  = "username"
)
