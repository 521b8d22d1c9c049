package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"storefront/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// uuidArray binds ids as a text array; queries cast it with $n::uuid[].
func uuidArray(ids []uuid.UUID) any {
	return pq.Array(lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() }))
}

// orderBy renders an ORDER BY clause for a whitelisted sort field, with
// idColumn as tie-breaker in the same direction.
func orderBy(s domain.Sort, columns map[string]string, idColumn string) (string, error) {
	col, ok := columns[s.Field]
	if !ok {
		return "", domain.InvalidArgument("cannot sort by %q", s.Field)
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if col == idColumn {
		return fmt.Sprintf("ORDER BY %s %s", col, dir), nil
	}
	return fmt.Sprintf("ORDER BY %s %s, %s %s", col, dir, idColumn, dir), nil
}
