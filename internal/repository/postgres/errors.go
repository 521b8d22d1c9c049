package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"storefront/internal/domain"
)

const pqUniqueViolation = "23505"

// storageErr converts a driver error into a domain error. Domain errors
// pass through untouched.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return domain.Conflict("duplicate value violates %s", pqErr.Constraint)
	}
	return domain.Storage(err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
