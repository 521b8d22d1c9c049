package memory

import (
	"fmt"

	"github.com/google/uuid"
)

func errNegative(column string) error {
	return fmt.Errorf("check constraint violated: %s must be >= 0", column)
}

func errMissingRef(table string, id uuid.UUID) error {
	return fmt.Errorf("foreign key violated: %s %s does not exist", table, id)
}
