// internal/membership/domain.go
package membership

import (
	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Strategy names a quarter-close implementation.
type Strategy string

const (
	// StrategyDirty closes each membership in its own short transaction.
	StrategyDirty Strategy = "dirty"
	// StrategyBulk closes every membership with set-based statements in one transaction.
	StrategyBulk Strategy = "bulk"
)

func ToStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDirty, StrategyBulk:
		return Strategy(s), nil
	}
	return "", domain.InvalidArgument("invalid batch strategy %q", s)
}

// JoinCommand registers a member. The username is the identity the
// session service authenticates.
type JoinCommand struct {
	Username string         `json:"username"`
	Name     string         `json:"name"`
	Address  domain.Address `json:"address"`
}

// BatchResult reports one quarter-close run.
type BatchResult struct {
	RunID     uuid.UUID            `json:"run_id"`
	Strategy  Strategy             `json:"strategy"`
	Processed int                  `json:"processed"`
	Grades    map[domain.Grade]int `json:"grades"`
}
