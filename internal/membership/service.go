// internal/membership/service.go
package membership

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Service defines the interface for the membership service.
type Service interface {
	Join(ctx context.Context, cmd JoinCommand) (domain.Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (domain.Member, error)
	// GetMemberByUsername resolves the member behind a session identity.
	GetMemberByUsername(ctx context.Context, username string) (domain.Member, error)
	ListMembers(ctx context.Context, page domain.PageRequest) ([]domain.Member, error)
	// Withdraw soft-deletes the member's membership. Repeating it is a no-op.
	Withdraw(ctx context.Context, memberID uuid.UUID) error

	// UpdateMembershipsDirty and UpdateMembershipsBulk both close the
	// quarter for every active membership: grade from the band of the
	// spending so far, spending reset to zero.
	UpdateMembershipsDirty(ctx context.Context) (BatchResult, error)
	UpdateMembershipsBulk(ctx context.Context) (BatchResult, error)
	UpdateMemberships(ctx context.Context, strategy Strategy) (BatchResult, error)
}
