package port

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item domain.Item) error
	Get(ctx context.Context, id uuid.UUID) (domain.Item, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.Item, error)
	// LockByIDs loads every requested item in one round trip and holds
	// row locks until the transaction ends. Missing ids are absent from
	// the result.
	LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error)
	Update(ctx context.Context, item domain.Item) error
}

type MemberRepository interface {
	// Create stores the member and the membership it owns.
	Create(ctx context.Context, member domain.Member) error
	Get(ctx context.Context, id uuid.UUID) (domain.Member, error)
	GetByUsername(ctx context.Context, username string) (domain.Member, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.Member, error)
}

type MembershipRepository interface {
	LockByMemberID(ctx context.Context, memberID uuid.UUID) (domain.Membership, error)
	Save(ctx context.Context, m domain.Membership) error
	// ListActiveMemberIDs returns member ids of memberships not soft-deleted.
	ListActiveMemberIDs(ctx context.Context) ([]uuid.UUID, error)
	// LockActive row-locks every active membership and returns their count.
	LockActive(ctx context.Context) (int, error)
	// AssignGrade sets band.Grade on every active membership whose spending
	// lies inside band, in one statement.
	AssignGrade(ctx context.Context, band domain.Band) (int64, error)
	// ResetSpending zeroes the spending of every active membership in one statement.
	ResetSpending(ctx context.Context) (int64, error)
}

type OrderRepository interface {
	// Create stores the order, its embedded delivery and its lines.
	Create(ctx context.Context, order domain.Order) error
	// LockByID loads the order with its lines and holds its row lock.
	LockByID(ctx context.Context, id uuid.UUID) (domain.Order, error)
	UpdateStatus(ctx context.Context, order domain.Order) error
}

type EventRepository interface {
	// Append adds events after expectedVersion of the aggregate, failing
	// with domain.ErrConflict when another writer got there first.
	Append(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events ...domain.Event) error
	Load(ctx context.Context, aggregateID uuid.UUID) ([]domain.Event, error)
}

// Repositories is the set of repositories bound to one transaction.
type Repositories interface {
	Items() ItemRepository
	Members() MemberRepository
	Memberships() MembershipRepository
	Orders() OrderRepository
	Events() EventRepository
}

// UnitOfWork runs fn in a single storage transaction. It commits when fn
// returns nil and rolls back otherwise; no partial effect is observable.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}
