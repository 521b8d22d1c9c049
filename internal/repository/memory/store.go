// Package memory is an in-process storage backend. Transactions are
// serialized behind one mutex and run against a copy of the state that
// replaces the committed state only when the transaction succeeds.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/port"
)

type state struct {
	items       map[uuid.UUID]domain.Item
	members     map[uuid.UUID]domain.Member
	memberships map[uuid.UUID]domain.Membership // keyed by member id
	orders      map[uuid.UUID]domain.Order
	events      []domain.Event
	nextEventID int64
}

func newState() *state {
	return &state{
		items:       make(map[uuid.UUID]domain.Item),
		members:     make(map[uuid.UUID]domain.Member),
		memberships: make(map[uuid.UUID]domain.Membership),
		orders:      make(map[uuid.UUID]domain.Order),
	}
}

func (s *state) clone() *state {
	c := &state{
		items:       make(map[uuid.UUID]domain.Item, len(s.items)),
		members:     make(map[uuid.UUID]domain.Member, len(s.members)),
		memberships: make(map[uuid.UUID]domain.Membership, len(s.memberships)),
		orders:      make(map[uuid.UUID]domain.Order, len(s.orders)),
		events:      append([]domain.Event(nil), s.events...),
		nextEventID: s.nextEventID,
	}
	for id, it := range s.items {
		c.items[id] = it.Clone()
	}
	for id, m := range s.members {
		c.members[id] = m
	}
	for id, m := range s.memberships {
		c.memberships[id] = m
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func New() *Store {
	return &Store{
		state: newState(),
		now:   time.Now,
	}
}

var _ port.UnitOfWork = (*Store)(nil)

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r port.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return domain.Storage(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &repositories{st: work, now: s.now}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Queries returns the read side backed by this store.
func (s *Store) Queries() port.OrderQueryRepository {
	return &queryRepository{store: s}
}

type repositories struct {
	st  *state
	now func() time.Time
}

func (r *repositories) Items() port.ItemRepository             { return itemRepository{r} }
func (r *repositories) Members() port.MemberRepository         { return memberRepository{r} }
func (r *repositories) Memberships() port.MembershipRepository { return membershipRepository{r} }
func (r *repositories) Orders() port.OrderRepository           { return orderRepository{r} }
func (r *repositories) Events() port.EventRepository           { return eventRepository{r} }

type itemRepository struct{ *repositories }

func (r itemRepository) Create(_ context.Context, item domain.Item) error {
	if _, exists := r.st.items[item.ID]; exists {
		return domain.Conflict("item %s already exists", item.ID)
	}
	r.st.items[item.ID] = item.Clone()
	return nil
}

func (r itemRepository) Get(_ context.Context, id uuid.UUID) (domain.Item, error) {
	it, ok := r.st.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item %s not found", id)
	}
	return it.Clone(), nil
}

func (r itemRepository) List(_ context.Context, page domain.PageRequest) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(r.st.items))
	for _, it := range r.st.items {
		items = append(items, it.Clone())
	}
	sortBy(items, page.Sort, func(it domain.Item) uuid.UUID { return it.ID }, func(a, b domain.Item) int {
		if page.Sort.Field == domain.SortByName {
			return strings.Compare(a.Name, b.Name)
		}
		return 0
	})
	return domain.Slice(items, page), nil
}

func (r itemRepository) LockByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	out := make(map[uuid.UUID]domain.Item, len(ids))
	for _, id := range ids {
		if it, ok := r.st.items[id]; ok {
			out[id] = it.Clone()
		}
	}
	return out, nil
}

func (r itemRepository) Update(_ context.Context, item domain.Item) error {
	if _, ok := r.st.items[item.ID]; !ok {
		return domain.NotFound("item %s not found", item.ID)
	}
	if item.StockQuantity < 0 {
		return domain.Storage(errNegative("stock_quantity"))
	}
	r.st.items[item.ID] = item.Clone()
	return nil
}

type memberRepository struct{ *repositories }

func (r memberRepository) Create(_ context.Context, member domain.Member) error {
	for _, m := range r.st.members {
		if m.Username == member.Username {
			return domain.Conflict("username %q is taken", member.Username)
		}
	}
	ms := member.Membership
	member.Membership = domain.Membership{}
	r.st.members[member.ID] = member
	r.st.memberships[member.ID] = ms
	return nil
}

func (r memberRepository) withMembership(m domain.Member) domain.Member {
	m.Membership = r.st.memberships[m.ID]
	return m
}

func (r memberRepository) Get(_ context.Context, id uuid.UUID) (domain.Member, error) {
	m, ok := r.st.members[id]
	if !ok {
		return domain.Member{}, domain.NotFound("member %s not found", id)
	}
	return r.withMembership(m), nil
}

func (r memberRepository) GetByUsername(_ context.Context, username string) (domain.Member, error) {
	for _, m := range r.st.members {
		if m.Username == username {
			return r.withMembership(m), nil
		}
	}
	return domain.Member{}, domain.NotFound("member %q not found", username)
}

func (r memberRepository) List(_ context.Context, page domain.PageRequest) ([]domain.Member, error) {
	members := make([]domain.Member, 0, len(r.st.members))
	for _, m := range r.st.members {
		members = append(members, r.withMembership(m))
	}
	sortBy(members, page.Sort, func(m domain.Member) uuid.UUID { return m.ID }, func(a, b domain.Member) int {
		if page.Sort.Field == domain.SortByUsername {
			return strings.Compare(a.Username, b.Username)
		}
		return 0
	})
	return domain.Slice(members, page), nil
}

type membershipRepository struct{ *repositories }

func (r membershipRepository) LockByMemberID(_ context.Context, memberID uuid.UUID) (domain.Membership, error) {
	m, ok := r.st.memberships[memberID]
	if !ok {
		return domain.Membership{}, domain.NotFound("membership of member %s not found", memberID)
	}
	return m, nil
}

func (r membershipRepository) Save(_ context.Context, m domain.Membership) error {
	if _, ok := r.st.memberships[m.MemberID]; !ok {
		return domain.NotFound("membership of member %s not found", m.MemberID)
	}
	if m.TotalSpending.IsNegative() {
		return domain.Storage(errNegative("total_spending"))
	}
	r.st.memberships[m.MemberID] = m
	return nil
}

func (r membershipRepository) ListActiveMemberIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for memberID, m := range r.st.memberships {
		if !m.Deleted {
			ids = append(ids, memberID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (r membershipRepository) LockActive(ctx context.Context) (int, error) {
	ids, err := r.ListActiveMemberIDs(ctx)
	return len(ids), err
}

func (r membershipRepository) AssignGrade(_ context.Context, band domain.Band) (int64, error) {
	var n int64
	now := r.now()
	for memberID, m := range r.st.memberships {
		if m.Deleted || !band.Contains(m.TotalSpending) {
			continue
		}
		m.Grade = band.Grade
		m.UpdatedAt = now
		r.st.memberships[memberID] = m
		n++
	}
	return n, nil
}

func (r membershipRepository) ResetSpending(_ context.Context) (int64, error) {
	var n int64
	now := r.now()
	for memberID, m := range r.st.memberships {
		if m.Deleted {
			continue
		}
		m.TotalSpending = domain.NewMoney(0)
		m.UpdatedAt = now
		r.st.memberships[memberID] = m
		n++
	}
	return n, nil
}

type orderRepository struct{ *repositories }

func (r orderRepository) Create(_ context.Context, order domain.Order) error {
	if _, exists := r.st.orders[order.ID]; exists {
		return domain.Conflict("order %s already exists", order.ID)
	}
	if _, ok := r.st.members[order.MemberID]; !ok {
		return domain.Storage(errMissingRef("member", order.MemberID))
	}
	for _, line := range order.Items {
		if _, ok := r.st.items[line.ItemID]; !ok {
			return domain.Storage(errMissingRef("item", line.ItemID))
		}
	}
	r.st.orders[order.ID] = order.Clone()
	return nil
}

func (r orderRepository) LockByID(_ context.Context, id uuid.UUID) (domain.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFound("order %s not found", id)
	}
	return o.Clone(), nil
}

func (r orderRepository) UpdateStatus(_ context.Context, order domain.Order) error {
	o, ok := r.st.orders[order.ID]
	if !ok {
		return domain.NotFound("order %s not found", order.ID)
	}
	o.Status = order.Status
	o.Delivery.Status = order.Delivery.Status
	o.UpdatedAt = order.UpdatedAt
	r.st.orders[order.ID] = o
	return nil
}

type eventRepository struct{ *repositories }

func (r eventRepository) currentVersion(aggregateID uuid.UUID) int {
	v := 0
	for _, e := range r.st.events {
		if e.AggregateID == aggregateID && e.Version > v {
			v = e.Version
		}
	}
	return v
}

func (r eventRepository) Append(_ context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events ...domain.Event) error {
	if r.currentVersion(aggregateID) != expectedVersion {
		return domain.Conflict("concurrency conflict: version mismatch")
	}
	now := r.now().UTC()
	for i, e := range events {
		r.st.nextEventID++
		e.ID = r.st.nextEventID
		e.AggregateID = aggregateID
		e.AggregateType = aggregateType
		e.Version = expectedVersion + i + 1
		e.CreatedAt = now
		r.st.events = append(r.st.events, e)
	}
	return nil
}

func (r eventRepository) Load(_ context.Context, aggregateID uuid.UUID) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range r.st.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// sortBy orders rows by the requested field with the id as tie-breaker,
// the same ordering the SQL listings use.
func sortBy[T any](rows []T, s domain.Sort, id func(T) uuid.UUID, field func(a, b T) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := field(rows[i], rows[j])
		if c == 0 {
			c = strings.Compare(id(rows[i]).String(), id(rows[j]).String())
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}
