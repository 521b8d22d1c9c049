package domain

import (
	"time"

	"github.com/google/uuid"
)

type Grade string

const (
	GradeSilver Grade = "SILVER"
	GradeGold   Grade = "GOLD"
	GradeVIP    Grade = "VIP"
)

// Band maps a half-open spending interval [From, To) to a grade.
// A nil bound is unbounded on that side.
type Band struct {
	Grade Grade
	From  *Money
	To    *Money
}

func (b Band) Contains(total Money) bool {
	if b.From != nil && total.LessThan(*b.From) {
		return false
	}
	if b.To != nil && !total.LessThan(*b.To) {
		return false
	}
	return true
}

func moneyPtr(amount int64) *Money {
	m := NewMoney(amount)
	return &m
}

// bands must stay contiguous and non-overlapping. The lowest band is open
// below; stored totals are never negative, so it covers [0, 200000).
var bands = []Band{
	{Grade: GradeSilver, From: nil, To: moneyPtr(200_000)},
	{Grade: GradeGold, From: moneyPtr(200_000), To: moneyPtr(400_000)},
	{Grade: GradeVIP, From: moneyPtr(400_000), To: nil},
}

// Bands returns a copy of the grade band table, lowest band first.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

func BandFor(total Money) Grade {
	for _, b := range bands {
		if b.Contains(total) {
			return b.Grade
		}
	}
	return GradeSilver
}

type Membership struct {
	ID            uuid.UUID  `json:"id"`
	MemberID      uuid.UUID  `json:"member_id"`
	Grade         Grade      `json:"grade"`
	TotalSpending Money      `json:"total_spending"`
	Deleted       bool       `json:"deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewMembership(memberID uuid.UUID, now time.Time) Membership {
	return Membership{
		ID:        uuid.New(),
		MemberID:  memberID,
		Grade:     GradeSilver,
		UpdatedAt: now,
	}
}

// AddSpending accumulates an order total. The grade is left alone until
// the next quarter close.
func (m *Membership) AddSpending(amount Money) {
	m.TotalSpending = m.TotalSpending.Add(amount)
}

// SubtractSpending reverses an order total. A result below zero is
// clamped to zero and reported through the return value.
func (m *Membership) SubtractSpending(amount Money) (clamped bool) {
	next := m.TotalSpending.Sub(amount)
	if next.IsNegative() {
		m.TotalSpending = NewMoney(0)
		return true
	}
	m.TotalSpending = next
	return false
}

// CloseQuarter assigns the grade earned by the spending so far and resets
// the spending for the next quarter.
func (m *Membership) CloseQuarter(now time.Time) {
	m.Grade = BandFor(m.TotalSpending)
	m.TotalSpending = NewMoney(0)
	m.UpdatedAt = now
}

// SoftDelete marks the membership withdrawn. Calling it again is a no-op.
func (m *Membership) SoftDelete(now time.Time) {
	if m.Deleted {
		return
	}
	m.Deleted = true
	m.DeletedAt = &now
	m.UpdatedAt = now
}
