package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"storefront/internal/domain"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		want  domain.Grade
	}{
		{name: "zero: silver", total: 0, want: domain.GradeSilver},
		{name: "just below gold: silver", total: 199_999, want: domain.GradeSilver},
		{name: "gold lower bound: gold", total: 200_000, want: domain.GradeGold},
		{name: "just below vip: gold", total: 399_999, want: domain.GradeGold},
		{name: "vip lower bound: vip", total: 400_000, want: domain.GradeVIP},
		{name: "large: vip", total: 90_000_000, want: domain.GradeVIP},
		{name: "negative: silver", total: -1, want: domain.GradeSilver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.BandFor(domain.NewMoney(tt.total)))
		})
	}
}

func TestBandsArePartition(t *testing.T) {
	bands := domain.Bands()

	rapid.Check(t, func(t *rapid.T) {
		total := domain.NewMoney(rapid.Int64Range(-1_000, 10_000_000).Draw(t, "total"))

		matches := 0
		for _, b := range bands {
			if b.Contains(total) {
				matches++
				require.Equal(t, domain.BandFor(total), b.Grade)
			}
		}
		require.Equal(t, 1, matches, "total %s must fall in exactly one band", total)
	})
}

func TestMembershipSpending(t *testing.T) {
	now := time.Now()
	m := domain.NewMembership(uuid.New(), now)
	require.Equal(t, domain.GradeSilver, m.Grade)

	m.AddSpending(domain.NewMoney(300_000))
	assert.Equal(t, int64(300_000), m.TotalSpending.Amount())
	assert.Equal(t, domain.GradeSilver, m.Grade, "grade only changes at quarter close")

	clamped := m.SubtractSpending(domain.NewMoney(100_000))
	assert.False(t, clamped)
	assert.Equal(t, int64(200_000), m.TotalSpending.Amount())

	clamped = m.SubtractSpending(domain.NewMoney(500_000))
	assert.True(t, clamped)
	assert.True(t, m.TotalSpending.IsZero())
}

func TestMembershipCloseQuarter(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		spending int64
		want     domain.Grade
	}{
		{name: "50000: silver", spending: 50_000, want: domain.GradeSilver},
		{name: "250000: gold", spending: 250_000, want: domain.GradeGold},
		{name: "450000: vip", spending: 450_000, want: domain.GradeVIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := domain.NewMembership(uuid.New(), now)
			m.Grade = domain.GradeVIP
			m.AddSpending(domain.NewMoney(tt.spending))

			m.CloseQuarter(now.Add(time.Hour))

			assert.Equal(t, tt.want, m.Grade)
			assert.True(t, m.TotalSpending.IsZero())
			assert.Equal(t, now.Add(time.Hour), m.UpdatedAt)
		})
	}
}

func TestMembershipSoftDelete(t *testing.T) {
	now := time.Now()
	m := domain.NewMembership(uuid.New(), now)

	m.SoftDelete(now)
	require.True(t, m.Deleted)
	require.NotNil(t, m.DeletedAt)

	m.SoftDelete(now.Add(time.Hour))
	assert.Equal(t, now, *m.DeletedAt, "second delete keeps the first timestamp")
}
