package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Money is an integer amount in the store's single currency.
// It performs no sign checks; callers enforce domain invariants.
type Money struct {
	amount int64
}

func NewMoney(amount int64) Money {
	return Money{amount: amount}
}

func (m Money) Amount() int64 {
	return m.amount
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount + o.amount}
}

func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount - o.amount}
}

func (m Money) Mul(n int) Money {
	return Money{amount: m.amount * int64(n)}
}

// AddChecked is Add that reports false when the sum overflows int64.
func (m Money) AddChecked(o Money) (Money, bool) {
	sum := m.amount + o.amount
	if (o.amount > 0 && sum < m.amount) || (o.amount < 0 && sum > m.amount) {
		return Money{}, false
	}
	return Money{amount: sum}, true
}

// MulChecked is Mul that reports false when the product overflows int64.
func (m Money) MulChecked(n int) (Money, bool) {
	if m.amount == 0 || n == 0 {
		return Money{}, true
	}
	k := int64(n)
	if (m.amount == -1 && k == math.MinInt64) || (k == -1 && m.amount == math.MinInt64) {
		return Money{}, false
	}
	p := m.amount * k
	if p/k != m.amount {
		return Money{}, false
	}
	return Money{amount: p}, true
}

func (m Money) IsNegative() bool {
	return m.amount < 0
}

func (m Money) IsZero() bool {
	return m.amount == 0
}

func (m Money) LessThan(o Money) bool {
	return m.amount < o.amount
}

func (m Money) String() string {
	return strconv.FormatInt(m.amount, 10)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount)
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &m.amount)
}
