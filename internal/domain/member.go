package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Member struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	Address    Address    `json:"address"`
	Membership Membership `json:"membership"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewMember creates a member together with the membership it owns.
func NewMember(username, name string, addr Address, now time.Time) (Member, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Member{}, InvalidArgument("username is empty")
	}
	if strings.TrimSpace(name) == "" {
		return Member{}, InvalidArgument("name is empty")
	}

	id := uuid.New()
	return Member{
		ID:         id,
		Username:   username,
		Name:       name,
		Address:    addr,
		Membership: NewMembership(id, now),
		CreatedAt:  now,
	}, nil
}

// Actor is the authenticated identity supplied by the session service.
type Actor struct {
	Username string
	Admin    bool
}

// CanActFor reports whether the actor may act on resources owned by username.
func (a Actor) CanActFor(username string) bool {
	return a.Admin || (a.Username != "" && a.Username == username)
}
