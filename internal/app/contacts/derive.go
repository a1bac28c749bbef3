package contacts

import (
	"strings"

	"github.com/PabloGalante/messenger/internal/domain"
)

// Counterparts returns everyone me exchanged a message with, in first-seen order.
func Counterparts(msgs []domain.Message, me string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range msgs {
		if !m.Touches(me) {
			continue
		}
		c := m.Counterpart(me)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// DeriveWithHistory maps the counterparts of me onto known users, keyed by contact key.
// Counterparts with no matching user are dropped.
func DeriveWithHistory(users []domain.User, msgs []domain.Message, me string) []domain.User {
	known := make(map[string]domain.User, len(users))
	for _, u := range users {
		if _, dup := known[u.ContactKey()]; !dup {
			known[u.ContactKey()] = u
		}
	}

	out := []domain.User{}
	for _, key := range Counterparts(msgs, me) {
		if u, ok := known[key]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Filter keeps users whose contact key contains query, ignoring case.
func Filter(users []domain.User, query string) []domain.User {
	q := strings.ToLower(query)
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.ContactKey()), q) {
			out = append(out, u)
		}
	}
	return out
}
