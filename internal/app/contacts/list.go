// Package contacts holds the contact list: every known user plus the users the
// logged-in user already has a conversation with, each behind its own text filter.
package contacts

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

type RefetchPolicy string

const (
	// RefetchEvery re-fetches messages on every history query change, without debouncing.
	RefetchEvery RefetchPolicy = "every"
	// RefetchDebounce re-fetches once the history query has been quiet for Options.Debounce.
	RefetchDebounce RefetchPolicy = "debounce"
	// RefetchNever filters the data already fetched.
	RefetchNever RefetchPolicy = "never"
)

// Session is the part of the session store the list needs.
type Session interface {
	Current() (domain.User, error)
}

type Options struct {
	Refetch  RefetchPolicy
	Debounce time.Duration
	// DiscardStale drops message responses issued before the last applied one.
	// Without it the last response to resolve wins, even if it was issued first.
	DiscardStale bool
	// OnChange runs after every state change, outside the list's lock.
	OnChange func()
	// OnSelect receives the full record of a selected contact.
	OnSelect func(domain.User)
}

// View is a snapshot of what the list renders.
type View struct {
	Loading       bool
	AllUsersQuery string
	HistoryQuery  string
	// AllUsers is only populated while AllUsersQuery is non-empty.
	AllUsers    []domain.User
	WithHistory []domain.User
}

type List struct {
	remote  domain.RemoteStore
	session Session
	opts    Options

	mu           sync.Mutex
	loading      bool
	users        []domain.User
	messages     []domain.Message
	allQuery     string
	historyQuery string
	issued       uint64
	applied      uint64
	timer        *time.Timer
}

func NewList(remote domain.RemoteStore, session Session, opts Options) *List {
	if opts.Refetch == "" {
		opts.Refetch = RefetchDebounce
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	return &List{
		remote:  remote,
		session: session,
		opts:    opts,
		loading: true,
	}
}

// Load fetches all users and, once they arrive, all messages.
// Failures are logged and leave the previous data in place.
func (l *List) Load(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx)

	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()
	l.changed()

	users, err := l.remote.ListUsers(ctx)

	l.mu.Lock()
	l.loading = false
	if err == nil {
		l.users = users
	}
	l.mu.Unlock()
	l.changed()

	if err != nil {
		log.Error("failed to fetch users", "error", err)
		return err
	}
	log.Info("fetched users", "count", len(users))

	return l.RefreshMessages(ctx)
}

// RefreshMessages re-fetches the full message collection.
func (l *List) RefreshMessages(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx)

	if _, err := l.session.Current(); err != nil {
		log.Warn("skipping message fetch", "error", err)
		return err
	}

	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.mu.Unlock()

	msgs, err := l.remote.ListMessages(ctx)
	if err != nil {
		log.Error("failed to fetch messages", "seq", seq, "error", err)
		return err
	}

	l.mu.Lock()
	if l.opts.DiscardStale && seq < l.applied {
		l.mu.Unlock()
		log.Debug("dropping stale message response", "seq", seq)
		return nil
	}
	l.messages = msgs
	l.applied = seq
	l.mu.Unlock()

	log.Debug("applied message response", "seq", seq, "count", len(msgs))
	l.changed()
	return nil
}

func (l *List) SetAllUsersQuery(q string) {
	l.mu.Lock()
	l.allQuery = q
	l.mu.Unlock()
	l.changed()
}

// SetHistoryQuery updates the history filter and schedules a message re-fetch
// according to the refetch policy.
func (l *List) SetHistoryQuery(ctx context.Context, q string) {
	l.mu.Lock()
	l.historyQuery = q
	switch l.opts.Refetch {
	case RefetchEvery:
		go l.RefreshMessages(ctx)
	case RefetchDebounce:
		if l.timer != nil {
			l.timer.Stop()
		}
		l.timer = time.AfterFunc(l.opts.Debounce, func() {
			l.RefreshMessages(ctx)
		})
	}
	l.mu.Unlock()
	l.changed()
}

// Select hands the full user record to the selection callback.
func (l *List) Select(u domain.User) {
	if l.opts.OnSelect != nil {
		l.opts.OnSelect(u)
	}
}

// Users returns every fetched user.
func (l *List) Users() []domain.User {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.User, len(l.users))
	copy(out, l.users)
	return out
}

func (l *List) View() View {
	me := ""
	if u, err := l.session.Current(); err == nil {
		me = u.ContactKey()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	v := View{
		Loading:       l.loading,
		AllUsersQuery: l.allQuery,
		HistoryQuery:  l.historyQuery,
	}
	if l.allQuery != "" {
		v.AllUsers = Filter(l.users, l.allQuery)
	}
	if me != "" {
		v.WithHistory = Filter(DeriveWithHistory(l.users, l.messages, me), l.historyQuery)
	}
	return v
}

// Close stops a pending debounced re-fetch.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timer != nil {
		l.timer.Stop()
	}
}

func (l *List) changed() {
	if l.opts.OnChange != nil {
		l.opts.OnChange()
	}
}
