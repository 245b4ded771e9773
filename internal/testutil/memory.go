// Package testutil provides in-memory stand-ins for the Postgres and Redis
// stores plus HTTP helpers shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edufeedback/backend/internal/events"
	"github.com/edufeedback/backend/internal/model"
	"github.com/edufeedback/backend/internal/repository"
)

// MemoryDB holds users and feedback behind one lock so user deletion
// cascades the way the foreign key does.
type MemoryDB struct {
	mu       sync.Mutex
	users    map[int]model.User
	feedback map[int]model.Feedback
	nextUser int
	nextFB   int
	now      func() time.Time
}

// NewMemoryDB returns an empty database.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:    make(map[int]model.User),
		feedback: make(map[int]model.Feedback),
		now:      time.Now,
	}
}

// Users returns a UserStore view.
func (db *MemoryDB) Users() *MemoryUsers { return &MemoryUsers{db: db} }

// Feedback returns a FeedbackStore view.
func (db *MemoryDB) Feedback() *MemoryFeedback { return &MemoryFeedback{db: db} }

// FeedbackCount returns how many feedback rows belong to userID.
func (db *MemoryDB) FeedbackCount(userID int) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, f := range db.feedback {
		if f.UserID == userID {
			n++
		}
	}
	return n
}

// MemoryUsers implements the user store over a MemoryDB.
type MemoryUsers struct {
	db *MemoryDB
}

func (r *MemoryUsers) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insertLocked(u)
}

func (r *MemoryUsers) insertLocked(u *model.User) error {
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.db.nextUser++
	u.ID = r.db.nextUser
	r.db.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) CreateIfEmpty(_ context.Context, u *model.User) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if len(r.db.users) > 0 {
		return false, nil
	}
	if err := r.insertLocked(u); err != nil {
		return false, err
	}
	return true, nil
}

func (r *MemoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *MemoryUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.PasswordHash = ""
	return &u, nil
}

func (r *MemoryUsers) ListAll(_ context.Context) ([]model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	users := make([]model.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		u.PasswordHash = ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUsers) Delete(_ context.Context, id int, check repository.DeleteCheck) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	target, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	admins := 0
	for _, u := range r.db.users {
		if u.IsAdmin() {
			admins++
		}
	}

	target.PasswordHash = ""
	if check != nil {
		if err := check(&target, admins); err != nil {
			return nil, err
		}
	}

	for fid, f := range r.db.feedback {
		if f.UserID == id {
			delete(r.db.feedback, fid)
		}
	}
	delete(r.db.users, id)
	return &target, nil
}

// MemoryFeedback implements the feedback store over a MemoryDB.
type MemoryFeedback struct {
	db *MemoryDB
}

func (r *MemoryFeedback) Create(_ context.Context, f *model.Feedback) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[f.UserID]; !ok {
		return repository.ErrUnknownOwner
	}
	r.db.nextFB++
	f.ID = r.db.nextFB
	f.CreatedAt = r.db.now()
	f.Status = model.FeedbackStatusActive
	r.db.feedback[f.ID] = *f
	return nil
}

func (r *MemoryFeedback) ListByUser(_ context.Context, userID int) ([]model.Feedback, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	list := make([]model.Feedback, 0)
	for _, f := range r.db.feedback {
		if f.UserID == userID {
			list = append(list, f)
		}
	}
	sortNewestFirst(list, func(i int) model.Feedback { return list[i] })
	return list, nil
}

func (r *MemoryFeedback) ListAllWithSubmitter(_ context.Context) ([]model.FeedbackWithSubmitter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	list := make([]model.FeedbackWithSubmitter, 0, len(r.db.feedback))
	for _, f := range r.db.feedback {
		list = append(list, model.FeedbackWithSubmitter{
			Feedback:    f,
			StudentName: r.db.users[f.UserID].Name,
		})
	}
	sortNewestFirst(list, func(i int) model.Feedback { return list[i].Feedback })
	return list, nil
}

func (r *MemoryFeedback) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.feedback, id)
	return nil
}

func sortNewestFirst[T any](list []T, at func(i int) model.Feedback) {
	sort.Slice(list, func(i, j int) bool {
		a, b := at(i), at(j)
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// MemorySessions implements the session registry without Redis. TTLs are ignored.
type MemorySessions struct {
	mu     sync.Mutex
	live   map[string]int
	byUser map[int]map[string]struct{}
}

// NewMemorySessions returns an empty registry.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		live:   make(map[string]int),
		byUser: make(map[int]map[string]struct{}),
	}
}

func (s *MemorySessions) Register(_ context.Context, userID int, jti string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.live[jti] = userID
	if s.byUser[userID] == nil {
		s.byUser[userID] = make(map[string]struct{})
	}
	s.byUser[userID][jti] = struct{}{}
	return nil
}

func (s *MemorySessions) Exists(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live[jti]
	return ok, nil
}

func (s *MemorySessions) Revoke(_ context.Context, userID int, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.live, jti)
	delete(s.byUser[userID], jti)
	return nil
}

func (s *MemorySessions) RevokeAll(_ context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.byUser[userID])
	for jti := range s.byUser[userID] {
		delete(s.live, jti)
	}
	delete(s.byUser, userID)
	return n, nil
}

// Count returns the number of live sessions of userID.
func (s *MemorySessions) Count(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser[userID])
}

// MemoryBus records published events and fans them out to subscribers.
type MemoryBus struct {
	mu        sync.Mutex
	published []events.Event
	subs      []chan events.Event
}

// NewMemoryBus returns a bus with no subscribers.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(_ context.Context, ev events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = append(b.published, ev)
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe mirrors events.RedisBus.Subscribe.
func (b *MemoryBus) Subscribe(_ context.Context) (<-chan events.Event, func() error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan events.Event, 16)
	b.subs = append(b.subs, ch)

	var once sync.Once
	return ch, func() error {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub == ch {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
		return nil
	}
}

// Kinds returns the kinds of every published event in order.
func (b *MemoryBus) Kinds() []events.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()

	kinds := make([]events.Kind, len(b.published))
	for i, ev := range b.published {
		kinds[i] = ev.Kind
	}
	return kinds
}
