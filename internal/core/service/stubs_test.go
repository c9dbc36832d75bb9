package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store implementing the three repositories with the same
// constraints as the MySQL schema: unique (user, allergy) pairs and
// cascading deletes.
// ---------------------------------------------------------------------------

type memStore struct {
	mu        sync.Mutex
	users     map[int64]*domain.User
	allergies map[int64]*domain.Allergy
	links     map[int64]*domain.UserAllergy
	nextID    map[string]int64
	failWith  error // if set, every call returns this error
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*domain.User),
		allergies: make(map[int64]*domain.Allergy),
		links:     make(map[int64]*domain.UserAllergy),
		nextID:    make(map[string]int64),
	}
}

func (m *memStore) id(table string) int64 {
	m.nextID[table]++
	return m.nextID[table]
}

type memUsers struct{ *memStore }
type memAllergies struct{ *memStore }
type memLinks struct{ *memStore }

func (r memUsers) List(_ context.Context) ([]domain.User, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		for _, l := range m.links {
			if l.UserID == u.ID {
				c.AllergyCount++
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) Create(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == in.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	u := &domain.User{ID: m.id("users"), Name: in.Name, Age: in.Age, Email: in.Email}
	m.users[u.ID] = u
	c := *u
	return &c, nil
}

func (r memUsers) Update(_ context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Age != nil {
		u.Age = in.Age
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	c := *u
	return &c, nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	for lid, l := range m.links {
		if l.UserID == id {
			delete(m.links, lid)
		}
	}
	return nil
}

func (r memAllergies) List(_ context.Context) ([]domain.Allergy, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]domain.Allergy, 0, len(m.allergies))
	for _, a := range m.allergies {
		c := *a
		for _, l := range m.links {
			if l.AllergyID == a.ID {
				c.UserCount++
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memAllergies) FindByID(_ context.Context, id int64) (*domain.Allergy, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.allergies[id]
	if !ok {
		return nil, domain.ErrAllergyNotFound
	}
	c := *a
	return &c, nil
}

func (r memAllergies) Create(_ context.Context, in ports.CreateAllergyInput) (*domain.Allergy, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a := &domain.Allergy{ID: m.id("allergies"), Name: in.Name, Severity: in.Severity, Description: in.Description}
	m.allergies[a.ID] = a
	c := *a
	return &c, nil
}

func (r memAllergies) Update(_ context.Context, id int64, in ports.UpdateAllergyInput) (*domain.Allergy, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.allergies[id]
	if !ok {
		return nil, domain.ErrAllergyNotFound
	}
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Severity != nil {
		a.Severity = *in.Severity
	}
	if in.Description != nil {
		a.Description = in.Description
	}
	c := *a
	return &c, nil
}

func (r memAllergies) Delete(_ context.Context, id int64) error {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.allergies[id]; !ok {
		return domain.ErrAllergyNotFound
	}
	delete(m.allergies, id)
	for lid, l := range m.links {
		if l.AllergyID == id {
			delete(m.links, lid)
		}
	}
	return nil
}

func (r memLinks) Assign(_ context.Context, userID int64, in ports.AssignAllergyInput) (*domain.UserAllergy, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if _, ok := m.users[userID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if _, ok := m.allergies[in.AllergyID]; !ok {
		return nil, domain.ErrAllergyNotFound
	}
	for _, l := range m.links {
		if l.UserID == userID && l.AllergyID == in.AllergyID {
			return nil, domain.ErrAllergyAlreadyAssigned
		}
	}
	l := &domain.UserAllergy{
		ID:            m.id("user_allergies"),
		UserID:        userID,
		AllergyID:     in.AllergyID,
		Notes:         in.Notes,
		DiagnosedDate: in.DiagnosedDate,
	}
	m.links[l.ID] = l
	c := *l
	return &c, nil
}

func (r memLinks) ListAllergiesForUser(_ context.Context, userID int64) ([]domain.UserAllergyDetail, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.UserAllergyDetail{}
	for _, l := range m.links {
		if l.UserID != userID {
			continue
		}
		a := m.allergies[l.AllergyID]
		out = append(out, domain.UserAllergyDetail{
			AllergyID: a.ID, Name: a.Name, Severity: a.Severity, Description: a.Description,
			Notes: l.Notes, DiagnosedDate: l.DiagnosedDate,
		})
	}
	return out, nil
}

func (r memLinks) ListUsersForAllergy(_ context.Context, allergyID int64) ([]domain.AllergyUserDetail, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.AllergyUserDetail{}
	for _, l := range m.links {
		if l.AllergyID != allergyID {
			continue
		}
		u := m.users[l.UserID]
		out = append(out, domain.AllergyUserDetail{
			UserID: u.ID, Name: u.Name, Age: u.Age, Email: u.Email,
			Notes: l.Notes, DiagnosedDate: l.DiagnosedDate,
		})
	}
	return out, nil
}

func (r memLinks) Remove(_ context.Context, userID, allergyID int64) error {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for lid, l := range m.links {
		if l.UserID == userID && l.AllergyID == allergyID {
			delete(m.links, lid)
			return nil
		}
	}
	return domain.ErrAssignmentNotFound
}

func (r memLinks) removeWhere(match func(*domain.UserAllergy) bool) (int64, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for lid, l := range m.links {
		if match(l) {
			delete(m.links, lid)
			n++
		}
	}
	return n, nil
}

func (r memLinks) RemoveAllForUser(_ context.Context, userID int64) (int64, error) {
	return r.removeWhere(func(l *domain.UserAllergy) bool { return l.UserID == userID })
}

func (r memLinks) RemoveAllForAllergy(_ context.Context, allergyID int64) (int64, error) {
	return r.removeWhere(func(l *domain.UserAllergy) bool { return l.AllergyID == allergyID })
}

// pairCount counts relationship rows for a pair; used to assert uniqueness.
func (m *memStore) pairCount(userID, allergyID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.links {
		if l.UserID == userID && l.AllergyID == allergyID {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Side-effect stubs
// ---------------------------------------------------------------------------

type stubNotifier struct {
	events []domain.ChangeEvent
}

func (n *stubNotifier) Enqueue(e domain.ChangeEvent) {
	n.events = append(n.events, e)
}

type stubCache struct {
	entries     map[string][]byte
	gen         int64
	genErr      error
	getErr      error
	invalidated int
	sets        int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Generation(_ context.Context) (int64, error) {
	return c.gen, c.genErr
}

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.sets++
	c.entries[key] = data
	return nil
}

func (c *stubCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.gen++
	c.entries = make(map[string][]byte)
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var errStorage = errors.New("connection refused")

type fixture struct {
	store     *memStore
	notifier  *stubNotifier
	cache     *stubCache
	users     *UserService
	allergies *AllergyService
	links     *RelationshipService
}

func newFixture() *fixture {
	store := newMemStore()
	notifier := &stubNotifier{}
	cache := newStubCache()
	hooks := SideEffects{Cache: cache, Notifier: notifier}
	return &fixture{
		store:     store,
		notifier:  notifier,
		cache:     cache,
		users:     NewUserService(memUsers{store}, memLinks{store}, hooks, discardLogger),
		allergies: NewAllergyService(memAllergies{store}, hooks, discardLogger),
		links:     NewRelationshipService(memUsers{store}, memLinks{store}, hooks, discardLogger),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
