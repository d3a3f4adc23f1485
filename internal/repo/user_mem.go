package repo

import (
	"strconv"
	"sync"

	"example.com/userdesk/internal/core"
)

// UserMem is the in-memory store behind the mock backend. Ids are decimal
// strings from a counter and are never reused; List returns insertion order.
type UserMem struct {
	mu     sync.RWMutex
	users  map[string]core.User
	order  []string
	nextID int
}

func NewUserMem(seed ...core.User) *UserMem {
	r := &UserMem{users: map[string]core.User{}, nextID: 1}
	for _, u := range seed {
		r.Create(u)
	}
	return r
}

// SampleUsers seeds the mock backend when nothing else is given.
func SampleUsers() []core.User {
	return []core.User{
		{FirstName: "Asha", LastName: "Rao", Email: "asha.rao@example.com", Phone: "9876543210", Role: "admin"},
		{FirstName: "John", LastName: "Doe", Email: "john.doe@example.com", Phone: "1234567890", Role: "user"},
	}
}

func (r *UserMem) List() []core.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out
}

func (r *UserMem) ByID(id string) (core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

// Create stores u under a fresh id, ignoring any id it carries.
func (r *UserMem) Create(u core.User) core.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.ID = strconv.Itoa(r.nextID)
	r.nextID++
	r.users[u.ID] = u
	r.order = append(r.order, u.ID)
	return u
}

// Replace overwrites the record at id. The stored id is always id.
func (r *UserMem) Replace(id string, u core.User) (core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return core.User{}, core.ErrNotFound
	}
	u.ID = id
	r.users[id] = u
	return u, nil
}

func (r *UserMem) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.users, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *UserMem) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
