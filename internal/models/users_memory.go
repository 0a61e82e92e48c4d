package models

import (
	"context"
	"sync"
)

// MemoryUserModel keeps user documents in memory. It is used when no Firestore project is configured.
type MemoryUserModel struct {
	mu    sync.Mutex
	users map[string]*User
}

// lookup returns the stored document for uid, creating it if needed. The caller must hold m.mu.
func (m *MemoryUserModel) lookup(uid string) *User {
	if m.users == nil {
		m.users = make(map[string]*User)
	}

	u, ok := m.users[uid]
	if !ok {
		u = newUser(uid)
		m.users[uid] = u
	}

	return u
}

// Put replaces the stored document for user.ID.
func (m *MemoryUserModel) Put(user *User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookup(user.ID)
	u := *user
	u.Addresses = append([]Address{}, user.Addresses...)
	m.users[user.ID] = &u
}

func (m *MemoryUserModel) Get(_ context.Context, uid string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := *m.lookup(uid)
	u.Addresses = append([]Address{}, u.Addresses...)

	return &u, nil
}

func (m *MemoryUserModel) AddAddress(_ context.Context, uid string, address Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.lookup(uid)
	u.Addresses = append(u.Addresses, address)

	return nil
}

func (m *MemoryUserModel) DeleteAddress(_ context.Context, uid string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.lookup(uid)
	if index < 0 || index >= len(u.Addresses) {
		return ErrNoRecord
	}
	u.Addresses = append(u.Addresses[:index], u.Addresses[index+1:]...)

	return nil
}
