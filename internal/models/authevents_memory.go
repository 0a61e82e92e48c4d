package models

import (
	"context"
	"sync"
	"time"
)

// MemoryAuthEventModel keeps the most recent auth events in memory. It is used when no database is
// configured.
type MemoryAuthEventModel struct {
	Capacity int

	mu     sync.Mutex
	nextID int
	events []*AuthEvent
}

func (m *MemoryAuthEventModel) Insert(_ context.Context, operation, email, code, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.events = append(m.events, &AuthEvent{
		ID:        m.nextID,
		Operation: operation,
		Email:     email,
		Code:      code,
		Message:   message,
		Created:   time.Now().UTC(),
	})

	if m.Capacity > 0 && len(m.events) > m.Capacity {
		m.events = m.events[len(m.events)-m.Capacity:]
	}

	return nil
}

// Latest returns up to limit events, newest first.
func (m *MemoryAuthEventModel) Latest(_ context.Context, limit int) ([]*AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []*AuthEvent
	for i := len(m.events) - 1; i >= 0 && len(events) < limit; i-- {
		e := *m.events[i]
		events = append(events, &e)
	}

	return events, nil
}
