package mocks

import (
	"context"
	"time"

	"github.com/mabego/firebase-login/internal/models"
)

// AuthEventModel records inserted events so tests can inspect the diagnostic channel.
type AuthEventModel struct {
	models.MemoryAuthEventModel
}

// newMockAuthEvent creates an instance of the AuthEvent struct with mock data.
func newMockAuthEvent() *models.AuthEvent {
	return &models.AuthEvent{
		ID:        1,
		Operation: "sign-in",
		Email:     "alice@example.com",
		Code:      "auth/wrong-password",
		Message:   "The password is invalid or the user does not have a password.",
		Created:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Seed adds the mock event.
func (m *AuthEventModel) Seed(ctx context.Context) error {
	e := newMockAuthEvent()
	return m.Insert(ctx, e.Operation, e.Email, e.Code, e.Message)
}

// Events returns every recorded event, newest first.
func (m *AuthEventModel) Events() []*models.AuthEvent {
	events, _ := m.Latest(context.Background(), int(^uint(0)>>1))
	return events
}
