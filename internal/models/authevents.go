package models

import (
	"context"
	"database/sql"
	"time"
)

type AuthEventModelInterface interface {
	Insert(ctx context.Context, operation, email, code, message string) error
	Latest(ctx context.Context, limit int) ([]*AuthEvent, error)
}

// AuthEvent records the outcome of a call to the identity provider. Code and Message are empty on success.
type AuthEvent struct {
	ID        int
	Operation string
	Email     string
	Code      string
	Message   string
	Created   time.Time
}

// Failed reports whether the provider rejected the call.
func (e *AuthEvent) Failed() bool {
	return e.Code != ""
}

// AuthEventModel wraps a database connection pool
type AuthEventModel struct {
	DB *sql.DB
}

func (m *AuthEventModel) Insert(ctx context.Context, operation, email, code, message string) error {
	statement := `INSERT INTO auth_events (operation, email, code, message, created)
VALUES(?, ?, ?, ?, UTC_TIMESTAMP())`

	_, err := m.DB.ExecContext(ctx, statement, operation, email, code, message)
	return err
}

func (m *AuthEventModel) Latest(ctx context.Context, limit int) ([]*AuthEvent, error) {
	query := `SELECT id, operation, email, code, message, created FROM auth_events ORDER BY id DESC LIMIT ?`

	rows, err := m.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AuthEvent

	for rows.Next() {
		e := &AuthEvent{}
		err = rows.Scan(&e.ID, &e.Operation, &e.Email, &e.Code, &e.Message, &e.Created)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	// Call rows.Err after the rows.Next loop to retrieve any error encountered during the iteration.
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
