package models

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultUserName is given to a user document created on first sign-in.
const DefaultUserName = "John Doe"

type UserModelInterface interface {
	Get(ctx context.Context, uid string) (*User, error)
	AddAddress(ctx context.Context, uid string, address Address) error
	DeleteAddress(ctx context.Context, uid string, index int) error
}

type Address struct {
	Address1 string `firestore:"address1"`
	Address2 string `firestore:"address2"`
	Address3 string `firestore:"address3"`
	Address4 string `firestore:"address4"`
}

// User is the Firestore document kept per identity provider user ID.
type User struct {
	ID        string    `firestore:"-"`
	Name      string    `firestore:"name"`
	Addresses []Address `firestore:"address_list"`
}

func newUser(uid string) *User {
	return &User{ID: uid, Name: DefaultUserName, Addresses: []Address{}}
}

// UserModel wraps a Firestore client
type UserModel struct {
	Client     *firestore.Client
	Collection string
}

func (m *UserModel) doc(uid string) *firestore.DocumentRef {
	return m.Client.Collection(m.Collection).Doc(uid)
}

// Get returns the user document, creating it with default values on the first visit.
func (m *UserModel) Get(ctx context.Context, uid string) (*User, error) {
	snap, err := m.doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		user := newUser(uid)
		if _, err := m.doc(uid).Set(ctx, user); err != nil {
			return nil, fmt.Errorf("creating user %s: %w", uid, err)
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", uid, err)
	}

	return decodeUser(uid, snap)
}

func (m *UserModel) AddAddress(ctx context.Context, uid string, address Address) error {
	return m.update(ctx, uid, func(user *User) error {
		user.Addresses = append(user.Addresses, address)
		return nil
	})
}

func (m *UserModel) DeleteAddress(ctx context.Context, uid string, index int) error {
	return m.update(ctx, uid, func(user *User) error {
		if index < 0 || index >= len(user.Addresses) {
			return ErrNoRecord
		}
		user.Addresses = append(user.Addresses[:index], user.Addresses[index+1:]...)
		return nil
	})
}

// update runs fn against the current document inside a transaction so that concurrent edits of the
// address list from several sessions of the same user are serialized.
func (m *UserModel) update(ctx context.Context, uid string, fn func(*User) error) error {
	ref := m.doc(uid)

	return m.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var user *User

		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			user = newUser(uid)
		case err != nil:
			return err
		default:
			user, err = decodeUser(uid, snap)
			if err != nil {
				return err
			}
		}

		if err := fn(user); err != nil {
			return err
		}

		return tx.Set(ref, user)
	})
}

func decodeUser(uid string, snap *firestore.DocumentSnapshot) (*User, error) {
	user := &User{}
	if err := snap.DataTo(user); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", uid, err)
	}

	user.ID = uid
	if user.Addresses == nil {
		user.Addresses = []Address{}
	}

	return user, nil
}
