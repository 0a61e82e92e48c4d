package mocks

import (
	"context"

	"github.com/mabego/firebase-login/internal/identity"
)

const (
	MockEmail    = "alice@example.com"
	MockPassword = "pa$$word"
	MockToken    = "tok-1"
	MockUserID   = "uid-1"
)

// Provider accepts a single existing account and rejects everything else the way Firebase does.
type Provider struct {
	SignOutErr error
}

func (p *Provider) SignUp(_ context.Context, email, password string) (*identity.Credential, error) {
	switch email {
	case MockEmail:
		return nil, &identity.ProviderCallFailure{
			Op:      identity.OpSignUp,
			Code:    identity.CodeEmailAlreadyInUse,
			Message: "The email address is already in use by another account.",
		}
	default:
		return &identity.Credential{UserID: "uid-2", Email: email, IDToken: "tok-2"}, nil
	}
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*identity.Credential, error) {
	switch {
	case email != MockEmail:
		return nil, &identity.ProviderCallFailure{
			Op:      identity.OpSignIn,
			Code:    identity.CodeUserNotFound,
			Message: "There is no user record corresponding to this identifier.",
		}
	case password != MockPassword:
		return nil, &identity.ProviderCallFailure{
			Op:      identity.OpSignIn,
			Code:    identity.CodeWrongPassword,
			Message: "The password is invalid or the user does not have a password.",
		}
	default:
		return &identity.Credential{UserID: MockUserID, Email: MockEmail, IDToken: MockToken}, nil
	}
}

func (p *Provider) SignOut(context.Context, string) error {
	return p.SignOutErr
}

// Verifier accepts MockToken only.
type Verifier struct{}

func (v *Verifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	switch token {
	case "":
		return nil, identity.ErrNoToken
	case MockToken:
		return &identity.Claims{UserID: MockUserID, Email: MockEmail}, nil
	default:
		return nil, identity.ErrInvalidToken
	}
}
