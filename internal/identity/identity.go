// Package identity talks to the external identity provider that authenticates users by email and password
// and issues the bearer tokens the web application stores in its token cookie.
//
// Two providers are available. FirebaseProvider calls the Firebase Identity Toolkit REST API and is paired
// with FirebaseVerifier, which checks Firebase ID tokens against Google's published signing keys.
// LocalProvider keeps users in memory and signs its own tokens; it stands in for Firebase during
// development and in tests.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoToken      = errors.New("identity: no token")
	ErrInvalidToken = errors.New("identity: invalid token")
)

// Operation names used in ProviderCallFailure and in the diagnostic log.
const (
	OpSignUp  = "sign-up"
	OpSignIn  = "sign-in"
	OpSignOut = "sign-out"
)

// Failure codes, in the form the Firebase client SDK reports them.
const (
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeUserNotFound         = "auth/user-not-found"
	CodeWrongPassword        = "auth/wrong-password"
	CodeInvalidCredential    = "auth/invalid-credential"
	CodeInvalidEmail         = "auth/invalid-email"
	CodeWeakPassword         = "auth/weak-password"
	CodeMissingPassword      = "auth/missing-password"
	CodeUserDisabled         = "auth/user-disabled"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodeOperationNotAllowed  = "auth/operation-not-allowed"
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeInternalError        = "auth/internal-error"
)

// Provider performs the three account operations the login page offers.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Credential, error)
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	SignOut(ctx context.Context, token string) error
}

// Verifier checks a bearer token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Credential is the result of a successful sign-up or sign-in.
type Credential struct {
	UserID       string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Claims is the verified content of an ID token.
type Claims struct {
	UserID string
	Email  string
}

// ProviderCallFailure is the only error kind a Provider returns for a rejected call.
type ProviderCallFailure struct {
	Op      string
	Code    string
	Message string
}

func (e *ProviderCallFailure) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// AsFailure unwraps err into a ProviderCallFailure. Errors of any other kind are reported as an internal
// error for the given operation.
func AsFailure(op string, err error) *ProviderCallFailure {
	var failure *ProviderCallFailure
	if errors.As(err, &failure) {
		return failure
	}

	return &ProviderCallFailure{Op: op, Code: CodeInternalError, Message: err.Error()}
}
