package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens.
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"
)

// FirebaseVerifier checks Firebase ID tokens: RS256 signature against Google's key set, issuer
// https://securetoken.google.com/<project>, audience <project>, and expiry.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*FirebaseVerifier)(nil)

// NewFirebaseVerifier returns a verifier for tokens issued to projectID. An empty jwksURL selects
// FirebaseJWKSURL. The key set is fetched lazily with client, or a pooled go-cleanhttp client when nil.
func NewFirebaseVerifier(ctx context.Context, projectID, jwksURL string, client *http.Client) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("firebase project id must not be empty")
	}
	if jwksURL == "" {
		jwksURL = FirebaseJWKSURL
	}
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}

	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(ctx, client), jwksURL)

	return &FirebaseVerifier{
		verifier: oidc.NewVerifier(firebaseIssuerPrefix+projectID, keySet, &oidc.Config{
			ClientID:             projectID,
			SupportedSigningAlgs: []string{oidc.RS256},
		}),
	}, nil
}

type firebaseClaims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	var fc firebaseClaims
	if err := idToken.Claims(&fc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	uid := fc.UserID
	if uid == "" {
		uid = idToken.Subject
	}

	return &Claims{UserID: uid, Email: fc.Email}, nil
}
