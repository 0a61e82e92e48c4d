package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultLocalProject = "local-dev"
	DefaultTokenTTL     = time.Hour

	localIssuerPrefix = "local-identity/"
	minPasswordChars  = 6
	signingKeyBytes   = 32
)

// LocalConfig configures a LocalProvider. The zero value is usable.
type LocalConfig struct {
	// ProjectID is used as the token audience. Defaults to DefaultLocalProject.
	ProjectID string

	// TokenTTL defaults to DefaultTokenTTL.
	TokenTTL time.Duration

	// SigningKey signs HS256 ID tokens. A random key is generated when empty.
	SigningKey []byte

	// Now defaults to time.Now.
	Now func() time.Time

	Logger hclog.Logger
}

type localUser struct {
	id             string
	email          string
	hashedPassword []byte
}

// LocalProvider is an in-memory Provider and Verifier with the same failure codes as Firebase.
type LocalProvider struct {
	mu     sync.RWMutex
	users  map[string]*localUser
	key    []byte
	issuer string
	aud    string
	ttl    time.Duration
	now    func() time.Time
	logger hclog.Logger
}

var (
	_ Provider = (*LocalProvider)(nil)
	_ Verifier = (*LocalProvider)(nil)
)

type localClaims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	project := cfg.ProjectID
	if project == "" {
		project = DefaultLocalProject
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	key := cfg.SigningKey
	if len(key) == 0 {
		var err error
		key, err = uuid.GenerateRandomBytes(signingKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generating signing key: %w", err)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &LocalProvider{
		users:  make(map[string]*localUser),
		key:    key,
		issuer: localIssuerPrefix + project,
		aud:    project,
		ttl:    ttl,
		now:    now,
		logger: logger.Named("local"),
	}, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	email = normalizeEmail(email)

	switch {
	case !strings.Contains(email, "@"):
		return nil, &ProviderCallFailure{Op: OpSignUp, Code: CodeInvalidEmail, Message: "The email address is badly formatted."}
	case password == "":
		return nil, &ProviderCallFailure{Op: OpSignUp, Code: CodeMissingPassword, Message: "A password is required."}
	case utf8.RuneCountInString(password) < minPasswordChars:
		return nil, &ProviderCallFailure{Op: OpSignUp, Code: CodeWeakPassword, Message: "Password should be at least 6 characters"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &ProviderCallFailure{Op: OpSignUp, Code: CodeInternalError, Message: err.Error()}
	}

	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, &ProviderCallFailure{Op: OpSignUp, Code: CodeInternalError, Message: err.Error()}
	}

	p.mu.Lock()
	if _, exists := p.users[email]; exists {
		p.mu.Unlock()
		return nil, &ProviderCallFailure{Op: OpSignUp, Code: CodeEmailAlreadyInUse, Message: "The email address is already in use by another account."}
	}
	user := &localUser{id: id, email: email, hashedPassword: hashed}
	p.users[email] = user
	p.mu.Unlock()

	p.logger.Info("user created", "uid", id)

	return p.credential(OpSignUp, user)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	email = normalizeEmail(email)

	if password == "" {
		return nil, &ProviderCallFailure{Op: OpSignIn, Code: CodeMissingPassword, Message: "A password is required."}
	}

	p.mu.RLock()
	user, ok := p.users[email]
	p.mu.RUnlock()

	if !ok {
		return nil, &ProviderCallFailure{Op: OpSignIn, Code: CodeUserNotFound, Message: "There is no user record corresponding to this identifier."}
	}

	err := bcrypt.CompareHashAndPassword(user.hashedPassword, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, &ProviderCallFailure{Op: OpSignIn, Code: CodeWrongPassword, Message: "The password is invalid or the user does not have a password."}
		}
		return nil, &ProviderCallFailure{Op: OpSignIn, Code: CodeInternalError, Message: err.Error()}
	}

	return p.credential(OpSignIn, user)
}

// SignOut always succeeds; issued tokens stay valid until they expire, as with Firebase.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	return nil
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var lc localClaims
	_, err := jwt.ParseWithClaims(token, &lc, func(*jwt.Token) (any, error) {
		return p.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.aud),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	return &Claims{UserID: lc.UserID, Email: lc.Email}, nil
}

func (p *LocalProvider) credential(op string, user *localUser) (*Credential, error) {
	issued := p.now()

	claims := localClaims{
		Email:  user.email,
		UserID: user.id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   user.id,
			Audience:  jwt.ClaimStrings{p.aud},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(p.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return nil, &ProviderCallFailure{Op: op, Code: CodeInternalError, Message: err.Error()}
	}

	refresh, err := uuid.GenerateUUID()
	if err != nil {
		return nil, &ProviderCallFailure{Op: op, Code: CodeInternalError, Message: err.Error()}
	}

	return &Credential{
		UserID:       user.id,
		Email:        user.email,
		IDToken:      signed,
		RefreshToken: refresh,
		ExpiresIn:    p.ttl,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
