package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
)

// DefaultEndpoint is the public Identity Toolkit API host.
const DefaultEndpoint = "https://identitytoolkit.googleapis.com"

const maxErrorBodyBytes = 64 << 10

// firebaseErrorCodes maps Identity Toolkit REST error messages to the codes the client SDK reports.
var firebaseErrorCodes = map[string]string{
	"EMAIL_EXISTS":                CodeEmailAlreadyInUse,
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"MISSING_PASSWORD":            CodeMissingPassword,
	"USER_DISABLED":               CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
	"OPERATION_NOT_ALLOWED":       CodeOperationNotAllowed,
}

// FirebaseConfig configures a FirebaseProvider.
type FirebaseConfig struct {
	// APIKey is the web API key of the Firebase project. Required.
	APIKey string

	// Endpoint overrides DefaultEndpoint, e.g. to point at the auth emulator.
	Endpoint string

	// HTTPClient defaults to a pooled go-cleanhttp client.
	HTTPClient *http.Client

	// Logger defaults to a null logger.
	Logger hclog.Logger
}

// FirebaseProvider implements Provider with the Identity Toolkit v1 REST API.
type FirebaseProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   hclog.Logger
}

var _ Provider = (*FirebaseProvider)(nil)

func NewFirebaseProvider(cfg FirebaseConfig) (*FirebaseProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("firebase api key must not be empty")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid identity endpoint: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &FirebaseProvider{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
		logger:   logger.Named("firebase"),
	}, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	return p.passwordCall(ctx, OpSignUp, "accounts:signUp", email, password)
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	return p.passwordCall(ctx, OpSignIn, "accounts:signInWithPassword", email, password)
}

// SignOut succeeds without a network call: signing out of Firebase only discards the client's copy of the
// token, which the caller does by clearing the cookie.
func (p *FirebaseProvider) SignOut(ctx context.Context, token string) error {
	p.logger.Debug("sign out", "has_token", token != "")
	return nil
}

func (p *FirebaseProvider) passwordCall(ctx context.Context, op, method, email, password string) (*Credential, error) {
	body, err := json.Marshal(passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op, err)
	}

	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", p.endpoint, method, url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("identity toolkit request failed", "op", op, "error", err)
		return nil, &ProviderCallFailure{Op: op, Code: CodeNetworkRequestFailed, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeFailure(op, resp)
	}

	var pr passwordResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, &ProviderCallFailure{Op: op, Code: CodeInternalError, Message: "malformed response: " + err.Error()}
	}
	if pr.IDToken == "" {
		return nil, &ProviderCallFailure{Op: op, Code: CodeInternalError, Message: "response carried no id token"}
	}

	cred := &Credential{
		UserID:       pr.LocalID,
		Email:        pr.Email,
		IDToken:      pr.IDToken,
		RefreshToken: pr.RefreshToken,
	}
	if secs, err := strconv.Atoi(pr.ExpiresIn); err == nil {
		cred.ExpiresIn = time.Duration(secs) * time.Second
	}

	p.logger.Debug("identity toolkit call succeeded", "op", op, "uid", cred.UserID)

	return cred, nil
}

// decodeFailure turns an Identity Toolkit error body such as
// {"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}
// into a ProviderCallFailure.
func decodeFailure(op string, resp *http.Response) *ProviderCallFailure {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &ProviderCallFailure{Op: op, Code: CodeNetworkRequestFailed, Message: err.Error()}
	}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil || er.Error.Message == "" {
		return &ProviderCallFailure{Op: op, Code: CodeInternalError, Message: resp.Status}
	}

	key, detail, _ := strings.Cut(er.Error.Message, ":")
	key = strings.TrimSpace(key)
	detail = strings.TrimSpace(detail)

	code, ok := firebaseErrorCodes[key]
	if !ok {
		code = CodeInternalError
		detail = er.Error.Message
	}
	if detail == "" {
		detail = key
	}

	return &ProviderCallFailure{Op: op, Code: code, Message: detail}
}
