package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mabego/firebase-login/internal/assert"
	"github.com/mabego/firebase-login/internal/identity"
	identitymocks "github.com/mabego/firebase-login/internal/identity/mocks"
)

func TestSecureHeaders(t *testing.T) {
	rr := httptest.NewRecorder()

	r, err := http.NewRequest(http.MethodGet, "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Create a mock HTTP handler to pass to the secureHeaders middleware that writes status code 200
	// and an "OK" response body.
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	secureHeaders(next).ServeHTTP(rr, r)

	rs := rr.Result()

	expectedCSP := "default-src 'self'; style-src 'self' fonts.googleapis.com; font-src fonts.gstatic.com"
	assert.Equal(t, rs.Header.Get("Content-Security-Policy"), expectedCSP)

	expectedRP := "origin-when-cross-origin"
	assert.Equal(t, rs.Header.Get("Referrer-Policy"), expectedRP)

	expectedXCTO := "nosniff"
	assert.Equal(t, rs.Header.Get("X-Content-Type-Options"), expectedXCTO)

	expectedXFO := "deny"
	assert.Equal(t, rs.Header.Get("X-Frame-Options"), expectedXFO)

	expectedXXP := "0"
	assert.Equal(t, rs.Header.Get("X-XSS-Protection"), expectedXXP)

	assert.Equal(t, rs.StatusCode, http.StatusOK)

	defer rs.Body.Close()
	body, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, string(bytes.TrimSpace(body)), "OK")
}

// failingVerifier fails every verification with an error other than an invalid token.
type failingVerifier struct{}

func (failingVerifier) Verify(context.Context, string) (*identity.Claims, error) {
	return nil, io.ErrUnexpectedEOF
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name      string
		cookie    string
		verifier  identity.Verifier
		wantCode  int
		wantUser  string
		wantAuthn bool
	}{
		{name: "No cookie", verifier: &identitymocks.Verifier{}, wantCode: http.StatusOK},
		{name: "Empty token", cookie: "token=", verifier: &identitymocks.Verifier{}, wantCode: http.StatusOK},
		{
			name:      "Valid token",
			cookie:    "theme=dark; token=" + identitymocks.MockToken,
			verifier:  &identitymocks.Verifier{},
			wantCode:  http.StatusOK,
			wantUser:  identitymocks.MockUserID,
			wantAuthn: true,
		},
		{name: "Invalid token", cookie: "token=forged", verifier: &identitymocks.Verifier{}, wantCode: http.StatusOK},
		{name: "Verifier error", cookie: "token=forged", verifier: failingVerifier{}, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t)
			app.verifier = tt.verifier

			var (
				gotAuthn bool
				gotUser  string
			)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuthn = app.isAuthenticated(r)
				if claims := app.claims(r); claims != nil {
					gotUser = claims.UserID
				}
			})

			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.Header.Set("Cookie", tt.cookie)
			}

			app.authenticate(next).ServeHTTP(rr, r)

			assert.Equal(t, rr.Code, tt.wantCode)
			assert.Equal(t, gotAuthn, tt.wantAuthn)
			assert.Equal(t, gotUser, tt.wantUser)
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	app.recoverPanic(next).ServeHTTP(rr, r)

	assert.Equal(t, rr.Code, http.StatusInternalServerError)
	assert.Equal(t, rr.Header().Get("Connection"), "close")
	assert.StringContains(t, app.errorBuf.String(), "recovered: boom")
}
