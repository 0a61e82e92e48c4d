package main

import (
	"bytes"
	"html"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	identitymocks "github.com/mabego/firebase-login/internal/identity/mocks"
	"github.com/mabego/firebase-login/internal/models/mocks"
)

// csrfTokenRX captures the CSRF token value from the home page.
var csrfTokenRX = regexp.MustCompile(`<input type='hidden' name='csrf_token' value='(.+?)'>`)

func extractCSRFToken(t *testing.T, body string) string {
	t.Helper()

	// FindStringSubmatch returns an array with the entire matched pattern at index 0,
	// and the values of any captured data in the subsequent indices.
	matches := csrfTokenRX.FindStringSubmatch(body)
	if len(matches) < 2 {
		t.Fatal("no csrf token found in body")
	}

	return html.UnescapeString(matches[1])
}

// syncBuffer is a bytes.Buffer safe for the server goroutines that log into it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testApplication bundles the application with the mocks it was built from, so tests can inspect them.
type testApplication struct {
	*application
	errorBuf   *syncBuffer
	mockEvents *mocks.AuthEventModel
	mockUsers  *mocks.UserModel
}

// newTestApplication creates an instance of the application struct with mock data.
func newTestApplication(t *testing.T) *testApplication {
	t.Helper()

	templateCache, err := newTemplateCache()
	if err != nil {
		t.Fatal(err)
	}

	formDecoder := form.NewDecoder()

	sessionManager := scs.New()
	sessionManager.Lifetime = SessionLifetime
	sessionManager.Cookie.Secure = true

	errorBuf := new(syncBuffer)
	authEvents := &mocks.AuthEventModel{}
	users := mocks.NewUserModel(identitymocks.MockUserID)

	return &testApplication{
		application: &application{
			errorLog:       log.New(errorBuf, "", 0),
			infoLog:        log.New(io.Discard, "", 0),
			provider:       &identitymocks.Provider{},
			verifier:       &identitymocks.Verifier{},
			users:          users,
			authEvents:     authEvents,
			templateCache:  templateCache,
			formDecoder:    formDecoder,
			sessionManager: sessionManager,
		},
		errorBuf:   errorBuf,
		mockEvents: authEvents,
		mockUsers:  users,
	}
}

// A custom testServer type that embeds an httptest.Server instance.
type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	t.Helper()

	ts := httptest.NewTLSServer(h)
	t.Cleanup(ts.Close)

	// Any response cookies will now be stored and sent with test server client requests.
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	ts.Client().Jar = jar

	// Disable redirect-following for the test server client by setting a custom CheckRedirect function that uses an
	// http.ErrUseLastResponse error to force the client to return the received response.
	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &testServer{ts}
}

// ts.get makes a GET request to a given url path using the test server client and returns the response
// status code, headers, and body.
func (ts *testServer) get(t *testing.T, urlPath string) (int, http.Header, string) {
	t.Helper()

	rs, err := ts.Client().Get(ts.URL + urlPath)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}

	return rs.StatusCode, rs.Header, string(bytes.TrimSpace(body))
}

// postForm sends POST requests to the test server.
// The "form" parameter is a url.Values object that can contain any form data to send to the request body.
func (ts *testServer) postForm(t *testing.T, urlPath string, form url.Values) (int, http.Header, string) {
	t.Helper()

	rs, err := ts.Client().PostForm(ts.URL+urlPath, form)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}

	return rs.StatusCode, rs.Header, string(bytes.TrimSpace(body))
}

// setToken stores a token cookie in the client's jar, as a prior sign-in would have.
func (ts *testServer) setToken(t *testing.T, token string) {
	t.Helper()

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}

	ts.Client().Jar.SetCookies(u, []*http.Cookie{{Name: "token", Value: token, Path: "/"}})
}

// tokenCookie returns the token cookie set by a response, or nil.
func tokenCookie(header http.Header) *http.Cookie {
	rs := http.Response{Header: header}
	for _, c := range rs.Cookies() {
		if c.Name == "token" {
			return c
		}
	}

	return nil
}
