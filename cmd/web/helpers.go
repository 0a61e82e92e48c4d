package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/justinas/nosurf"
	"github.com/mabego/firebase-login/internal/cookieauth"
	"github.com/mabego/firebase-login/internal/identity"
)

var ErrNoTmpl = errors.New("template does not exist")

// serverError helper writes an error message and a stack trace to the errorLog,
// then sends a generic 500 Internal Server Error response to the user.
func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	app.errorLog.Output(2, trace)

	if app.debug {
		http.Error(w, trace, http.StatusInternalServerError)
		return
	}

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// clientError helper sends a specific status code and its description to the user.
func (app *application) clientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// notFound helper is a wrapper around clientError that sends a 404 Not Found response to the user.
func (app *application) notFound(w http.ResponseWriter) {
	app.clientError(w, http.StatusNotFound)
}

func (app *application) render(w http.ResponseWriter, status int, page string, data *templateData) {
	ts, ok := app.templateCache[page]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoTmpl, page)
		app.serverError(w, err)
		return
	}

	buf := new(bytes.Buffer)

	// Execute the template set and write the template to the buffer instead of the response body.
	err := ts.ExecuteTemplate(buf, "base", data)
	if err != nil {
		app.serverError(w, err)
		return
	}

	w.WriteHeader(status)

	_, err = buf.WriteTo(w)
	if err != nil {
		app.serverError(w, err)
		return
	}
}

// newTemplateData derives the visible panel from the request's token cookie. Whether the token verifies
// does not matter here: a present token always shows the sign-out control.
func (app *application) newTemplateData(r *http.Request) *templateData {
	loginBox := &cookieauth.Panel{ID: "login-box"}
	signOut := &cookieauth.Panel{ID: "sign-out"}
	cookieauth.UpdateUI(requestCookie(r), loginBox, signOut)

	return &templateData{
		CurrentYear:     time.Now().Year(),
		Flash:           app.sessionManager.PopString(r.Context(), "flash"),
		CSRFToken:       nosurf.Token(r),
		LoginBox:        loginBox,
		SignOut:         signOut,
		IsAuthenticated: app.isAuthenticated(r),
		Claims:          app.claims(r),
	}
}

func (app *application) decodePostForm(r *http.Request, dst any) error {
	err := r.ParseForm()
	if err != nil {
		return err
	}

	err = app.formDecoder.Decode(dst, r.PostForm)
	if err != nil {
		// Check for a non-nil pointer through the error InvalidDecoderError
		var invalidDecoderError *form.InvalidDecoderError

		if errors.As(err, &invalidDecoderError) {
			panic(err)
		}

		return fmt.Errorf("form decoding error: %w", err)
	}

	return nil
}

func (app *application) isAuthenticated(r *http.Request) bool {
	return app.claims(r) != nil
}

// claims returns the verified token claims stored by the authenticate middleware, or nil.
func (app *application) claims(r *http.Request) *identity.Claims {
	claims, ok := r.Context().Value(claimsContextKey).(*identity.Claims)
	if !ok {
		return nil
	}

	return claims
}

// recordAuthEvent writes the outcome of a provider call to the diagnostic channel. A provider failure is
// logged with its code and message; nothing about it is shown to the user.
func (app *application) recordAuthEvent(r *http.Request, op, email string, callErr error) {
	var code, message string

	if callErr != nil {
		failure := identity.AsFailure(op, callErr)
		code, message = failure.Code, failure.Message
		app.errorLog.Printf("%s failed for %q: %s %s", op, email, code, message)
	} else {
		app.infoLog.Printf("%s succeeded for %q", op, email)
	}

	err := app.authEvents.Insert(r.Context(), op, email, code, message)
	if err != nil {
		app.errorLog.Printf("recording %s event: %v", op, err)
	}
}

// requestCookie returns the raw cookie header, as document.cookie would read it.
func requestCookie(r *http.Request) string {
	return cookieauth.RequestCookies{R: r}.Cookie()
}
