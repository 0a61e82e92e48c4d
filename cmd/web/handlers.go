package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mabego/firebase-login/internal/cookieauth"
	"github.com/mabego/firebase-login/internal/identity"
	"github.com/mabego/firebase-login/internal/models"
	"github.com/mabego/firebase-login/internal/validator"
)

const (
	AddressMaxChars  = 255
	AuthEventsListed = 50
)

// The struct tags tell the go-playground/form decoder how to map HTML form values into the different struct fields.
// The struct tag `form:"-"` tells the decoder to completely ignore a field during decoding.
type userAuthForm struct {
	Email               string `form:"email"`
	Password            string `form:"password"`
	validator.Validator `form:"-"`
}

type addressForm struct {
	Address1            string `form:"address1"`
	Address2            string `form:"address2"`
	Address3            string `form:"address3"`
	Address4            string `form:"address4"`
	validator.Validator `form:"-"`
}

type addressDeleteForm struct {
	Index int `form:"index"`
}

// passwordCall is the shape shared by identity.Provider's SignUp and SignIn.
type passwordCall func(ctx context.Context, email, password string) (*identity.Credential, error)

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(r)
	data.Form = userAuthForm{}

	err := app.loadUser(r, data)
	if err != nil {
		app.serverError(w, err)
		return
	}

	app.render(w, http.StatusOK, "home.page.tmpl", data)
}

// loadUser attaches the user document when the request carries a verified token.
func (app *application) loadUser(r *http.Request, data *templateData) error {
	if data.Claims == nil {
		return nil
	}

	user, err := app.users.Get(r.Context(), data.Claims.UserID)
	if err != nil {
		return err
	}

	data.User = user
	return nil
}

func (app *application) userSignupPost(w http.ResponseWriter, r *http.Request) {
	app.passwordAuth(w, r, identity.OpSignUp, app.provider.SignUp)
}

func (app *application) userLoginPost(w http.ResponseWriter, r *http.Request) {
	app.passwordAuth(w, r, identity.OpSignIn, app.provider.SignIn)
}

// passwordAuth sends the submitted credentials to the identity provider. Only on success is the token
// cookie written and the browser sent back to the root page; a rejected call re-renders the page as it was.
func (app *application) passwordAuth(w http.ResponseWriter, r *http.Request, op string, call passwordCall) {
	var form userAuthForm

	err := app.decodePostForm(r, &form)
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.CheckField(validator.NotBlank(form.Email), "email", "This field cannot be blank")
	form.CheckField(validator.Matches(form.Email, validator.EmailRX), "email",
		"This field must be a valid email address")
	form.CheckField(validator.NotBlank(form.Password), "password", "This field cannot be blank")

	if !form.Valid() {
		app.renderHome(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	cred, err := call(r.Context(), form.Email, form.Password)
	app.recordAuthEvent(r, op, form.Email, err)
	if err != nil {
		app.renderHome(w, r, http.StatusUnprocessableEntity, userAuthForm{Email: form.Email})
		return
	}

	// RenewToken changes the current session ID when the authentication state changes.
	err = app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, err)
		return
	}

	cookieauth.HandleAuthSuccess(cookieauth.RequestCookies{W: w, R: r}, cookieauth.Redirector{W: w, R: r}, cred.IDToken)
}

func (app *application) userLogoutPost(w http.ResponseWriter, r *http.Request) {
	var email string
	if claims := app.claims(r); claims != nil {
		email = claims.Email
	}

	err := app.provider.SignOut(r.Context(), cookieauth.ParseCookieToken(requestCookie(r)))
	app.recordAuthEvent(r, identity.OpSignOut, email, err)
	if err != nil {
		app.renderHome(w, r, http.StatusUnprocessableEntity, userAuthForm{})
		return
	}

	err = app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "You've been signed out successfully!")

	cookieauth.HandleSignOut(cookieauth.RequestCookies{W: w, R: r}, cookieauth.Redirector{W: w, R: r})
}

// renderHome redisplays the home page with the given form, leaving cookies untouched.
func (app *application) renderHome(w http.ResponseWriter, r *http.Request, status int, form any) {
	data := app.newTemplateData(r)
	data.Form = form

	err := app.loadUser(r, data)
	if err != nil {
		app.serverError(w, err)
		return
	}

	app.render(w, status, "home.page.tmpl", data)
}

func (app *application) addressAddPost(w http.ResponseWriter, r *http.Request) {
	var form addressForm

	err := app.decodePostForm(r, &form)
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.CheckField(validator.NotBlank(form.Address1), "address1", "This field cannot be blank")
	for key, value := range map[string]string{
		"address1": form.Address1,
		"address2": form.Address2,
		"address3": form.Address3,
		"address4": form.Address4,
	} {
		form.CheckField(validator.MaxChars(value, AddressMaxChars), key,
			fmt.Sprintf("This field cannot be more than %d characters long", AddressMaxChars))
	}

	if !form.Valid() {
		data := app.newTemplateData(r)
		data.Form = userAuthForm{}
		data.AddressForm = form

		err := app.loadUser(r, data)
		if err != nil {
			app.serverError(w, err)
			return
		}

		app.render(w, http.StatusUnprocessableEntity, "home.page.tmpl", data)
		return
	}

	claims := app.claims(r)

	err = app.users.AddAddress(r.Context(), claims.UserID, models.Address{
		Address1: form.Address1,
		Address2: form.Address2,
		Address3: form.Address3,
		Address4: form.Address4,
	})
	if err != nil {
		app.serverError(w, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Address successfully added!")

	http.Redirect(w, r, cookieauth.RootPath, http.StatusSeeOther)
}

func (app *application) addressDeletePost(w http.ResponseWriter, r *http.Request) {
	var form addressDeleteForm

	err := app.decodePostForm(r, &form)
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	claims := app.claims(r)

	err = app.users.DeleteAddress(r.Context(), claims.UserID, form.Index)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			app.notFound(w)
		} else {
			app.serverError(w, err)
		}
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Address successfully deleted!")

	http.Redirect(w, r, cookieauth.RootPath, http.StatusSeeOther)
}

func (app *application) diagnosticsView(w http.ResponseWriter, r *http.Request) {
	events, err := app.authEvents.Latest(r.Context(), AuthEventsListed)
	if err != nil {
		app.serverError(w, err)
		return
	}

	data := app.newTemplateData(r)
	data.AuthEvents = events

	app.render(w, http.StatusOK, "diagnostics.page.tmpl", data)
}

func ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodGet {
		fmt.Fprintln(w, "OK")
	}
}
