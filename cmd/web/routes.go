package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/mabego/firebase-login/ui"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	// Set the custom handler for 404 responses through httprouter.
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.notFound(w)
	})

	// Use an embedded file system instead of reading files from the disk at runtime.
	fileServer := http.FileServer(http.FS(ui.Files))
	router.Handler(http.MethodGet, "/static/*filepath", fileServer)

	router.HandlerFunc(http.MethodGet, "/ping", ping)

	dynamic := alice.New(app.sessionManager.LoadAndSave, noSurf, app.authenticate)

	router.Handler(http.MethodGet, "/", dynamic.ThenFunc(app.home))
	router.Handler(http.MethodPost, "/user/signup", dynamic.ThenFunc(app.userSignupPost))
	router.Handler(http.MethodPost, "/user/login", dynamic.ThenFunc(app.userLoginPost))

	// Sign-out stays reachable with a token that no longer verifies so the cookie can always be cleared.
	router.Handler(http.MethodPost, "/user/logout", dynamic.ThenFunc(app.userLogoutPost))

	protected := dynamic.Append(app.requireAuthentication)

	router.Handler(http.MethodPost, "/address/add", protected.ThenFunc(app.addressAddPost))
	router.Handler(http.MethodPost, "/address/delete", protected.ThenFunc(app.addressDeletePost))
	router.Handler(http.MethodGet, "/diagnostics", protected.ThenFunc(app.diagnosticsView))

	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)

	return standard.Then(router)
}
