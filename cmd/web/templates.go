package main

import (
	"html/template"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/mabego/firebase-login/internal/cookieauth"
	"github.com/mabego/firebase-login/internal/identity"
	"github.com/mabego/firebase-login/internal/models"
	"github.com/mabego/firebase-login/ui"
)

// templateData holds dynamic data to pass to HTML templates.
type templateData struct {
	CurrentYear     int
	Flash           string
	CSRFToken       string
	LoginBox        *cookieauth.Panel
	SignOut         *cookieauth.Panel
	IsAuthenticated bool
	Claims          *identity.Claims
	User            *models.User
	AuthEvents      []*models.AuthEvent
	Form            any
	AddressForm     any
}

func humanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 02 2006 at 15:04")
}

var functions = template.FuncMap{"humanDate": humanDate}

func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	// Use fs.Glob to get a slice of all the 'page' files in the ui.Files embedded filesystem.
	pages, err := fs.Glob(ui.Files, "html/*.page.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)

		patterns := []string{
			"html/base.layout.tmpl",
			"html/*.partial.tmpl",
			page,
		}

		ts, err := template.New(name).Funcs(functions).ParseFS(ui.Files, patterns...)
		if err != nil {
			return nil, err
		}

		cache[name] = ts
	}

	return cache, nil
}
