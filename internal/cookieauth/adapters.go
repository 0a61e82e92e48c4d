package cookieauth

import (
	"net/http"
	"strings"
	"sync"
)

// RequestCookies is a CookieStore over a single HTTP exchange: it reads the request's Cookie headers and
// writes Set-Cookie headers on the response.
type RequestCookies struct {
	W http.ResponseWriter
	R *http.Request
}

func (rc RequestCookies) Cookie() string {
	return strings.Join(rc.R.Header.Values("Cookie"), "; ")
}

func (rc RequestCookies) SetCookie(c *http.Cookie) {
	http.SetCookie(rc.W, c)
}

// Redirector navigates by sending a 303 See Other, which makes the browser issue a fresh GET.
type Redirector struct {
	W http.ResponseWriter
	R *http.Request
}

func (rd Redirector) Navigate(path string) {
	http.Redirect(rd.W, rd.R, path, http.StatusSeeOther)
}

// NavigatorFunc adapts a plain function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// Panel is a named page element rendered by the templates with a hidden attribute.
type Panel struct {
	ID     string
	Hidden bool
}

func (p *Panel) SetHidden(hidden bool) {
	p.Hidden = hidden
}

// Jar is an in-memory CookieStore with document.cookie semantics: cookies are keyed by name, keep their
// insertion order and are rendered as "name=value" pairs joined by "; ".
type Jar struct {
	mu     sync.Mutex
	names  []string
	values map[string]string
}

// NewJar returns a Jar preloaded from a raw cookie string.
func NewJar(raw string) *Jar {
	j := &Jar{values: make(map[string]string)}

	for _, segment := range strings.Split(raw, ";") {
		name, value, _ := strings.Cut(segment, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		j.set(name, strings.TrimSpace(value))
	}

	return j
}

func (j *Jar) Cookie() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	pairs := make([]string, 0, len(j.names))
	for _, name := range j.names {
		pairs = append(pairs, name+"="+j.values[name])
	}

	return strings.Join(pairs, "; ")
}

func (j *Jar) SetCookie(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.set(c.Name, c.Value)
}

func (j *Jar) set(name, value string) {
	if j.values == nil {
		j.values = make(map[string]string)
	}

	if _, ok := j.values[name]; !ok {
		j.names = append(j.names, name)
	}
	j.values[name] = value
}
