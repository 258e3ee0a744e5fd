package http

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/cryptox"
	"github.com/aussiebroadwan/frontdoor/pkg/idx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// Cookie names. The session cookie is persistent and holds the durable
// scope. Each tab has its own cookie, TabCookie followed by "_" and the tab
// id, with no expiry so it lives as long as the browser session.
const (
	SessionCookie = "fd_session"
	TabCookie     = "fd_tab"
)

// A tab proves its identity with TabHeader, or TabParam on plain browser
// navigations. Requests without one are a new tab and get a fresh id, echoed
// back in TabHeader.
const (
	TabHeader = "X-Frontdoor-Tab"
	TabParam  = "tab"
)

// MaxTabScopes bounds the tab cookies one browser keeps. Writing to a tab
// expires the oldest ones beyond it.
const MaxTabScopes = 8

// DefaultDurableTTL is the lifetime of the session cookie.
const DefaultDurableTTL = 30 * 24 * time.Hour

// CookieJar keeps a browser's credential store in two sealed cookies, so the
// front door holds no session state of its own.
type CookieJar struct {
	sealer     *cryptox.Sealer
	Secure     bool
	DurableTTL time.Duration
}

// NewCookieJar derives the cookie key from secret.
func NewCookieJar(secret []byte, secure bool, durableTTL time.Duration) (*CookieJar, error) {
	sealer, err := cryptox.NewSealer(secret, "cookies")
	if err != nil {
		return nil, err
	}
	if durableTTL <= 0 {
		durableTTL = DefaultDurableTTL
	}
	return &CookieJar{sealer: sealer, Secure: secure, DurableTTL: durableTTL}, nil
}

// Open returns the credential store carried by r and the tab it is scoped
// to. Writes are answered with Set-Cookie on w, so the store must not be
// written after the response header has been sent.
func (j *CookieJar) Open(w http.ResponseWriter, r *http.Request) (*store.KV, idx.ID) {
	tab := TabFrom(r)
	if tab.IsZero() {
		tab = idx.New()
	}
	w.Header().Set(TabHeader, tab.String())

	scope := j.bucket(w, r, TabCookieName(tab), 0)
	scope.stale = staleTabs(r, TabCookieName(tab))
	return store.NewKV(j.bucket(w, r, SessionCookie, int(j.DurableTTL/time.Second)), scope), tab
}

// TabFrom reads the tab id a request carries. A missing or malformed id
// yields idx.Zero.
func TabFrom(r *http.Request) idx.ID {
	raw := r.Header.Get(TabHeader)
	if raw == "" {
		raw = r.URL.Query().Get(TabParam)
	}
	tab, err := idx.Parse(raw)
	if err != nil {
		return idx.Zero
	}
	return tab
}

// tagTab adds the tab a request names to its logger.
func tagTab(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tab := TabFrom(r); !tab.IsZero() {
			r = r.WithContext(slogx.With(r.Context(), "tab", tab.String()))
		}
		next.ServeHTTP(w, r)
	})
}

// TabCookieName is the cookie holding tab's scope.
func TabCookieName(tab idx.ID) string {
	return TabCookie + "_" + tab.String()
}

// staleTabs lists the other tab cookies on r past the newest MaxTabScopes-1.
// Tab ids are ULIDs, so name order is mint order.
func staleTabs(r *http.Request, keep string) []string {
	var names []string
	for _, c := range r.Cookies() {
		if c.Name != keep && strings.HasPrefix(c.Name, TabCookie+"_") {
			names = append(names, c.Name)
		}
	}
	if len(names) < MaxTabScopes {
		return nil
	}
	slices.Sort(names)
	slices.Reverse(names)
	return names[MaxTabScopes-1:]
}

func (j *CookieJar) bucket(w http.ResponseWriter, r *http.Request, name string, maxAge int) *cookieBucket {
	b := &cookieBucket{jar: j, w: w, name: name, maxAge: maxAge, values: map[string]string{}}

	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return b
	}
	plain, err := j.sealer.Open(c.Value, []byte(name))
	if err == nil {
		err = json.Unmarshal(plain, &b.values)
	}
	if err != nil || b.values == nil {
		slogx.FromContext(r.Context()).Warn("ignoring unreadable cookie", "cookie", name)
		b.values = map[string]string{}
	}
	return b
}

// cookieBucket is a store.Bucket backed by one sealed cookie. Every write
// re-seals the whole map and replaces any Set-Cookie queued earlier in the
// same response.
type cookieBucket struct {
	jar    *CookieJar
	w      http.ResponseWriter
	name   string
	maxAge int

	// stale tab cookies expired on the first write
	stale []string

	mu     sync.Mutex
	values map[string]string
}

var _ store.Bucket = (*cookieBucket)(nil)

func (b *cookieBucket) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *cookieBucket) Put(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := maps.Clone(b.values)
	maps.Copy(next, values)
	if err := b.write(next); err != nil {
		return err
	}
	b.values = next
	return nil
}

func (b *cookieBucket) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := maps.Clone(b.values)
	for _, k := range keys {
		delete(next, k)
	}
	if err := b.write(next); err != nil {
		return err
	}
	b.values = next
	return nil
}

func (b *cookieBucket) write(values map[string]string) error {
	c := &http.Cookie{
		Name:     b.name,
		Path:     "/",
		HttpOnly: true,
		Secure:   b.jar.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if len(values) == 0 {
		c.MaxAge = -1
	} else {
		raw, err := json.Marshal(values)
		if err != nil {
			return err
		}
		sealed, err := b.jar.sealer.Seal(raw, []byte(b.name))
		if err != nil {
			return err
		}
		c.Value = sealed
		c.MaxAge = b.maxAge
	}

	h := b.w.Header()
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, b.name+"=") {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(b.w, c)

	for _, name := range b.stale {
		http.SetCookie(b.w, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	}
	b.stale = nil
	return nil
}
