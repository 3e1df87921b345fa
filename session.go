package inkpress

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName    = "inkpress_session"
	sessionUserKey = "user_id"
	identityKey    = "identity"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string // "success" or "danger"
	Message string
}

func init() {
	// Flashes ride the gob-encoded session cookie.
	gob.Register(Flash{})
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// resolveIdentity middleware turns the session cookie into an Identity
// for the request. The cookie carries only the user id; the account is
// re-read from the store so a deleted user degrades to anonymous
// instead of a broken session.
func (a *App) resolveIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(identityKey, a.lookupIdentity(c))
		return next(c)
	}
}

func (a *App) lookupIdentity(c echo.Context) Identity {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return Identity{}
	}
	id, ok := sess.Values[sessionUserKey].(int64)
	if !ok {
		return Identity{}
	}
	u, err := a.Store.GetUserByID(id)
	if err != nil {
		return Identity{}
	}
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Authenticated: true}
}

// CurrentIdentity returns the identity resolved for this request, or
// the anonymous zero value.
func CurrentIdentity(c echo.Context) Identity {
	ident, _ := c.Get(identityKey).(Identity)
	return ident
}

// loginSession marks user as the session identity.
func loginSession(c echo.Context, u User) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionUserKey] = u.ID
	return sess.Save(c.Request(), c.Response())
}

// logoutSession clears the session identity.
func logoutSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// addFlash queues a one-shot message for the next rendered page.
func addFlash(c echo.Context, level, message string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.AddFlash(Flash{Level: level, Message: message})
	return sess.Save(c.Request(), c.Response())
}

// takeFlashes pops all queued flashes. Reading flashes mutates the
// session, so it is saved before returning.
func takeFlashes(c echo.Context) []Flash {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) > 0 {
		_ = sess.Save(c.Request(), c.Response())
	}
	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// requireAdmin guards the post authoring routes. Anyone without the
// admin role — anonymous included — gets a 403 and the handler never runs.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentIdentity(c).IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden)
		}
		return next(c)
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
