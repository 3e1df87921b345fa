package inkpress

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func (a *App) handleRegisterPage(c echo.Context) error {
	return Render(c, a.Views.Register(a.Config, new(RegisterForm), takeFlashes(c), CsrfToken(c)))
}

// handleRegister creates a new account. A duplicate email is a
// recoverable conflict reported via flash on the login page; any other
// store failure has already been rolled back and surfaces as a server
// error.
func (a *App) handleRegister(c echo.Context) error {
	form := new(RegisterForm)
	if err := c.Bind(form); err != nil {
		return err
	}
	if !form.Validate() {
		return Render(c, a.Views.Register(a.Config, form, nil, CsrfToken(c)))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := a.Store.CreateUser(form.Email, form.Name, string(hash)); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			if err := addFlash(c, "danger", "You've already signed up with that email, log in instead."); err != nil {
				return err
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return err
	}

	if err := addFlash(c, "success", "Registered successfully, now log in."); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (a *App) handleLoginPage(c echo.Context) error {
	return Render(c, a.Views.Login(a.Config, new(LoginForm), takeFlashes(c), CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}

	form := new(LoginForm)
	if err := c.Bind(form); err != nil {
		return err
	}
	if !form.Validate() {
		return Render(c, a.Views.Login(a.Config, form, nil, CsrfToken(c)))
	}

	u, err := a.Store.GetUserByEmail(form.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.loginLimiter.Record(c.RealIP())
			if err := addFlash(c, "danger", "That account does not exist, try again."); err != nil {
				return err
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.Password)) != nil {
		a.loginLimiter.Record(c.RealIP())
		if err := addFlash(c, "danger", "Incorrect password, try again."); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if err := loginSession(c, u); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/blogs")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := logoutSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/blogs")
}
