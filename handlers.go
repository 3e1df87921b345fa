package inkpress

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	return Render(c, a.Views.Home(a.Config, CurrentIdentity(c)))
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostList(a.Config, posts, CurrentIdentity(c)))
}

// handleShowPost serves a single post with its comments. A POST carries
// a comment submission: it needs a valid form and an authenticated
// identity; anonymous submitters are sent to the login page instead.
func (a *App) handleShowPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, err := a.Cache.GetPost(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}

	form := new(CommentForm)
	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return err
		}
		if form.Validate() {
			ident := CurrentIdentity(c)
			if !ident.Authenticated {
				if err := addFlash(c, "danger", "You have to log in before commenting."); err != nil {
					return err
				}
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			if _, err := a.Store.CreateComment(post.ID, ident.ID, form.Body); err != nil {
				return err
			}
			form = new(CommentForm)
		}
	}

	comments, err := a.Store.ListComments(post.ID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(a.Config, post, comments, CurrentIdentity(c), form, CsrfToken(c)))
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// postID parses the :id route parameter. A malformed id is treated the
// same as a missing post.
func postID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return id, nil
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok {
		switch he.Code {
		case http.StatusNotFound:
			_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
			return
		case http.StatusForbidden:
			_ = RenderStatus(c, http.StatusForbidden, a.Views.Forbidden())
			return
		}
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
