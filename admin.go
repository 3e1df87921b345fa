package inkpress

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// The handlers below are registered behind requireAdmin; by the time
// they run the identity is known to carry the admin role.

const postDateLayout = "January 2, 2006"

func (a *App) handleNewPostPage(c echo.Context) error {
	return Render(c, a.Views.PostEditor(a.Config, new(PostForm), false, "", CsrfToken(c)))
}

// handleNewPost inserts a post dated today and authored by the current
// identity. A title conflict rolls back and re-renders the form with an
// inline message instead of redirecting.
func (a *App) handleNewPost(c echo.Context) error {
	form := new(PostForm)
	if err := c.Bind(form); err != nil {
		return err
	}
	if !form.Validate() {
		return Render(c, a.Views.PostEditor(a.Config, form, false, "", CsrfToken(c)))
	}

	ident := CurrentIdentity(c)
	_, err := a.Store.CreatePost(BlogPost{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Date:     time.Now().Format(postDateLayout),
		Body:     form.Body,
		ImageURL: form.ImageURL,
		AuthorID: ident.ID,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateTitle) {
			conflict := fmt.Sprintf("A post with the title %q already exists.", form.Title)
			return Render(c, a.Views.PostEditor(a.Config, form, false, conflict, CsrfToken(c)))
		}
		return err
	}

	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/blogs")
}

func (a *App) handleEditPostPage(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	form := &PostForm{
		ID:       strconv.FormatInt(post.ID, 10),
		Title:    post.Title,
		Subtitle: post.Subtitle,
		ImageURL: post.ImageURL,
		Body:     post.Body,
	}
	return Render(c, a.Views.PostEditor(a.Config, form, true, "", CsrfToken(c)))
}

// handleEditPost updates a post's mutable fields, keeping its creation
// date. The title is pre-checked against other posts so the common
// conflict is reported without touching the row; a conflict raised by
// the store on commit is handled the same way after rollback.
func (a *App) handleEditPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}

	form := new(PostForm)
	if err := c.Bind(form); err != nil {
		return err
	}
	form.ID = strconv.FormatInt(post.ID, 10)
	if !form.Validate() {
		return Render(c, a.Views.PostEditor(a.Config, form, true, "", CsrfToken(c)))
	}

	taken, err := a.Store.TitleTaken(form.Title, post.ID)
	if err != nil {
		return err
	}
	if taken {
		conflict := fmt.Sprintf("A post with the title %q already exists.", form.Title)
		return Render(c, a.Views.PostEditor(a.Config, form, true, conflict, CsrfToken(c)))
	}

	post.Title = form.Title
	post.Subtitle = form.Subtitle
	post.ImageURL = form.ImageURL
	post.Body = form.Body
	post.AuthorID = CurrentIdentity(c).ID
	if err := a.Store.UpdatePost(post); err != nil {
		if errors.Is(err, ErrDuplicateTitle) {
			conflict := fmt.Sprintf("A post with the title %q already exists.", form.Title)
			return Render(c, a.Views.PostEditor(a.Config, form, true, conflict, CsrfToken(c)))
		}
		return err
	}

	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/post/"+strconv.FormatInt(post.ID, 10))
}

func (a *App) handleDeletePost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePost(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/blogs")
}
