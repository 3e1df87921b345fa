package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/inkpress"
	"github.com/eringen/inkpress/markdown"
)

// defaultViews provides a plain, unstyled set of templ components so the
// binary works out of the box. Sites wanting their own markup pass their
// own ViewFuncs to inkpress.New instead.
func defaultViews() inkpress.ViewFuncs {
	return inkpress.ViewFuncs{
		Home:        homeView,
		PostList:    postListView,
		Post:        postView,
		Register:    registerView,
		Login:       loginView,
		PostEditor:  postEditorView,
		NotFound:    func() templ.Component { return messagePage("Not Found", "That page does not exist.") },
		Forbidden:   func() templ.Component { return messagePage("Forbidden", "You are not allowed to do that.") },
		ServerError: func() templ.Component { return messagePage("Server Error", "Something went wrong.") },
	}
}

func esc(s string) string { return html.EscapeString(s) }

// page wraps body in the shared layout: head, nav, flash area, footer.
func page(cfg inkpress.SiteConfig, title string, ident inkpress.Identity, flashes []inkpress.Flash, body func(ctx context.Context, w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s — %s</title>`,
			esc(title), esc(cfg.Name))
		fmt.Fprintf(w, `<script type="application/ld+json">%s</script></head><body>`, inkpress.WebsiteJsonLD(cfg))
		fmt.Fprintf(w, `<nav><a href="/">%s</a> <a href="/blogs">All Posts</a>`, esc(cfg.Name))
		if ident.Authenticated {
			if ident.IsAdmin() {
				io.WriteString(w, ` <a href="/new_post">New Post</a>`)
			}
			fmt.Fprintf(w, ` <a href="/logout">Log Out (%s)</a>`, esc(ident.Name))
		} else {
			io.WriteString(w, ` <a href="/login">Log In</a> <a href="/register">Register</a>`)
		}
		io.WriteString(w, `</nav>`)
		for _, f := range flashes {
			fmt.Fprintf(w, `<p class="flash flash-%s">%s</p>`, esc(f.Level), esc(f.Message))
		}
		if err := body(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func messagePage(title, text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title></head><body><h1>%s</h1><p>%s</p><p><a href="/blogs">Back to posts</a></p></body></html>`,
			esc(title), esc(title), esc(text))
		return err
	})
}

func homeView(cfg inkpress.SiteConfig, ident inkpress.Identity) templ.Component {
	return page(cfg, "Home", ident, nil, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>%s</h1>`, esc(cfg.Name))
		if cfg.Description != "" {
			fmt.Fprintf(w, `<p>%s</p>`, esc(cfg.Description))
		}
		_, err := io.WriteString(w, `<p><a href="/blogs">Read the blog</a></p>`)
		return err
	})
}

func postListView(cfg inkpress.SiteConfig, posts []inkpress.BlogPost, ident inkpress.Identity) templ.Component {
	return page(cfg, "All Posts", ident, nil, func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<h1>All Posts</h1>`)
		if len(posts) == 0 {
			io.WriteString(w, `<p>No posts yet.</p>`)
		}
		for _, p := range posts {
			id := strconv.FormatInt(p.ID, 10)
			fmt.Fprintf(w, `<article><h2><a href="/post/%s">%s</a></h2><p>%s</p><p><small>%s · %s</small></p>`,
				id, esc(p.Title), esc(p.Subtitle), esc(p.AuthorName), esc(p.Date))
			if ident.IsAdmin() {
				fmt.Fprintf(w, `<p><a href="/edit-post/%s">Edit</a> <a href="/delete/%s">Delete</a></p>`, id, id)
			}
			io.WriteString(w, `</article>`)
		}
		return nil
	})
}

func postView(cfg inkpress.SiteConfig, post inkpress.BlogPost, comments []inkpress.Comment, ident inkpress.Identity, form *inkpress.CommentForm, csrfToken string) templ.Component {
	return page(cfg, post.Title, ident, nil, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`, inkpress.BlogPostingJsonLD(post, cfg))
		fmt.Fprintf(w, `<article><h1>%s</h1><h2>%s</h2><p><small>%s · %s</small></p><img src="%s" alt="">`,
			esc(post.Title), esc(post.Subtitle), esc(post.AuthorName), esc(post.Date), esc(post.ImageURL))
		if err := markdown.Markdown(post.Body).Render(ctx, w); err != nil {
			return err
		}
		io.WriteString(w, `</article><section><h3>Comments</h3>`)
		for _, cm := range comments {
			fmt.Fprintf(w, `<div class="comment"><p><strong>%s</strong></p>`, esc(cm.AuthorName))
			if err := markdown.Markdown(cm.Body).Render(ctx, w); err != nil {
				return err
			}
			io.WriteString(w, `</div>`)
		}
		id := strconv.FormatInt(post.ID, 10)
		fmt.Fprintf(w, `<form method="post" action="/post/%s">%s%s<textarea name="body">%s</textarea><button type="submit">Comment</button></form>`,
			id, csrfField(csrfToken), fieldError(form.Errors, "body"), esc(form.Body))
		io.WriteString(w, `</section>`)
		return nil
	})
}

func registerView(cfg inkpress.SiteConfig, form *inkpress.RegisterForm, flashes []inkpress.Flash, csrfToken string) templ.Component {
	return page(cfg, "Register", inkpress.Identity{}, flashes, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>Register</h1><form method="post" action="/register">%s`, csrfField(csrfToken))
		textInput(w, "email", "Email", form.Email, form.Errors)
		passwordInput(w, form.Errors)
		textInput(w, "name", "Name", form.Name, form.Errors)
		_, err := io.WriteString(w, `<button type="submit">Register</button></form>`)
		return err
	})
}

func loginView(cfg inkpress.SiteConfig, form *inkpress.LoginForm, flashes []inkpress.Flash, csrfToken string) templ.Component {
	return page(cfg, "Log In", inkpress.Identity{}, flashes, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>Log In</h1><form method="post" action="/login">%s`, csrfField(csrfToken))
		textInput(w, "email", "Email", form.Email, form.Errors)
		passwordInput(w, form.Errors)
		_, err := io.WriteString(w, `<button type="submit">Log In</button></form>`)
		return err
	})
}

func postEditorView(cfg inkpress.SiteConfig, form *inkpress.PostForm, isEdit bool, conflict string, csrfToken string) templ.Component {
	title := "New Post"
	action := "/new_post"
	if isEdit {
		title = "Edit Post"
		action = "/edit-post/" + form.ID
	}
	return page(cfg, title, inkpress.Identity{Authenticated: true, Role: inkpress.RoleAdmin}, nil, func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>%s</h1>`, esc(title))
		if conflict != "" {
			fmt.Fprintf(w, `<p class="flash flash-danger">%s</p>`, esc(conflict))
		}
		fmt.Fprintf(w, `<form method="post" action="%s">%s<input type="hidden" name="id" value="%s">`,
			esc(action), csrfField(csrfToken), esc(form.ID))
		textInput(w, "title", "Title", form.Title, form.Errors)
		textInput(w, "subtitle", "Subtitle", form.Subtitle, form.Errors)
		textInput(w, "img_url", "Cover Image URL", form.ImageURL, form.Errors)
		fmt.Fprintf(w, `<label>Body%s<textarea name="body">%s</textarea></label>`,
			fieldError(form.Errors, "body"), esc(form.Body))
		_, err := fmt.Fprintf(w, `<button type="submit">%s</button></form>`, esc(title))
		return err
	})
}

func csrfField(token string) string {
	return `<input type="hidden" name="_csrf" value="` + esc(token) + `">`
}

func fieldError(errs map[string]string, field string) string {
	if msg, ok := errs[field]; ok {
		return `<span class="field-error">` + esc(msg) + `</span>`
	}
	return ""
}

func textInput(w io.Writer, name, label, value string, errs map[string]string) {
	fmt.Fprintf(w, `<label>%s%s<input type="text" name="%s" value="%s"></label>`,
		esc(label), fieldError(errs, name), name, esc(value))
}

func passwordInput(w io.Writer, errs map[string]string) {
	fmt.Fprintf(w, `<label>Password%s<input type="password" name="password"></label>`,
		fieldError(errs, "password"))
}
