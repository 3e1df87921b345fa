// Package inkpress is a server-rendered multi-user blog built with Go,
// Echo, and templ. Visitors read posts and comments, registered users
// log in and comment, and the admin account authors, edits, and deletes
// posts.
//
// Users provide their own templ components via the ViewFuncs struct,
// and inkpress handles the handler logic, sessions, form validation,
// middleware, and database operations.
package inkpress

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Home        func(cfg SiteConfig, ident Identity) templ.Component
	PostList    func(cfg SiteConfig, posts []BlogPost, ident Identity) templ.Component
	Post        func(cfg SiteConfig, post BlogPost, comments []Comment, ident Identity, form *CommentForm, csrfToken string) templ.Component
	Register    func(cfg SiteConfig, form *RegisterForm, flashes []Flash, csrfToken string) templ.Component
	Login       func(cfg SiteConfig, form *LoginForm, flashes []Flash, csrfToken string) templ.Component
	PostEditor  func(cfg SiteConfig, form *PostForm, isEdit bool, conflict string, csrfToken string) templ.Component
	NotFound    func() templ.Component
	Forbidden   func() templ.Component
	ServerError func() templ.Component
}

// App is the central inkpress application. It wires together the store,
// cache, session layer, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Views  ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new inkpress App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// setup initializes the store, cache, limiter, middleware, and routes.
// Split from Start so tests can drive the app through httptest without
// binding a listener.
func (a *App) setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("inkpress: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("inkpress: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewPostCache(a.Store, 5*time.Minute)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the database, cache, middleware, routes, and starts the server.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Static assets and crawler surface
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/blogs", a.handleListPosts)
	e.GET("/register", a.handleRegisterPage)
	e.POST("/register", a.handleRegister)
	e.GET("/login", a.handleLoginPage)
	e.POST("/login", a.handleLogin)
	e.GET("/logout", a.handleLogout)
	e.GET("/post/:id", a.handleShowPost)
	e.POST("/post/:id", a.handleShowPost)

	// Admin-only routes
	e.GET("/new_post", a.handleNewPostPage, a.requireAdmin)
	e.POST("/new_post", a.handleNewPost, a.requireAdmin)
	e.GET("/edit-post/:id", a.handleEditPostPage, a.requireAdmin)
	e.POST("/edit-post/:id", a.handleEditPost, a.requireAdmin)
	e.GET("/delete/:id", a.handleDeletePost, a.requireAdmin)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("inkpress: required environment variable %s is not set", key)
	}
	return v
}
