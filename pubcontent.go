// Package pubcontent serves a blog from a set of front-matter Markdown
// documents. A Library loads the documents into immutable snapshots, and the
// App exposes them as HTML pages, an RSS feed, a sitemap and a JSON API, with
// a small admin area for reloading and linting the content.
//
// Users provide their own templ components via the ViewFuncs struct; the
// views package has a default set.
package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/internal/metrics"
)

// ViewFuncs holds the templ components the App renders pages with.
type ViewFuncs struct {
	Home           func(posts []content.Post, activeTag string, tags []string, siteURL string) templ.Component
	Post           func(post content.Post, related []content.Post, siteURL string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(report *content.Report, loadedAt time.Time, snapshotID, message, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// Indexer receives every published post set and answers search queries.
// *index.Index implements it.
type Indexer interface {
	Replace(ctx context.Context, posts []content.Post) error
	Search(query string) ([]content.Post, error)
}

// App wires the Library, handlers, middleware and views together.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Library *Library
	Views   ViewFuncs
	Logger  *zap.Logger

	loginLimiter *LoginLimiter
	index        Indexer
	customRoutes []func(*App)
}

// New creates an App serving lib with the given configuration and views.
func New(cfg SiteConfig, lib *Library, views ViewFuncs, logger *zap.Logger, opts ...Option) *App {
	cfg.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:  cfg,
		Echo:    e,
		Library: lib,
		Views:   views,
		Logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init validates the configuration, performs the first load and registers
// middleware and routes. Start calls it; tests call it directly.
func (a *App) Init(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	if a.index != nil {
		a.Library.OnRefresh(a.syncIndex)
	}
	if _, err := a.Library.Refresh(ctx); err != nil {
		return fmt.Errorf("pubcontent: initial load: %w", err)
	}

	if a.Config.AdminEnabled() {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}

	metrics.Register()
	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the App and serves until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/tags/:tag/", a.handleTag)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	// JSON API
	api := e.Group("/api")
	api.GET("/posts", a.handleAPIPosts)
	api.GET("/posts/:slug", a.handleAPIPost)
	api.GET("/tags", a.handleAPITags)
	if a.index != nil {
		api.GET("/search", a.handleAPISearch)
	}

	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Admin routes
	if a.Config.AdminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/reload/", a.handleAdminReload)
	}
}

func (a *App) syncIndex(ctx context.Context, snap *Snapshot) {
	if err := a.index.Replace(ctx, snap.Published); err != nil {
		a.Logger.Error("index sync failed", zap.Error(err), zap.String("snapshot", snap.ID.String()))
		return
	}
	a.Logger.Debug("index synced", zap.Int("posts", len(snap.Published)))
}

// Close releases background resources.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	return nil
}
