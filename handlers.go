package pubcontent

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) snapshot(c echo.Context) (*Snapshot, error) {
	return a.Library.Current(c.Request().Context())
}

func (a *App) handleHome(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	tag := c.QueryParam("tag")
	return Render(c, a.Views.Home(snap.ListPosts(tag), tag, snap.Tags, a.Config.URL))
}

func (a *App) handleTag(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	tag := c.Param("tag")
	posts := snap.ListPosts(tag)
	if len(posts) == 0 {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return Render(c, a.Views.Home(posts, tag, snap.Tags, a.Config.URL))
}

func (a *App) handlePost(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	post, err := snap.GetPost(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return Render(c, a.Views.Post(post, snap.Related(post), a.Config.URL))
}

func (a *App) handleSitemap(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, snap)
}

func (a *App) handleFeed(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	tag := c.QueryParam("tag")
	return a.renderRSS(c, snap.ListPosts(tag), tag)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleHealth(c echo.Context) error {
	snap := a.Library.Snapshot()
	if snap == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"snapshot":  snap.ID.String(),
		"loaded_at": snap.LoadedAt,
		"posts":     len(snap.Published),
		"errors":    len(snap.Report.Errors),
		"issues":    len(snap.Report.Issues),
	})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if isAPI(c) {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
		)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
