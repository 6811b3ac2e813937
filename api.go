package pubcontent

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcontent/content"
)

// apiPost is the JSON shape of a post. Body is only set on single-post
// responses.
type apiPost struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags"`
	Keywords    []string   `json:"keywords,omitempty"`
	Date        time.Time  `json:"date"`
	Updated     *time.Time `json:"updated,omitempty"`
	URL         string     `json:"url"`
	Related     []string   `json:"related,omitempty"`
	Body        string     `json:"body,omitempty"`
}

func (a *App) toAPIPost(p content.Post) apiPost {
	out := apiPost{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		Keywords:    p.Keywords,
		Date:        p.Date,
		URL:         BuildURL(a.Config.URL, "blog", p.Slug),
		Related:     p.Related,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if !p.Updated.IsZero() {
		u := p.Updated
		out.Updated = &u
	}
	return out
}

func (a *App) toAPIPosts(posts []content.Post) []apiPost {
	out := make([]apiPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, a.toAPIPost(p))
	}
	return out
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func (a *App) handleAPIPosts(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.toAPIPosts(snap.ListPosts(c.QueryParam("tag"))))
}

func (a *App) handleAPIPost(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	post, err := snap.GetPost(c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	if err != nil {
		return err
	}
	out := a.toAPIPost(post)
	out.Body = post.Body
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleAPITags(c echo.Context) error {
	snap, err := a.snapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Tags)
}

func (a *App) handleAPISearch(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query parameter q")
	}
	posts, err := a.index.Search(q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.toAPIPosts(posts))
}
