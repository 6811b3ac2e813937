package pubcontent

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/index"
	"github.com/eringen/pubcontent/views"
)

const testPassword = "correct horse"

func testConfig() SiteConfig {
	return SiteConfig{
		Name:          "Dev Notes",
		URL:           "https://example.com",
		Description:   "Notes on Azure",
		AdminPassword: testPassword,
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
}

func testViews(cfg SiteConfig) ViewFuncs {
	site := views.Site{Name: cfg.Name, URL: cfg.URL, Description: cfg.Description}
	return ViewFuncs{
		Home:           site.Home,
		Post:           site.Post,
		AdminLogin:     site.AdminLogin,
		AdminDashboard: site.AdminDashboard,
		NotFound:       site.NotFound,
		ServerError:    site.ServerError,
	}
}

func newTestApp(t *testing.T, cfg SiteConfig, opts ...Option) *App {
	t.Helper()
	lib := NewLibrary(&countingLoader{})
	lib.now = newFakeClock(epoch).Now
	a := New(cfg, lib, testViews(cfg), zap.NewNop(), opts...)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(func() { a.Close() })
	return a
}

func do(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, target string) *httptest.ResponseRecorder {
	return do(a, httptest.NewRequest(http.MethodGet, target, nil))
}

func TestHome(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Application Insights")
	assert.Contains(t, body, "Table storage")
	assert.NotContains(t, body, "Validating JWTs", "drafts are not listed")
	assert.NotContains(t, body, "Scheduled", "future posts are not listed")
	assert.Less(t, strings.Index(body, "Application Insights"), strings.Index(body, "Table storage"), "newest first")
	assert.Equal(t, "public, max-age=600", rec.Header().Get("Cache-Control"))

	rec = get(a, "/?tag=monitoring")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Application Insights")
	assert.NotContains(t, rec.Body.String(), "Table storage")
}

func TestTagPage(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/tags/storage/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Table storage")
	assert.NotContains(t, rec.Body.String(), "Azure Functions DI")

	assert.Equal(t, http.StatusNotFound, get(a, "/tags/cobol/").Code)
	assert.Equal(t, http.StatusMovedPermanently, get(a, "/tags/storage").Code)
}

func TestPostPage(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/blog/storage/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Table storage</h1>")
	assert.Contains(t, body, "<h2>Related</h2>")
	assert.Contains(t, body, `href="/blog/insights/"`)

	for _, slug := range []string{"jwt", "future", "missing"} {
		rec := get(a, "/blog/"+slug+"/")
		assert.Equal(t, http.StatusNotFound, rec.Code, slug)
		assert.Contains(t, rec.Body.String(), "Not found", slug)
	}
}

func TestFeed(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))

	var feed rssXML
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &feed))
	var titles []string
	for _, it := range feed.Channel.Items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"Application Insights", "Azure Functions DI", "Table storage"}, titles)
	assert.Equal(t, "https://example.com/blog/insights/", feed.Channel.Items[0].GUID)
	assert.Equal(t, "Dev Notes", feed.Channel.Title)

	rec = get(a, "/feed.xml?tag=monitoring")
	require.Equal(t, http.StatusOK, rec.Code)
	feed = rssXML{}
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Len(t, feed.Channel.Items, 1)
	assert.Equal(t, "Dev Notes - monitoring", feed.Channel.Title)
	assert.Equal(t, "https://example.com/tags/monitoring/", feed.Channel.Link)
}

func TestSitemap(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)

	var set sitemapURLSet
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &set))
	lastmod := map[string]string{}
	for _, u := range set.URLs {
		lastmod[u.Loc] = u.LastMod
	}
	assert.Equal(t, "2017-11-02", lastmod["https://example.com/blog/insights/"], "lastmod follows updated")
	assert.Equal(t, "2017-05-03", lastmod["https://example.com/blog/storage/"])
	assert.Contains(t, lastmod, "https://example.com/tags/azure/")
	assert.NotContains(t, lastmod, "https://example.com/blog/jwt/")
	assert.Len(t, set.URLs, 1+4+3)
}

func TestAPI(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/api/posts")
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []apiPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 3)
	assert.Equal(t, "insights", posts[0].Slug)
	assert.NotNil(t, posts[0].Updated)
	assert.Empty(t, posts[0].Body, "list responses omit bodies")

	rec = get(a, "/api/posts?tag=functions")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "functions", posts[0].Slug)

	rec = get(a, "/api/posts/storage")
	require.Equal(t, http.StatusOK, rec.Code)
	var post apiPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "Rows and partitions.\n", post.Body)
	assert.Equal(t, []string{"CloudTable"}, post.Keywords)
	assert.Equal(t, []string{"insights"}, post.Related)
	assert.Equal(t, "https://example.com/blog/storage/", post.URL)

	rec = get(a, "/api/posts/jwt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = get(a, "/api/tags")
	require.Equal(t, http.StatusOK, rec.Code)
	var tags []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))
	assert.Equal(t, []string{"azure", "functions", "monitoring", "storage"}, tags)

	assert.Equal(t, http.StatusNotFound, get(a, "/api/search?q=x").Code, "search needs an index")
}

func TestSearchWithIndex(t *testing.T) {
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	a := newTestApp(t, testConfig(), WithIndex(idx))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "index holds the published set")

	rec := get(a, "/api/search?q=telemetry")
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []apiPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "insights", posts[0].Slug)

	assert.Equal(t, http.StatusBadRequest, get(a, "/api/search?q=%20").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(3), health["posts"])
	assert.Equal(t, float64(1), health["errors"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = get(a, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pubcontent_documents_loaded_total")
	assert.Contains(t, rec.Body.String(), `pubcontent_load_errors_total{kind="UnterminatedBlock"}`)
}

func TestStylesheet(t *testing.T) {
	a := newTestApp(t, testConfig())
	rec := get(a, "/public/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
}

const csrfToken = "test-csrf-token"

func adminPost(a *App, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrfToken)
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: csrfToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return do(a, req)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionName)
	return nil
}

func TestAdminFlow(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := get(a, "/admin/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/admin/login/"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = adminPost(a, "/admin/login/", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wrong password.")

	rec = adminPost(a, "/admin/login/", url.Values{"password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	sess := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(sess)
	rec = do(a, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>Posts (5)</h2>")
	assert.Contains(t, body, "<h2>Rejected (1)</h2>")
	assert.Contains(t, body, "broken.md")
	assert.Contains(t, body, "<td>scheduled</td>")

	before := a.Library.Snapshot()
	rec = adminPost(a, "/admin/reload/", nil, sess)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "Reloaded+5+posts")
	assert.NotEqual(t, before.ID, a.Library.Snapshot().ID)

	rec = adminPost(a, "/admin/logout/", nil, sess)
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminReloadRequiresSession(t *testing.T) {
	a := newTestApp(t, testConfig())
	before := a.Library.Snapshot()

	rec := adminPost(a, "/admin/reload/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get("Location"))
	assert.Same(t, before, a.Library.Snapshot())
}

func TestAdminRejectsMissingCSRF(t *testing.T) {
	a := newTestApp(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader("password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(a, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminDisabledWithoutPassword(t *testing.T) {
	cfg := testConfig()
	cfg.AdminPassword = ""
	a := newTestApp(t, cfg)
	assert.Equal(t, http.StatusNotFound, get(a, "/admin/").Code)
}

func TestInitRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = ""
	a := New(cfg, NewLibrary(&countingLoader{}), testViews(cfg), nil)
	assert.Error(t, a.Init(context.Background()))
}

func TestInitFailsWhenFirstLoadFails(t *testing.T) {
	loader := &countingLoader{}
	loader.fail.Store(true)
	cfg := testConfig()
	a := New(cfg, NewLibrary(loader), testViews(cfg), nil)
	assert.ErrorIs(t, a.Init(context.Background()), errFetch)
}
