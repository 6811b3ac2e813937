package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/internal/metrics"
	"github.com/eringen/pubcontent/source"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("pubcontent: post not found")

// Snapshot is one immutable load of the post set.
type Snapshot struct {
	ID        uuid.UUID
	LoadedAt  time.Time
	Posts     []content.Post // every loaded post, newest first
	Published []content.Post // Posts without drafts or posts dated after LoadedAt
	Tags      []string       // normalized tags of Published
	Report    *content.Report
}

func newSnapshot(report *content.Report, now time.Time) *Snapshot {
	posts := content.ListByDate(report.Posts)
	published := content.Published(posts, now)
	return &Snapshot{
		ID:        uuid.New(),
		LoadedAt:  now,
		Posts:     posts,
		Published: published,
		Tags:      content.Tags(published),
		Report:    report,
	}
}

// ListPosts returns published posts newest first, optionally filtered by tag.
// The result is a fresh slice.
func (s *Snapshot) ListPosts(tag string) []content.Post {
	if tag == "" {
		return slices.Clone(s.Published)
	}
	return content.FilterByTag(s.Published, tag)
}

// GetPost returns a single published post by slug.
func (s *Snapshot) GetPost(slug string) (content.Post, error) {
	p, ok := content.FindBySlug(s.Published, slug)
	if !ok {
		return content.Post{}, ErrNotFound
	}
	return p, nil
}

// Related returns published posts related to p.
func (s *Snapshot) Related(p content.Post) []content.Post {
	return content.Related(p, s.Published)
}

// Library owns the current Snapshot. Refresh replaces it; Current serves it
// and reloads when it is older than the TTL.
type Library struct {
	loader   source.Loader
	ttl      time.Duration
	loadOpts []content.LoadOption
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	snap  *Snapshot
	hooks []func(context.Context, *Snapshot)

	refreshMu sync.Mutex // serializes fetches
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithTTL sets how long a snapshot is served before Current reloads it.
// Zero disables time-based reloads.
func WithTTL(ttl time.Duration) LibraryOption {
	return func(l *Library) {
		l.ttl = ttl
	}
}

// WithLoadOptions passes options through to content.Load.
func WithLoadOptions(opts ...content.LoadOption) LibraryOption {
	return func(l *Library) {
		l.loadOpts = append(l.loadOpts, opts...)
	}
}

// WithLogger sets the logger used for refresh results.
func WithLogger(logger *zap.Logger) LibraryOption {
	return func(l *Library) {
		l.logger = logger
	}
}

// NewLibrary creates a Library reading from loader. Nothing is fetched until
// the first Refresh or Current.
func NewLibrary(loader source.Loader, opts ...LibraryOption) *Library {
	l := &Library{
		loader: loader,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnRefresh registers fn to run after every successful refresh, with the new
// snapshot. Hooks run serially, before Refresh or Current returns.
func (l *Library) OnRefresh(fn func(context.Context, *Snapshot)) {
	l.mu.Lock()
	l.hooks = append(l.hooks, fn)
	l.mu.Unlock()
}

// Snapshot returns the current snapshot without loading, or nil.
func (l *Library) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

func (l *Library) stale(s *Snapshot) bool {
	return s == nil || (l.ttl > 0 && l.now().Sub(s.LoadedAt) >= l.ttl)
}

// Current returns the current snapshot, loading one if there is none or the
// TTL has passed. When a reload fails and an older snapshot exists, the older
// snapshot is returned and the failure is logged.
func (l *Library) Current(ctx context.Context) (*Snapshot, error) {
	snap := l.Snapshot()
	if !l.stale(snap) {
		return snap, nil
	}

	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	snap = l.Snapshot()
	if !l.stale(snap) {
		return snap, nil
	}
	fresh, err := l.refresh(ctx)
	if err != nil {
		if snap != nil {
			l.logger.Warn("refresh failed, serving stale snapshot",
				zap.Error(err),
				zap.String("snapshot", snap.ID.String()),
				zap.Time("loaded_at", snap.LoadedAt),
			)
			return snap, nil
		}
		return nil, err
	}
	return fresh, nil
}

// Refresh fetches and loads the post set and swaps it in. On error the
// previous snapshot, if any, is kept.
func (l *Library) Refresh(ctx context.Context) (*Snapshot, error) {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()
	return l.refresh(ctx)
}

func (l *Library) refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	sources, err := l.loader.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("pubcontent: fetch: %w", err)
	}
	report := content.Load(sources, l.loadOpts...)
	metrics.ObserveLoad(report, time.Since(start))

	snap := newSnapshot(report, l.now())
	metrics.PostsCurrent.Set(float64(len(snap.Published)))

	l.mu.Lock()
	l.snap = snap
	hooks := l.hooks
	l.mu.Unlock()

	for _, e := range report.Errors {
		l.logger.Warn("document rejected",
			zap.String("id", e.ID),
			zap.Int("line", e.Line),
			zap.String("kind", e.Kind()),
			zap.Error(e),
		)
	}
	l.logger.Info("posts loaded",
		zap.String("snapshot", snap.ID.String()),
		zap.Int("sources", report.Total),
		zap.Int("posts", len(snap.Posts)),
		zap.Int("published", len(snap.Published)),
		zap.Int("errors", len(report.Errors)),
		zap.Int("issues", len(report.Issues)),
		zap.Duration("took", time.Since(start)),
	)
	for _, fn := range hooks {
		fn(ctx, snap)
	}
	return snap, nil
}
