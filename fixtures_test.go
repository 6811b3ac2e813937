package pubcontent

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/source"
)

var fixtureSources = []content.Source{
	{ID: "functions.md", Text: "---\ntitle: Azure Functions DI\ndescription: Wiring IServiceProvider\ndate: 2017-09-14\ntags: [azure, functions]\n---\nRegister **services** once.\n"},
	{ID: "storage.md", Text: "---\ntitle: Table storage\ndate: 2017-05-03\ntags: [Azure, storage]\nkeywords: CloudTable\nrelated: [insights]\n---\nRows and partitions.\n"},
	{ID: "insights.md", Text: "---\ntitle: Application Insights\ndate: 2017-10-17\nupdated: 2017-11-02\ntags: [monitoring, azure]\n---\nTelemetryClient.\n"},
	{ID: "jwt.md", Text: "---\ntitle: Validating JWTs\ndate: 2017-11-01\ndraft: true\ntags: [security]\n---\nDraft.\n"},
	{ID: "future.md", Text: "---\ntitle: Scheduled\ndate: 2999-01-01\ntags: [azure]\n---\nLater.\n"},
	{ID: "broken.md", Text: "---\ntitle: Broken\ndate: 2017-01-01\n"},
}

// countingLoader serves fixtureSources and counts fetches. When fail is set,
// Fetch returns errFetch instead.
type countingLoader struct {
	fetches atomic.Int32
	fail    atomic.Bool
}

var errFetch = errors.New("bucket unavailable")

func (l *countingLoader) Fetch(ctx context.Context) ([]content.Source, error) {
	l.fetches.Add(1)
	if l.fail.Load() {
		return nil, errFetch
	}
	return source.Static(fixtureSources...).Fetch(ctx)
}

// fakeClock is a settable time source.
type fakeClock struct {
	now atomic.Int64
}

func newFakeClock(t time.Time) *fakeClock {
	c := &fakeClock{}
	c.now.Store(t.UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, c.now.Load()).UTC() }

func (c *fakeClock) Advance(d time.Duration) { c.now.Add(int64(d)) }
