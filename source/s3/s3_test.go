package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeObjects struct {
	objects map[string]string
	keys    []string
	getErr  error
}

func (f *fakeObjects) list(_ context.Context, _, prefix string) ([]string, error) {
	var keys []string
	for _, k := range f.keys {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeObjects) get(_ context.Context, _, key string) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return io.NopCloser(strings.NewReader(f.objects[key])), nil
}

func TestLoaderFetch(t *testing.T) {
	fake := &fakeObjects{
		objects: map[string]string{
			"content/posts/app-insights.md": "---\ntitle: Insights\n---\n",
		},
		keys: []string{"content/posts/", "content/posts/app-insights.md", "content/posts/cover.jpg"},
	}
	l := &Loader{cfg: Config{Bucket: "blog", Prefix: "content/"}, api: fake, logger: zap.NewNop()}

	got, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d sources, want 1", len(got))
	}
	if got[0].ID != "posts/app-insights.md" {
		t.Errorf("ID = %q", got[0].ID)
	}
	if got[0].Text != "---\ntitle: Insights\n---\n" {
		t.Errorf("Text = %q", got[0].Text)
	}
}

func TestLoaderFetchGetError(t *testing.T) {
	fake := &fakeObjects{keys: []string{"a.md"}, getErr: errors.New("access denied")}
	l := &Loader{cfg: Config{Bucket: "blog"}, api: fake, logger: zap.NewNop()}
	_, err := l.Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "s3: get a.md") {
		t.Errorf("expected get error, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Error("expected error without bucket")
	}
}
