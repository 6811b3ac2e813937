// Package content parses blog post source documents into immutable Post
// records and exposes ordered and filtered views over them.
//
// A source document is a front-matter metadata block delimited by "---"
// lines, holding YAML key/value pairs, followed by a free-text Markdown body.
// The package performs no I/O: callers hand it Sources read by a loader.
package content

import (
	"strings"
	"time"
)

// Source is a raw document as supplied by a loader.
type Source struct {
	ID   string // identifier, usually a slash-separated path
	Text string
}

// Post is a single loaded content record. Posts are values; nothing in this
// package mutates a Post or its slices after Parse returns it.
type Post struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Tags        []string
	Keywords    []string
	Date        time.Time
	Updated     time.Time // zero when the source carries no update stamp
	Draft       bool
	Related     []string // slugs named in front matter
	Body        string
}

// HasTag reports whether tag is in the post's tag set.
func (p Post) HasTag(tag string) bool {
	return containsLabel(p.Tags, tag)
}

// HasKeyword reports whether kw is in the post's keyword set.
func (p Post) HasKeyword(kw string) bool {
	return containsLabel(p.Keywords, kw)
}

// LastModified returns Updated when it is later than Date, Date otherwise.
func (p Post) LastModified() time.Time {
	if p.Updated.After(p.Date) {
		return p.Updated
	}
	return p.Date
}

// Link returns the site-relative path of the post.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// NormalizeLabel returns the comparison form of a tag or keyword.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsLabel(labels []string, want string) bool {
	want = NormalizeLabel(want)
	if want == "" {
		return false
	}
	for _, l := range labels {
		if NormalizeLabel(l) == want {
			return true
		}
	}
	return false
}

// collapseLabels drops duplicate labels, keeping the first spelling seen.
func collapseLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		key := NormalizeLabel(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
