package content

import (
	"slices"
	"sort"
	"time"
)

// ListByDate returns a copy of posts ordered newest first. Posts with equal
// dates keep their input order.
func ListByDate(posts []Post) []Post {
	out := slices.Clone(posts)
	slices.SortStableFunc(out, func(a, b Post) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// FilterByTag returns the posts whose tag set contains tag, in input order.
func FilterByTag(posts []Post, tag string) []Post {
	var out []Post
	for _, p := range posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// Published drops drafts and posts scheduled after now, keeping input order.
func Published(posts []Post, now time.Time) []Post {
	var out []Post
	for _, p := range posts {
		if p.Draft || p.Date.After(now) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Tags returns the sorted, distinct normalized tags of posts.
func Tags(posts []Post) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			if n := NormalizeLabel(t); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}

// FindBySlug returns the first post with the given slug.
func FindBySlug(posts []Post, slug string) (Post, bool) {
	for _, p := range posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return Post{}, false
}

// Related returns the posts named in current.Related, in that order, followed
// by the posts sharing at least one tag with current, in input order.
func Related(current Post, posts []Post) []Post {
	var related []Post
	picked := map[string]struct{}{current.Slug: {}}
	for _, slug := range current.Related {
		if _, ok := picked[slug]; ok {
			continue
		}
		if p, ok := FindBySlug(posts, slug); ok {
			related = append(related, p)
			picked[slug] = struct{}{}
		}
	}
	for _, p := range posts {
		if _, ok := picked[p.Slug]; ok {
			continue
		}
		for _, t := range current.Tags {
			if p.HasTag(t) {
				related = append(related, p)
				picked[p.Slug] = struct{}{}
				break
			}
		}
	}
	return related
}
