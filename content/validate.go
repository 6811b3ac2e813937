package content

import (
	"fmt"
	"strings"
)

// Validate checks the post invariants. A nil result means the post is valid.
func Validate(p Post) []ValidationIssue {
	var issues []ValidationIssue
	add := func(field, msg string) {
		issues = append(issues, ValidationIssue{ID: p.ID, Field: field, Message: msg})
	}

	if strings.TrimSpace(p.Title) == "" {
		add("title", "title is empty")
	}
	if p.Date.IsZero() {
		add("date", "date is missing")
	}
	if p.Slug == "" {
		add("slug", "no slug could be derived")
	}
	for i, t := range p.Tags {
		if strings.TrimSpace(t) == "" {
			add(fmt.Sprintf("tags[%d]", i), "tag is empty")
		}
	}
	for i, k := range p.Keywords {
		if strings.TrimSpace(k) == "" {
			add(fmt.Sprintf("keywords[%d]", i), "keyword is empty")
		}
	}
	if !p.Updated.IsZero() && !p.Date.IsZero() && p.Updated.Before(p.Date) {
		add("updated", "updated precedes date")
	}
	return issues
}
