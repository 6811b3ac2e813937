package content

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Report is the outcome of a batch load.
type Report struct {
	Posts    []Post            // loaded posts, in input order
	Errors   []*LoadError      // rejected documents, in input order
	Issues   []ValidationIssue // non-fatal problems in parsed posts
	Excluded []string          // IDs dropped by ExcludeInvalid
	Total    int               // number of sources offered
}

// OK reports whether every document parsed.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// ErrorsByKind counts load errors per kind name.
func (r *Report) ErrorsByKind() map[string]int {
	out := make(map[string]int)
	for _, e := range r.Errors {
		out[e.Kind()]++
	}
	return out
}

type loadConfig struct {
	concurrency    int
	excludeInvalid bool
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithConcurrency bounds the number of documents parsed at once.
// Values below 1 mean one.
func WithConcurrency(n int) LoadOption {
	return func(c *loadConfig) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// ExcludeInvalid drops posts that parse but fail Validate. By default such
// posts are kept and their issues reported.
func ExcludeInvalid() LoadOption {
	return func(c *loadConfig) {
		c.excludeInvalid = true
	}
}

type parseResult struct {
	post Post
	err  *LoadError
}

// Load parses every source independently. A failing document is reported in
// Report.Errors and never stops the others from loading.
func Load(sources []Source, opts ...LoadOption) *Report {
	cfg := loadConfig{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&cfg)
	}

	results := make([]parseResult, len(sources))
	var g errgroup.Group
	g.SetLimit(cfg.concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			p, err := Parse(src)
			if err != nil {
				var lerr *LoadError
				if !errors.As(err, &lerr) {
					lerr = &LoadError{ID: src.ID, Err: ErrMalformedMetadata, Detail: err.Error()}
				}
				results[i].err = lerr
				return nil
			}
			results[i].post = p
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Total: len(sources)}
	for _, r := range results {
		if r.err != nil {
			report.Errors = append(report.Errors, r.err)
			continue
		}
		issues := Validate(r.post)
		report.Issues = append(report.Issues, issues...)
		if len(issues) > 0 && cfg.excludeInvalid {
			report.Excluded = append(report.Excluded, r.post.ID)
			continue
		}
		report.Posts = append(report.Posts, r.post)
	}
	return report
}
