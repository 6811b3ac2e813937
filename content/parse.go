package content

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// dateLayouts are tried in order. Layouts without a zone parse as UTC.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 -0700",
}

var reDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// ParseDate parses a front-matter timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Parse turns a single source document into a Post. The returned error is
// always a *LoadError. Parse does not validate; see Validate.
func Parse(src Source) (Post, error) {
	meta, metaLine, body, lerr := splitFrontMatter(src)
	if lerr != nil {
		return Post{}, lerr
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(meta), &doc); err != nil {
		return Post{}, &LoadError{ID: src.ID, Line: metaLine, Err: ErrMalformedMetadata, Detail: err.Error()}
	}

	fm := frontMatter{id: src.ID, offset: metaLine - 1}
	if len(doc.Content) > 0 {
		root := resolve(doc.Content[0])
		if root.Kind != yaml.MappingNode {
			return Post{}, fm.errorf(root, "", "metadata block is not a key/value mapping")
		}
		if err := fm.decode(root); err != nil {
			return Post{}, err
		}
	}

	if !fm.hasTitle {
		return Post{}, &LoadError{ID: src.ID, Line: metaLine, Field: "title", Err: ErrMalformedMetadata, Detail: "required field is missing"}
	}
	if !fm.hasDate {
		return Post{}, &LoadError{ID: src.ID, Line: metaLine, Field: "date", Err: ErrMalformedMetadata, Detail: "required field is missing"}
	}

	p := fm.post
	p.ID = src.ID
	p.Body = body
	if p.Slug == "" {
		p.Slug = slugFromID(src.ID)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	return p, nil
}

// splitFrontMatter separates the metadata block from the body. metaLine is
// the 1-based source line of the first line inside the block.
func splitFrontMatter(src Source) (meta string, metaLine int, body string, err *LoadError) {
	text := strings.TrimPrefix(src.Text, "\ufeff")
	lines := strings.SplitAfter(text, "\n")

	open := 0
	for open < len(lines) && strings.TrimSpace(lines[open]) == "" {
		open++
	}
	if open == len(lines) || trimLine(lines[open]) != "---" {
		return "", 0, "", &LoadError{ID: src.ID, Line: open + 1, Err: ErrMalformedMetadata, Detail: "document does not start with a --- metadata block"}
	}

	for i := open + 1; i < len(lines); i++ {
		if l := trimLine(lines[i]); l == "---" || l == "..." {
			meta = strings.Join(lines[open+1:i], "")
			body = strings.Join(lines[i+1:], "")
			return meta, open + 2, body, nil
		}
	}
	return "", 0, "", &LoadError{ID: src.ID, Line: open + 1, Err: ErrUnterminatedBlock, Detail: "no closing --- line"}
}

func trimLine(l string) string {
	return strings.TrimRight(l, " \t\r\n")
}

type frontMatter struct {
	id     string
	offset int

	post     Post
	hasTitle bool
	hasDate  bool
}

func (fm *frontMatter) decode(root *yaml.Node) error {
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		val := resolve(root.Content[i+1])
		key := strings.ToLower(strings.TrimSpace(keyNode.Value))

		var err error
		switch key {
		case "title":
			var s string
			var ok bool
			s, ok, err = fm.scalar(key, val)
			fm.post.Title, fm.hasTitle = s, ok
		case "description":
			fm.post.Description, _, err = fm.scalar(key, val)
		case "slug":
			var s string
			s, _, err = fm.scalar(key, val)
			fm.post.Slug = strings.TrimSpace(s)
		case "tags":
			fm.post.Tags, err = fm.labels(key, val)
		case "keywords":
			fm.post.Keywords, err = fm.labels(key, val)
		case "related":
			fm.post.Related, err = fm.labels(key, val)
		case "date":
			var t time.Time
			t, err = fm.timestamp(key, val)
			fm.post.Date, fm.hasDate = t, err == nil && !t.IsZero()
		case "updated", "lastmod":
			fm.post.Updated, err = fm.timestamp(key, val)
		case "draft":
			fm.post.Draft, err = fm.boolean(key, val)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// scalar returns the value of a scalar field. A null value counts as absent.
func (fm *frontMatter) scalar(key string, n *yaml.Node) (string, bool, error) {
	if isNull(n) {
		return "", false, nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", false, fm.errorf(n, key, "expected a string")
	}
	return n.Value, true, nil
}

// labels accepts a sequence of scalars, or a single scalar as a one-element list.
func (fm *frontMatter) labels(key string, n *yaml.Node) ([]string, error) {
	var items []*yaml.Node
	switch {
	case isNull(n):
		return nil, nil
	case n.Kind == yaml.ScalarNode:
		items = []*yaml.Node{n}
	case n.Kind == yaml.SequenceNode:
		items = n.Content
	default:
		return nil, fm.errorf(n, key, "expected a list of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = resolve(item)
		if item.Kind != yaml.ScalarNode {
			return nil, fm.errorf(item, key, "expected a list of strings")
		}
		out = append(out, item.Value)
	}
	return collapseLabels(out), nil
}

func (fm *frontMatter) timestamp(key string, n *yaml.Node) (time.Time, error) {
	if isNull(n) {
		return time.Time{}, nil
	}
	if n.Kind != yaml.ScalarNode {
		return time.Time{}, fm.errorf(n, key, "expected a timestamp")
	}
	t, err := ParseDate(n.Value)
	if err != nil {
		return time.Time{}, fm.errorf(n, key, err.Error())
	}
	return t, nil
}

func (fm *frontMatter) boolean(key string, n *yaml.Node) (bool, error) {
	if isNull(n) {
		return false, nil
	}
	var b bool
	if n.Kind != yaml.ScalarNode || n.Decode(&b) != nil {
		return false, fm.errorf(n, key, "expected true or false")
	}
	return b, nil
}

func (fm *frontMatter) errorf(n *yaml.Node, field, detail string) *LoadError {
	line := 0
	if n.Line > 0 {
		line = fm.offset + n.Line
	}
	return &LoadError{ID: fm.id, Line: line, Field: field, Err: ErrMalformedMetadata, Detail: detail}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// slugFromID derives a slug from a source identifier such as
// "posts/2017-09-14-azure-functions-di.md".
func slugFromID(id string) string {
	base := path.Base(strings.ReplaceAll(id, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = reDatePrefix.ReplaceAllString(base, "")
	return Slugify(base)
}
