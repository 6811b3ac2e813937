// Package index keeps a SQLite copy of a loaded post set for search tools.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubcontent/content"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("index: post not found")

// dateLayout is fixed-width so stored dates sort as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Index wraps a SQLite database holding one post set.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("index: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}
	// WAL lets readers run while Replace rewrites the set.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: pragmas: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	idx := &Index{db: db}
	if err := idx.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: schema: %w", err)
	}
	return idx, nil
}

// Close closes the underlying database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) ensureSchema() error {
	if err := x.migrate(); err != nil {
		return err
	}
	_, err := x.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    source_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    date TEXT NOT NULL,
    updated TEXT NOT NULL,
    tag_names TEXT NOT NULL,
    keywords TEXT NOT NULL,
    draft INTEGER NOT NULL DEFAULT 0,
    body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_date ON posts (date DESC, seq);
CREATE TABLE IF NOT EXISTS post_tags (
    slug TEXT NOT NULL,
    tag TEXT NOT NULL,
    PRIMARY KEY (slug, tag)
);
CREATE INDEX IF NOT EXISTS post_tags_tag ON post_tags (tag);
`)
	return err
}

// migrate drops a posts table from the older layout that kept tags in a
// comma-joined column. The index only holds derived data; the next Replace
// fills it again.
func (x *Index) migrate() error {
	var n int
	if err := x.db.QueryRow(`SELECT count(*) FROM pragma_table_info('posts') WHERE name = 'tags'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	_, err := x.db.Exec(`DROP TABLE posts`)
	return err
}

// Replace swaps the stored set for posts in a single transaction. Posts are
// stored in ListByDate order; of several posts sharing a slug the newest is
// kept.
func (x *Index) Replace(ctx context.Context, posts []content.Post) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags`); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}
	postStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO posts
		(slug, seq, source_id, title, description, date, updated, tag_names, keywords, draft, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare: %w", err)
	}
	defer postStmt.Close()
	tagStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO post_tags (slug, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare tags: %w", err)
	}
	defer tagStmt.Close()

	for i, p := range content.ListByDate(posts) {
		updated := ""
		if !p.Updated.IsZero() {
			updated = p.Updated.UTC().Format(dateLayout)
		}
		draft := 0
		if p.Draft {
			draft = 1
		}
		res, err := postStmt.ExecContext(ctx,
			p.Slug, i, p.ID, p.Title, p.Description,
			p.Date.UTC().Format(dateLayout), updated,
			strings.Join(p.Tags, "\x1f"), strings.Join(p.Keywords, "\x1f"),
			draft, p.Body,
		)
		if err != nil {
			return fmt.Errorf("index: insert %s: %w", p.Slug, err)
		}
		// An ignored row is an older post with a slug already stored.
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			continue
		}
		for _, t := range p.Tags {
			tag := content.NormalizeLabel(t)
			if tag == "" {
				continue
			}
			if _, err := tagStmt.ExecContext(ctx, p.Slug, tag); err != nil {
				return fmt.Errorf("index: insert tag %s/%s: %w", p.Slug, tag, err)
			}
		}
	}
	return tx.Commit()
}

const selectPost = `SELECT slug, source_id, title, description, date, updated, tag_names, keywords, draft, body FROM posts`

// ListPosts returns posts newest first. If tag is non-empty, results are
// filtered to posts carrying that tag.
func (x *Index) ListPosts(tag string) ([]content.Post, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = x.db.Query(selectPost + ` ORDER BY date DESC, seq`)
	} else {
		rows, err = x.db.Query(selectPost+` WHERE slug IN (SELECT slug FROM post_tags WHERE tag = ?) ORDER BY date DESC, seq`, content.NormalizeLabel(tag))
	}
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// Search returns posts whose title, description, keywords or body contain
// query (case-insensitive), newest first.
func (x *Index) Search(query string) ([]content.Post, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	rows, err := x.db.Query(selectPost+` WHERE lower(title) LIKE ?1 ESCAPE '\'
		OR lower(description) LIKE ?1 ESCAPE '\'
		OR lower(keywords) LIKE ?1 ESCAPE '\'
		OR lower(body) LIKE ?1 ESCAPE '\'
		ORDER BY date DESC, seq`, pattern)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListTags returns a sorted, deduplicated slice of all normalized tags.
func (x *Index) ListTags() ([]string, error) {
	rows, err := x.db.Query(`SELECT DISTINCT tag FROM post_tags ORDER BY tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetPost returns a single post by slug.
func (x *Index) GetPost(slug string) (content.Post, error) {
	rows, err := x.db.Query(selectPost+` WHERE slug = ?`, slug)
	if err != nil {
		return content.Post{}, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return content.Post{}, err
	}
	if len(posts) == 0 {
		return content.Post{}, ErrNotFound
	}
	return posts[0], nil
}

// Count returns the number of stored posts.
func (x *Index) Count() (int, error) {
	var n int
	err := x.db.QueryRow(`SELECT count(*) FROM posts`).Scan(&n)
	return n, err
}

func scanPosts(rows *sql.Rows) ([]content.Post, error) {
	defer rows.Close()
	var posts []content.Post
	for rows.Next() {
		var p content.Post
		var date, updated, tags, keywords string
		var draft int
		if err := rows.Scan(&p.Slug, &p.ID, &p.Title, &p.Description, &date, &updated, &tags, &keywords, &draft, &p.Body); err != nil {
			return nil, err
		}
		var err error
		if p.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("index: %s: bad date %q: %w", p.Slug, date, err)
		}
		if updated != "" {
			if p.Updated, err = time.Parse(dateLayout, updated); err != nil {
				return nil, fmt.Errorf("index: %s: bad updated %q: %w", p.Slug, updated, err)
			}
		}
		p.Tags = splitList(tags)
		p.Keywords = splitList(keywords)
		p.Draft = draft == 1
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x1f")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
