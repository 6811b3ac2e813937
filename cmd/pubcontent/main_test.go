package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/eringen/pubcontent/index"
)

func init() {
	color.NoColor = true
}

func writePosts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// run executes the CLI and returns stdout, stderr and the exit code carried
// by the returned error (0 when nil).
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	// Keep the developer's own config file out of the test.
	full := append([]string{"pubcontent", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	err := app.Run(full)
	code := 0
	if err != nil {
		code = 1
		if ec, ok := err.(cli.ExitCoder); ok {
			code = ec.ExitCode()
			stderr.WriteString(err.Error())
		}
	}
	return stdout.String(), stderr.String(), code
}

var goodPosts = map[string]string{
	"2017-09-14-functions.md": "---\ntitle: Azure Functions DI\ndate: 2017-09-14\ntags: [azure, functions]\n---\nBody\n",
	"storage.md":              "---\ntitle: Table storage\ndate: 2017-05-03\ntags: [azure, storage]\n---\nBody\n",
	"drafts/jwt.md":           "---\ntitle: Validating JWTs\ndate: 2017-10-01\ndraft: true\n---\nBody\n",
}

func TestLintClean(t *testing.T) {
	dir := writePosts(t, goodPosts)
	out, _, code := run(t, "--dir", dir, "lint")
	if code != 0 {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "✓ 3 documents, 3 posts, 0 rejected, 0 issues") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestLintRejected(t *testing.T) {
	dir := writePosts(t, map[string]string{
		"good.md":    goodPosts["storage.md"],
		"open.md":    "---\ntitle: Open\ndate: 2017-01-01\n",
		"notitle.md": "---\ndate: 2017-01-01\n---\n",
	})
	out, stderr, code := run(t, "--dir", dir, "lint")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "open.md:1: unterminated metadata block") {
		t.Errorf("missing unterminated error:\n%s", out)
	}
	if !strings.Contains(out, "notitle.md") || !strings.Contains(out, "malformed metadata (title)") {
		t.Errorf("missing malformed error:\n%s", out)
	}
	if !strings.Contains(stderr, "3 documents, 1 posts, 2 rejected") {
		t.Errorf("unexpected summary:\n%s", stderr)
	}
}

func TestLintStrict(t *testing.T) {
	dir := writePosts(t, map[string]string{
		"fence.md": "---\ntitle: Fence\ndate: 2017-01-01\n---\nText\n```go\nfunc main() {}\n",
	})

	out, _, code := run(t, "--dir", dir, "lint")
	if code != 0 {
		t.Fatalf("non-strict exit code = %d", code)
	}
	if !strings.Contains(out, "fence.md: body line 2: code fence is never closed") {
		t.Errorf("missing fence warning:\n%s", out)
	}

	_, _, code = run(t, "--dir", dir, "lint", "--strict")
	if code != 1 {
		t.Errorf("strict exit code = %d, want 1", code)
	}
}

func TestList(t *testing.T) {
	dir := writePosts(t, goodPosts)

	out, _, code := run(t, "--dir", dir, "list")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "2017-09-14") || !strings.Contains(lines[1], "functions") {
		t.Errorf("first row = %q", lines[1])
	}
	if strings.Contains(out, "jwt") {
		t.Error("drafts are hidden without --all")
	}

	out, _, _ = run(t, "--dir", dir, "list", "--all", "--tag", "storage")
	if !strings.Contains(out, "Table storage") || strings.Contains(out, "Azure Functions DI") {
		t.Errorf("tag filter failed:\n%s", out)
	}

	out, _, _ = run(t, "--dir", dir, "list", "--all")
	if !strings.Contains(out, "jwt (draft)") {
		t.Errorf("--all should include drafts:\n%s", out)
	}
}

func TestIndex(t *testing.T) {
	dir := writePosts(t, goodPosts)
	dbPath := filepath.Join(t.TempDir(), "out", "index.db")

	out, _, code := run(t, "--dir", dir, "index", "--out", dbPath)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "✓ indexed 2 posts into "+dbPath) {
		t.Errorf("unexpected output:\n%s", out)
	}

	idx, err := index.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer idx.Close()
	n, err := idx.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestVersion(t *testing.T) {
	out, _, code := run(t, "version")
	if code != 0 || strings.TrimSpace(out) != "pubcontent dev" {
		t.Errorf("version output = %q (code %d)", out, code)
	}
}

func TestGlobalFlags(t *testing.T) {
	out, _, code := run(t, "-v")
	if code != 0 || strings.TrimSpace(out) != "pubcontent version dev" {
		t.Errorf("-v output = %q (code %d)", out, code)
	}

	out, _, code = run(t, "--help")
	if code != 0 {
		t.Fatalf("--help exit code = %d", code)
	}
	for _, want := range []string{"lint", "list", "index", "serve", "--verbose"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}

	dir := writePosts(t, goodPosts)
	if _, _, code := run(t, "--verbose", "--dir", dir, "lint"); code != 0 {
		t.Errorf("--verbose lint exit code = %d", code)
	}
}
