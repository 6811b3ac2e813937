package markdown

import (
	"errors"
	"strings"
)

// ErrUnclosedFence is returned by Split when a code fence is opened but the
// body ends before it is closed.
var ErrUnclosedFence = errors.New("markdown: unclosed code fence")

// Block is a run of prose or a fenced code example.
type Block struct {
	Code bool
	Lang string // info string of the opening fence, code blocks only
	Text string
	Line int // 1-based line where the block starts
}

// Split cuts body at code fence boundaries. Prose and code alternate in the
// order they appear; empty prose runs are omitted. On ErrUnclosedFence the
// unclosed remainder is returned as a final code block.
func Split(body string) ([]Block, error) {
	var (
		blocks []Block
		cur    strings.Builder
		fence  string // opening marker while inside a fence
		start  = 1
	)
	flush := func(b Block) {
		b.Text = cur.String()
		cur.Reset()
		if !b.Code && strings.TrimSpace(b.Text) == "" {
			return
		}
		blocks = append(blocks, b)
	}

	lines := strings.SplitAfter(body, "\n")
	var open Block
	for i, raw := range lines {
		trimmed := strings.TrimLeft(strings.TrimRight(raw, "\r\n"), " ")
		marker := fenceMarker(trimmed)
		switch {
		case fence == "" && marker != "":
			flush(Block{Line: start})
			fence = marker
			open = Block{Code: true, Lang: strings.TrimSpace(trimmed[len(marker):]), Line: i + 1}
			start = i + 2
		case fence != "" && marker != "" && strings.HasPrefix(trimmed, fence) && strings.TrimSpace(trimmed[len(marker):]) == "":
			flush(open)
			fence = ""
			start = i + 2
		default:
			cur.WriteString(raw)
		}
	}
	if fence != "" {
		flush(open)
		return blocks, ErrUnclosedFence
	}
	flush(Block{Line: start})
	return blocks, nil
}

// fenceMarker returns the run of three or more backticks or tildes that
// opens line, or "".
func fenceMarker(line string) string {
	if len(line) < 3 || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}
