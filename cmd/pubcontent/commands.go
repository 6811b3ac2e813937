package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/index"
	"github.com/eringen/pubcontent/markdown"
)

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:  "lint",
		Usage: "parse and validate every post; exit 1 on rejected documents",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "also exit 1 on validation issues"},
		},
		Action: runLint,
	}
}

func runLint(c *cli.Context) error {
	report, err := loadReport(c.Context, siteConfig(c))
	if err != nil {
		return cli.Exit(red.Sprintf("✗ load failed: %v", err), 2)
	}
	out := c.App.Writer

	for _, e := range report.Errors {
		red.Fprintf(out, "✗ %s\n", e)
	}
	issues := len(report.Issues)
	for _, is := range report.Issues {
		yellow.Fprintf(out, "! %s\n", is)
	}
	for _, p := range content.ListByDate(report.Posts) {
		blocks, err := markdown.Split(p.Body)
		if errors.Is(err, markdown.ErrUnclosedFence) {
			line := 0
			if len(blocks) > 0 {
				line = blocks[len(blocks)-1].Line
			}
			yellow.Fprintf(out, "! %s: body line %d: code fence is never closed\n", p.ID, line)
			issues++
		}
	}
	for _, id := range report.Excluded {
		yellow.Fprintf(out, "! %s: excluded\n", id)
	}

	summary := fmt.Sprintf("%d documents, %d posts, %d rejected, %d issues",
		report.Total, len(report.Posts), len(report.Errors), issues)
	switch {
	case len(report.Errors) > 0:
		return cli.Exit(red.Sprintf("✗ %s", summary), 1)
	case issues > 0 && c.Bool("strict"):
		return cli.Exit(yellow.Sprintf("✗ %s", summary), 1)
	}
	green.Fprintf(out, "✓ %s\n", summary)
	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list posts newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "only posts with this tag"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "include drafts and scheduled posts"},
		},
		Action: runList,
	}
}

func runList(c *cli.Context) error {
	report, err := loadReport(c.Context, siteConfig(c))
	if err != nil {
		return cli.Exit(red.Sprintf("✗ load failed: %v", err), 2)
	}
	posts := selectPosts(report, c.Bool("all"))
	if tag := c.String("tag"); tag != "" {
		posts = content.FilterByTag(posts, tag)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAGE\tSLUG\tTITLE\tTAGS")
	for _, p := range posts {
		slug := p.Slug
		if p.Draft {
			slug += " (draft)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Date.Format("2006-01-02"), humanize.Time(p.Date), slug, p.Title, strings.Join(p.Tags, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := len(report.Errors); n > 0 {
		yellow.Fprintf(c.App.ErrWriter, "! %d documents rejected; run pubcontent lint for details\n", n)
	}
	return nil
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "write the posts into a SQLite search index",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "index file (default: index_path from config, else data/index.db)"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "include drafts and scheduled posts"},
		},
		Action: runIndex,
	}
}

func runIndex(c *cli.Context) error {
	cfg := siteConfig(c)
	out := c.String("out")
	if out == "" {
		out = cfg.IndexPath
	}
	if out == "" {
		out = "data/index.db"
	}

	report, err := loadReport(c.Context, cfg)
	if err != nil {
		return cli.Exit(red.Sprintf("✗ load failed: %v", err), 2)
	}
	posts := selectPosts(report, c.Bool("all"))

	idx, err := index.Open(out)
	if err != nil {
		return err
	}
	defer idx.Close()
	if err := idx.Replace(c.Context, posts); err != nil {
		return err
	}

	size := ""
	if info, err := os.Stat(out); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	green.Fprintf(c.App.Writer, "✓ indexed %d posts into %s%s\n", len(posts), out, size)
	if n := len(report.Errors); n > 0 {
		yellow.Fprintf(c.App.ErrWriter, "! %d documents rejected; run pubcontent lint for details\n", n)
	}
	return nil
}

func selectPosts(report *content.Report, all bool) []content.Post {
	posts := content.ListByDate(report.Posts)
	if all {
		return posts
	}
	return content.Published(posts, time.Now())
}
