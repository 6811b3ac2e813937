package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/index"
	"github.com/eringen/pubcontent/internal/logger"
	"github.com/eringen/pubcontent/views"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the blog over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides config)"},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg := siteConfig(c)
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}
	log := logger.FromContext(c.Context)

	loader, err := buildLoader(c.Context, cfg)
	if err != nil {
		return err
	}
	var loadOpts []content.LoadOption
	if cfg.ExcludeInvalid {
		loadOpts = append(loadOpts, content.ExcludeInvalid())
	}
	lib := pubcontent.NewLibrary(loader,
		pubcontent.WithTTL(cfg.PostCacheTTL),
		pubcontent.WithLogger(log),
		pubcontent.WithLoadOptions(loadOpts...),
	)

	var opts []pubcontent.Option
	if cfg.IndexPath != "" {
		idx, err := index.Open(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()
		opts = append(opts, pubcontent.WithIndex(idx))
	}

	app := pubcontent.New(cfg, lib, defaultViews(cfg), log, opts...)
	defer app.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cyan.Fprintf(c.App.Writer, "serving %s on %s\n", cfg.URL, cfg.Addr)
	return app.Start(ctx)
}

// defaultViews wires the views package into the App.
func defaultViews(cfg pubcontent.SiteConfig) pubcontent.ViewFuncs {
	site := views.Site{
		Name:        cfg.Name,
		URL:         cfg.URL,
		Description: cfg.Description,
		Author:      cfg.Author,
	}
	return pubcontent.ViewFuncs{
		Home:           site.Home,
		Post:           site.Post,
		AdminLogin:     site.AdminLogin,
		AdminDashboard: site.AdminDashboard,
		NotFound:       site.NotFound,
		ServerError:    site.ServerError,
	}
}
