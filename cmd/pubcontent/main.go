package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pubcontent",
		Usage:   "check, list, index and serve front-matter Markdown posts",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "pubcontent.yaml",
				EnvVars: []string{"PUBCONTENT_CONFIG"},
				Usage:   "YAML config file; missing file means environment only",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "read posts from this directory instead of the configured source",
			},
			// -v belongs to the --version flag cli adds when Version is set.
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "debug logging",
			},
		},
		Before: setup,
		After: func(c *cli.Context) error {
			_ = logger.FromContext(c.Context).Sync()
			return nil
		},
		Commands: []*cli.Command{
			lintCommand(),
			listCommand(),
			indexCommand(),
			serveCommand(),
			{
				Name:  "version",
				Usage: "print the pubcontent version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "pubcontent %s\n", version)
					return nil
				},
			},
		},
	}
}

const configKey = "config"

// setup reads the configuration and builds the logger every command uses.
// Commands other than serve only log warnings unless --verbose is set.
func setup(c *cli.Context) error {
	cfg, err := pubcontent.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if dir := c.String("dir"); dir != "" {
		cfg.Source = pubcontent.SourceConfig{Kind: pubcontent.SourceDir, Dir: dir, Exts: cfg.Source.Exts}
	}

	level := cfg.LogLevel
	switch {
	case c.Bool("verbose"):
		level = "debug"
	case c.Args().First() != "serve":
		level = "warn"
	}
	log, err := logger.NewLogger(cfg.Env, level)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	c.Context = logger.ContextWithLogger(c.Context, log)
	log.Debug("config loaded", zap.String("source", cfg.Source.Kind), zap.String("env", cfg.Env))
	return nil
}

func siteConfig(c *cli.Context) pubcontent.SiteConfig {
	cfg, _ := c.App.Metadata[configKey].(pubcontent.SiteConfig)
	return cfg
}
