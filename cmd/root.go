package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "bloggen",
		Usage: "A personal blog server with RSS syndication",
		Description: `A personal blog engine that indexes Markdown posts into an
		SQLite content index and serves them over HTTP together with
		an RSS 2.0 feed.

		Posts live as Markdown files with TOML frontmatter in the
		content directory. Bloggen renders them once at index time and
		rebuilds the feed document from the collection on every request.

		Flags can generally be set via environment variables, e.g.:

		--database => BLOGGEN_DATABASE=blog.db
		--port => BLOGGEN_PORT=3000
		`,
		Commands: []*cli.Command{
			serveCmd(),
			indexCmd(),
			newCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
			publishCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
