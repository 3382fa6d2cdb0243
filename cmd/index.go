package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"bloggen/config"
	"bloggen/content"
	"bloggen/db"
	"bloggen/models"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Index the content directory",
		Description: `Walks the content directory and writes every post to the
content index. Runs migrations first if needed.

Returns each indexed post as a JSON object on a single line. Use a tool like jq
to process the output.

Prints all other log messages to stderr.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "site.toml",
				Usage:   "Path to site configuration file",
				EnvVars: []string{"BLOGGEN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "SQLite database file location",
				EnvVars: []string{"BLOGGEN_DATABASE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			// Disable logging to stdout
			log.SetOutput(os.Stderr)

			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			database := ctx.String("database")
			if database == "" {
				database = cfg.Database
			}
			if database == "" {
				database = "blog.db"
			}

			if err := db.Migrate(database); err != nil {
				return err
			}

			d, err := db.NewDB(database)
			if err != nil {
				return err
			}
			defer d.Close()

			// Channel for announcing indexed posts
			postChan := make(chan interface{})
			done := make(chan struct{})

			go func() {
				defer close(done)
				for message := range postChan {
					switch message := message.(type) {
					case models.PostIndexedEvent:
						printStdout(&message.Post)
					case models.PostRemovedEvent:
						printStdout(&message.Post)
					}
				}
			}()

			ix := content.NewIndexer(cfg.ContentDir, d, postChan)
			count, err := ix.IndexAll(ctx.Context)

			close(postChan)
			<-done

			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Indexed %d posts\n", count)
			return nil
		},
	}
}

func printStdout(post *models.Post) {
	// Print as single JSON string on a single line
	postJson, err := json.Marshal(post)
	if err == nil {
		fmt.Println(string(postJson))
	}
}
