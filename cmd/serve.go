package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"bloggen/config"
	"bloggen/content"
	"bloggen/db"
	"bloggen/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the blog",
		Description: `Starts the blog HTTP server and content watcher.

Runs database migrations, indexes the content directory and launches the
HTTP server on the specified or default port. Edits to post files are picked
up by the watcher and re-indexed while the server runs.`,
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
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"BLOGGEN_PORT"},
			},
		},
		Action: func(ctx *cli.Context) error {

			fmt.Println("Starting bloggen...")

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
			bc := server.NewBroadcaster()

			ix := content.NewIndexer(cfg.ContentDir, d, postChan)

			// Pump index events into the SSE broadcaster before the first
			// full index so nothing blocks on an unread channel
			go func() {
				for event := range postChan {
					bc.Broadcast(event)
				}
			}()

			count, err := ix.IndexAll(ctx.Context)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d posts\n", count)

			app := server.Server(&server.ServerConfig{
				Site:        cfg,
				DB:          d,
				Broadcaster: bc,
			})

			watchCtx, cancelWatch := context.WithCancel(ctx.Context)
			defer cancelWatch()

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			var wg sync.WaitGroup

			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				app.ShutdownWithTimeout(60 * time.Second)
				defer wg.Add(-2) // Decrement the waitgroup counter by 2 after shutdown of server and watcher
				cancelWatch()
				bc.Shutdown()
			}()

			go func() {
				fmt.Println("Watching content directory...")
				if err := ix.Watch(watchCtx); err != nil {
					log.Error("Watcher stopped", err)
				}
			}()

			go func() {
				fmt.Println("Starting server...")
				if err := app.Listen(fmt.Sprintf(":%d", ctx.Int("port"))); err != nil {
					log.Panic(err)
				}
			}()

			// Wait for both the server and watcher to shutdown
			wg.Add(2)
			wg.Wait()

			fmt.Println("Done!")

			return nil
		},
	}
}
