package cmd

import (
	"fmt"

	"bloggen/db"

	"github.com/urfave/cli/v2"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Tidy up the content index",
		Description: `Tidy up the content index by removing orphaned posts.

		Removes index rows whose source file no longer exists on disk.
		Run after deleting or renaming post files outside of serve.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Value:   "blog.db",
				Usage:   "SQLite database file location",
				EnvVars: []string{"BLOGGEN_DATABASE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")
			fmt.Println("Database configured: ", database)
			removed, err := db.Tidy(database)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d orphaned posts\n", removed)
			return nil
		},
	}
}
