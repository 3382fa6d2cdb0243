package cmd

import (
	"errors"
	"fmt"

	"bloggen/config"
	"bloggen/feeds"

	"github.com/urfave/cli/v2"
)

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Notify WebSub hubs that the feed changed",
		Description: `Notifies the configured WebSub hubs that the site's RSS feed
has new content so subscribers re-fetch it.

Hubs come from the websub section of the site configuration, or can be
passed explicitly with --hub. Each ping is retried with exponential backoff.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "site.toml",
				Usage:   "Path to site configuration file",
				EnvVars: []string{"BLOGGEN_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:    "hub",
				Usage:   "WebSub hub URL, can be repeated",
				EnvVars: []string{"BLOGGEN_HUBS"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			if cfg.BaseURL == "" {
				return errors.New("please specify a base_url in the config")
			}

			hubs := ctx.StringSlice("hub")
			if len(hubs) == 0 {
				hubs = cfg.WebSub.Hubs
			}
			if len(hubs) == 0 {
				return errors.New("no WebSub hubs configured")
			}

			topic := cfg.BaseURL + "/rss.xml"

			if err := feeds.NotifyHubs(ctx.Context, hubs, topic); err != nil {
				return err
			}

			fmt.Println("Published feed update...", topic)
			return nil
		},
	}
}
