package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bloggen/config"
	"bloggen/content"

	"github.com/cqroot/prompt"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

func newCmd() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Scaffold a new post",
		Description: `Creates a new Markdown post file in the content directory.

Asks for the post metadata interactively and writes a draft post with TOML
frontmatter. The slug is derived from the title.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "site.toml",
				Usage:   "Path to site configuration file",
				EnvVars: []string{"BLOGGEN_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			title, err := prompt.New().Ask("Title:").Input("My new post")
			if err != nil {
				return err
			}
			if strings.TrimSpace(title) == "" {
				return errors.New("title must not be empty")
			}

			description, err := prompt.New().Ask("Description:").Input("")
			if err != nil {
				return err
			}

			category, err := prompt.New().Ask("Category:").Input("")
			if err != nil {
				return err
			}

			tagInput, err := prompt.New().Ask("Tags (comma separated):").Input("")
			if err != nil {
				return err
			}
			tags := lo.FilterMap(strings.Split(tagInput, ","), func(tag string, _ int) (string, bool) {
				tag = strings.TrimSpace(tag)
				return tag, tag != ""
			})

			slug := content.Slug(title + ".md")
			if slug == "" {
				return errors.New("could not derive a slug from the title")
			}

			path := filepath.Join(cfg.ContentDir, slug+".md")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("post already exists: %s", path)
			}

			if err := os.MkdirAll(cfg.ContentDir, 0o755); err != nil {
				return err
			}

			var sb strings.Builder
			sb.WriteString("+++\n")
			fmt.Fprintf(&sb, "title = %q\n", title)
			fmt.Fprintf(&sb, "description = %q\n", description)
			fmt.Fprintf(&sb, "category = %q\n", category)
			if len(tags) > 0 {
				quoted := lo.Map(tags, func(tag string, _ int) string { return fmt.Sprintf("%q", tag) })
				fmt.Fprintf(&sb, "tags = [%s]\n", strings.Join(quoted, ", "))
			}
			fmt.Fprintf(&sb, "published = %s\n", time.Now().UTC().Format(time.RFC3339))
			sb.WriteString("draft = true\n")
			sb.WriteString("+++\n\nWrite your post here.\n")

			if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
				return err
			}

			fmt.Println("Created post...", path)
			return nil
		},
	}
}
