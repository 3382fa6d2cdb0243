package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const frontmatterFence = "+++"

// Frontmatter is the TOML metadata block at the top of a post file
type Frontmatter struct {
	Title       string    `toml:"title"`
	Description string    `toml:"description"`
	Category    string    `toml:"category"`
	Tags        []string  `toml:"tags,omitempty"`
	Published   time.Time `toml:"published"`
	Draft       bool      `toml:"draft,omitempty"`
}

// SplitFrontmatter separates the TOML frontmatter from the Markdown body.
// Posts must start with a +++ fence on its own line.
func SplitFrontmatter(src []byte) (*Frontmatter, []byte, error) {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")

	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return nil, nil, fmt.Errorf("missing frontmatter fence")
	}

	rest := text[len(frontmatterFence)+1:]
	end := strings.Index(rest, "\n"+frontmatterFence)
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter fence")
	}

	meta := rest[:end]
	body := rest[end+len(frontmatterFence)+1:]
	body = strings.TrimPrefix(body, "\n")

	var fm Frontmatter
	if err := toml.Unmarshal([]byte(meta), &fm); err != nil {
		return nil, nil, fmt.Errorf("error parsing frontmatter: %w", err)
	}

	if fm.Title == "" {
		return nil, nil, fmt.Errorf("post is missing a title")
	}
	if fm.Published.IsZero() {
		return nil, nil, fmt.Errorf("post is missing a published date")
	}

	return &fm, []byte(body), nil
}
