package format

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xxxsen/marksync/internal/model"
)

type frontMatterFields struct {
	ID        string   `yaml:"id"`
	URL       string   `yaml:"url,omitempty"`
	Created   string   `yaml:"created"`
	Modified  string   `yaml:"modified"`
	Tags      []string `yaml:"tags,omitempty"`
	Favourite bool     `yaml:"favourite"`
	Archived  bool     `yaml:"archived"`
}

func frontMatter(b *model.Bookmark) (string, error) {
	fields := frontMatterFields{
		ID:        b.ID,
		URL:       recordURL(b),
		Created:   b.CreatedAt.UTC().Format(time.RFC3339),
		Modified:  b.EffectiveModified().UTC().Format(time.RFC3339),
		Favourite: b.Favourited,
		Archived:  b.Archived,
	}
	for _, t := range b.Tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			fields.Tags = append(fields.Tags, name)
		}
	}
	data, err := yaml.Marshal(fields)
	if err != nil {
		return "", err
	}
	return "---\n" + string(data) + "---\n\n", nil
}

func recordURL(b *model.Bookmark) string {
	switch {
	case b.Content.Link != nil:
		return b.Content.Link.URL
	case b.Content.Text != nil:
		return strDeref(b.Content.Text.SourceURL)
	case b.Content.Asset != nil:
		return strDeref(b.Content.Asset.SourceURL)
	}
	return ""
}
