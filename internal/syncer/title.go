package syncer

import (
	"net/url"
	"path"
	"strings"

	"github.com/xxxsen/marksync/internal/model"
)

const maxTextTitleLen = 100

// DeriveTitle picks the document title for a record. An explicit non-blank
// record title always wins; otherwise the title is derived from the
// content variant, with `Bookmark-<id prefix>-<date>` as the last resort.
func DeriveTitle(b *model.Bookmark) string {
	if b.Title != nil {
		if t := strings.TrimSpace(*b.Title); t != "" {
			return t
		}
	}
	var title string
	switch b.Content.Type {
	case model.ContentTypeLink:
		title = linkTitle(b.Content.Link)
	case model.ContentTypeText:
		title = textTitle(b.Content.Text)
	case model.ContentTypeAsset:
		title = assetTitle(b.Content.Asset)
	}
	if title != "" {
		return title
	}
	prefix := b.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "Bookmark-" + prefix + "-" + b.CreatedAt.UTC().Format("2006-01-02")
}

func linkTitle(c *model.LinkContent) string {
	if c == nil {
		return ""
	}
	if c.Title != nil {
		if t := strings.TrimSpace(*c.Title); t != "" {
			return t
		}
	}
	if seg := lastPathSegment(c.URL); seg != "" {
		return seg
	}
	return hostname(c.URL)
}

func textTitle(c *model.TextContent) string {
	if c == nil {
		return ""
	}
	line := c.Text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	runes := []rune(line)
	if len(runes) > maxTextTitleLen {
		return string(runes[:maxTextTitleLen]) + "..."
	}
	return line
}

func assetTitle(c *model.AssetContent) string {
	if c == nil {
		return ""
	}
	if c.FileName != nil {
		name := strings.TrimSpace(*c.FileName)
		if name != "" {
			return strings.TrimSuffix(name, path.Ext(name))
		}
	}
	if c.SourceURL != nil {
		if seg := lastPathSegment(*c.SourceURL); seg != "" {
			return seg
		}
		return hostname(*c.SourceURL)
	}
	return ""
}

// lastPathSegment returns the last non-empty URL path segment, decoded,
// extension stripped and separators turned into spaces.
func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		if decoded, err := url.PathUnescape(seg); err == nil {
			seg = decoded
		}
		seg = strings.TrimSuffix(seg, path.Ext(seg))
		seg = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(seg)
		seg = strings.TrimSpace(seg)
		if seg != "" {
			return seg
		}
	}
	return ""
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
