package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/marksync/internal/config"
	"github.com/xxxsen/marksync/internal/model"
	"github.com/xxxsen/marksync/internal/source"
)

// AssetFetcher re-hosts a remote binary into the target store. "" means
// the asset could not be fetched or uploaded.
type AssetFetcher interface {
	FetchAndRehost(ctx context.Context, assetURL, idHint, titleHint string) string
}

// Formatter renders a bookmark record into a Markdown document body.
type Formatter struct {
	assets         AssetFetcher
	conv           HTMLConverter
	endpoint       string
	downloadAssets bool
	frontMatter    bool
}

func New(assets AssetFetcher, conv HTMLConverter, endpoint string, cfg config.SyncConfig) *Formatter {
	return &Formatter{
		assets:         assets,
		conv:           conv,
		endpoint:       endpoint,
		downloadAssets: cfg.DownloadAssets,
		frontMatter:    cfg.FrontMatter,
	}
}

// Format renders the document body. Sections appear in fixed order, each
// conditional on data presence; asset failures degrade to fallback links
// and never fail the record.
func (f *Formatter) Format(ctx context.Context, b *model.Bookmark, title string) (string, error) {
	var sb strings.Builder
	if f.frontMatter {
		if fm, err := frontMatter(b); err == nil {
			sb.WriteString(fm)
		} else {
			logutil.GetLogger(ctx).Warn("render front matter failed", zap.String("record", b.ID), zap.Error(err))
		}
	}
	sb.WriteString("# " + title + "\n\n")

	f.writeImage(ctx, &sb, b, title)
	f.writeSourceLine(&sb, b)
	writeSection(&sb, "Summary", strDeref(b.Summary))
	f.writeBody(&sb, b)
	writeTagLine(&sb, b.Tags)
	sb.WriteString("## Notes\n\n")
	if note := strDeref(b.Note); note != "" {
		sb.WriteString(note + "\n\n")
	}
	f.writeSnapshot(ctx, &sb, b)
	f.writeBackLink(&sb, b)
	return sb.String(), nil
}

func (f *Formatter) writeImage(ctx context.Context, sb *strings.Builder, b *model.Bookmark, title string) {
	assetURL, external := f.imageSource(b)
	if assetURL == "" && external == "" {
		return
	}
	if !f.downloadAssets {
		u := external
		if u == "" {
			u = assetURL
		}
		fmt.Fprintf(sb, "![%s](%s)\n\n", title, u)
		return
	}
	fetchURL := assetURL
	if fetchURL == "" {
		fetchURL = external
	}
	if ref := f.assets.FetchAndRehost(ctx, fetchURL, b.ID, title); ref != "" {
		fmt.Fprintf(sb, "![%s](%s)\n\n", title, ref)
		return
	}
	fmt.Fprintf(sb, "[failed to download: view on source](%s)\n\n", fetchURL)
}

// imageSource resolves the inline image, first match wins: record-level
// image asset, link image asset, link screenshot asset, bare external URL.
func (f *Formatter) imageSource(b *model.Bookmark) (assetURL, external string) {
	if b.Content.Asset != nil && b.Content.Asset.AssetType == "image" && b.Content.Asset.AssetID != "" {
		return source.AssetURL(f.endpoint, b.Content.Asset.AssetID), ""
	}
	if id := b.ImageAssetID(); id != "" {
		return source.AssetURL(f.endpoint, id), ""
	}
	if b.Content.Link != nil {
		if u := strDeref(b.Content.Link.ImageURL); u != "" {
			return "", u
		}
	}
	return "", ""
}

func (f *Formatter) writeSourceLine(sb *strings.Builder, b *model.Bookmark) {
	switch b.Content.Type {
	case model.ContentTypeLink:
		if b.Content.Link.URL != "" {
			fmt.Fprintf(sb, "Source: %s\n\n", b.Content.Link.URL)
		}
	case model.ContentTypeText:
		if u := strDeref(b.Content.Text.SourceURL); u != "" {
			fmt.Fprintf(sb, "Source: %s\n\n", u)
		}
	}
	// asset records carry no source line; the back-link covers them
}

func (f *Formatter) writeBody(sb *strings.Builder, b *model.Bookmark) {
	switch b.Content.Type {
	case model.ContentTypeLink:
		writeSection(sb, "Description", strDeref(b.Content.Link.Description))
	case model.ContentTypeText:
		writeSection(sb, "Text Content", b.Content.Text.Text)
	}
}

func (f *Formatter) writeSnapshot(ctx context.Context, sb *strings.Builder, b *model.Bookmark) {
	if f.conv == nil || b.Content.Link == nil {
		return
	}
	html := strDeref(b.Content.Link.HTMLContent)
	if html == "" {
		return
	}
	md, err := f.conv.Convert(html)
	if err != nil {
		logutil.GetLogger(ctx).Warn("convert html snapshot failed", zap.String("record", b.ID), zap.Error(err))
		return
	}
	writeSection(sb, "Archived Content", strings.TrimSpace(md))
}

func (f *Formatter) writeBackLink(sb *strings.Builder, b *model.Bookmark) {
	if u := source.RecordURL(f.endpoint, b.ID); u != "" {
		fmt.Fprintf(sb, "[View original](%s)\n", u)
		return
	}
	fmt.Fprintf(sb, "Bookmark ID: %s\n", b.ID)
}

func writeSection(sb *strings.Builder, heading, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n%s\n\n", heading, body)
}

func writeTagLine(sb *strings.Builder, tags []model.Tag) {
	if len(tags) == 0 {
		return
	}
	tokens := make([]string, 0, len(tags))
	for _, t := range tags {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		tokens = append(tokens, "#"+strings.ReplaceAll(name, " ", "-"))
	}
	if len(tokens) == 0 {
		return
	}
	sb.WriteString(strings.Join(tokens, " ") + "\n\n")
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
