package format

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/marksync/internal/config"
	"github.com/xxxsen/marksync/internal/model"
)

const testEndpoint = "https://src.example.com/api/v1"

type stubFetcher struct {
	ref     string
	fetched []string
}

func (s *stubFetcher) FetchAndRehost(ctx context.Context, assetURL, idHint, titleHint string) string {
	s.fetched = append(s.fetched, assetURL)
	return s.ref
}

type failConverter struct{}

func (failConverter) Convert(string) (string, error) {
	return "", fmt.Errorf("bad markup")
}

func strPtr(s string) *string { return &s }

func linkBookmark() *model.Bookmark {
	return &model.Bookmark{
		ID:        "bm-1",
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Summary:   strPtr("a short summary"),
		Note:      strPtr("my note"),
		Tags:      []model.Tag{{Name: "reading"}, {Name: "go lang"}},
		Content: model.Content{
			Type: model.ContentTypeLink,
			Link: &model.LinkContent{
				URL:         "https://example.com/article",
				Description: strPtr("what the page says"),
				ImageURL:    strPtr("https://example.com/img.png"),
			},
		},
	}
}

func TestFormat_SectionOrder(t *testing.T) {
	fetcher := &stubFetcher{ref: "assets/img.png"}
	f := New(fetcher, NewMarkdownConverter(), testEndpoint, config.SyncConfig{DownloadAssets: true})
	body, err := f.Format(context.Background(), linkBookmark(), "My Article")
	require.NoError(t, err)

	sections := []string{
		"# My Article",
		"![My Article](assets/img.png)",
		"Source: https://example.com/article",
		"## Summary",
		"a short summary",
		"## Description",
		"what the page says",
		"#reading #go-lang",
		"## Notes",
		"my note",
		"[View original](https://src.example.com/bookmarks/bm-1)",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(body, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q in %q", section, body)
		require.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestFormat_FailedAssetFallsBackToSourceLink(t *testing.T) {
	fetcher := &stubFetcher{ref: ""}
	f := New(fetcher, nil, testEndpoint, config.SyncConfig{DownloadAssets: true})
	body, err := f.Format(context.Background(), linkBookmark(), "My Article")
	require.NoError(t, err)
	require.Contains(t, body, "[failed to download: view on source](https://example.com/img.png)")
	require.NotContains(t, body, "![My Article]")
}

func TestFormat_DownloadsDisabledEmbedsExternal(t *testing.T) {
	fetcher := &stubFetcher{ref: "assets/img.png"}
	f := New(fetcher, nil, testEndpoint, config.SyncConfig{DownloadAssets: false})
	body, err := f.Format(context.Background(), linkBookmark(), "My Article")
	require.NoError(t, err)
	require.Contains(t, body, "![My Article](https://example.com/img.png)")
	require.Empty(t, fetcher.fetched)
}

func TestFormat_ImageAssetPreferredOverExternalURL(t *testing.T) {
	b := linkBookmark()
	b.Content.Link.ImageAssetID = strPtr("asset-9")
	fetcher := &stubFetcher{ref: "assets/img.png"}
	f := New(fetcher, nil, testEndpoint, config.SyncConfig{DownloadAssets: true})
	_, err := f.Format(context.Background(), b, "My Article")
	require.NoError(t, err)
	require.Equal(t, []string{testEndpoint + "/assets/asset-9"}, fetcher.fetched)
}

func TestFormat_TextRecord(t *testing.T) {
	b := &model.Bookmark{
		ID:        "bm-2",
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Content: model.Content{
			Type: model.ContentTypeText,
			Text: &model.TextContent{Text: "remember this\nand this"},
		},
	}
	f := New(&stubFetcher{}, nil, testEndpoint, config.SyncConfig{})
	body, err := f.Format(context.Background(), b, "remember this")
	require.NoError(t, err)
	require.Contains(t, body, "## Text Content")
	require.Contains(t, body, "remember this\nand this")
	require.NotContains(t, body, "## Description")
}

func TestFormat_AssetRecordHasNoSourceLine(t *testing.T) {
	b := &model.Bookmark{
		ID:        "bm-3",
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Content: model.Content{
			Type:  model.ContentTypeAsset,
			Asset: &model.AssetContent{AssetID: "a1", AssetType: "pdf", SourceURL: strPtr("https://example.com/r.pdf")},
		},
	}
	f := New(&stubFetcher{}, nil, testEndpoint, config.SyncConfig{})
	body, err := f.Format(context.Background(), b, "report")
	require.NoError(t, err)
	require.NotContains(t, body, "Source: ")
}

func TestFormat_NotesSectionAlwaysPresent(t *testing.T) {
	b := linkBookmark()
	b.Note = nil
	f := New(&stubFetcher{}, nil, testEndpoint, config.SyncConfig{})
	body, err := f.Format(context.Background(), b, "My Article")
	require.NoError(t, err)
	require.Contains(t, body, "## Notes")
}

func TestFormat_SnapshotConversionFailureOmitsSection(t *testing.T) {
	b := linkBookmark()
	b.Content.Link.HTMLContent = strPtr("<p>snapshot</p>")
	f := New(&stubFetcher{}, failConverter{}, testEndpoint, config.SyncConfig{})
	body, err := f.Format(context.Background(), b, "My Article")
	require.NoError(t, err)
	require.NotContains(t, body, "## Archived Content")
}

func TestFormat_SnapshotConverted(t *testing.T) {
	b := linkBookmark()
	b.Content.Link.HTMLContent = strPtr("<p>hello <strong>world</strong></p>")
	f := New(&stubFetcher{}, NewMarkdownConverter(), testEndpoint, config.SyncConfig{})
	body, err := f.Format(context.Background(), b, "My Article")
	require.NoError(t, err)
	require.Contains(t, body, "## Archived Content")
	require.Contains(t, body, "**world**")
}

func TestFormat_UnparsableEndpointFallsBackToBareID(t *testing.T) {
	f := New(&stubFetcher{}, nil, "::not a url::", config.SyncConfig{})
	body, err := f.Format(context.Background(), linkBookmark(), "My Article")
	require.NoError(t, err)
	require.Contains(t, body, "Bookmark ID: bm-1")
	require.NotContains(t, body, "[View original]")
}

func TestFormat_FrontMatter(t *testing.T) {
	f := New(&stubFetcher{}, nil, testEndpoint, config.SyncConfig{FrontMatter: true})
	body, err := f.Format(context.Background(), linkBookmark(), "My Article")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(body, "---\n"), "front matter missing: %q", body)
	require.Contains(t, body, "id: bm-1")
	require.Contains(t, body, "url: https://example.com/article")
	idx := strings.Index(body, "# My Article")
	require.Greater(t, idx, strings.Index(body, "---"))
}
