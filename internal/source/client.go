package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xxxsen/marksync/internal/config"
	"github.com/xxxsen/marksync/internal/model"
	appErr "github.com/xxxsen/marksync/internal/pkg/errors"
)

// Page is one slice of the source's bookmark listing. NextCursor is an
// opaque continuation token; nil or empty means the listing is exhausted.
type Page struct {
	Bookmarks  []model.Bookmark `json:"bookmarks"`
	Total      int              `json:"total"`
	NextCursor *string          `json:"nextCursor"`
}

// SourceError carries the HTTP status and body of a failed source call.
type SourceError struct {
	Status int
	Body   string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source request failed: %v", e.Err)
	}
	return fmt.Sprintf("source returned status %d: %s", e.Status, e.Body)
}

func (e *SourceError) Unwrap() error {
	return appErr.ErrSourceUnavailable
}

type Client struct {
	endpoint string
	apiKey   string
	pageSize int
	client   *http.Client
}

func New(cfg config.SourceConfig, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		client:   client,
	}
}

// FetchPage requests one page of bookmarks, sorted by creation time
// ascending so repeated runs see a historically stable order. An empty
// cursor fetches the first page.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("sort", "createdAt")
	query.Set("order", "asc")
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/bookmarks?"+query.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SourceError{Status: resp.StatusCode, Body: string(body)}
	}
	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &SourceError{Err: fmt.Errorf("decode page: %w", err)}
	}
	return &page, nil
}

// Origin returns the scheme://host portion of rawURL, empty when it does
// not parse as an absolute URL.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// AssetURL builds the download URL for a source-hosted asset id.
func AssetURL(endpoint, assetID string) string {
	return strings.TrimSuffix(endpoint, "/") + "/assets/" + assetID
}

// RecordURL builds the user-facing back-link for a record, empty when the
// endpoint's origin cannot be determined.
func RecordURL(endpoint, recordID string) string {
	origin := Origin(endpoint)
	if origin == "" {
		return ""
	}
	return origin + "/bookmarks/" + recordID
}
