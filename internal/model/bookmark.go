package model

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	ContentTypeLink    = "link"
	ContentTypeText    = "text"
	ContentTypeAsset   = "asset"
	ContentTypeUnknown = "unknown"
)

// Bookmark is one record as returned by the source API. Records are
// immutable once fetched; ID is the sole correlation key against the
// target store.
type Bookmark struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	ModifiedAt *time.Time `json:"modifiedAt"`
	Title      *string    `json:"title"`
	Archived   bool       `json:"archived"`
	Favourited bool       `json:"favourited"`
	Tags       []Tag      `json:"tags"`
	Note       *string    `json:"note"`
	Summary    *string    `json:"summary"`
	Content    Content    `json:"content"`
	Assets     []Asset    `json:"assets"`
}

type Tag struct {
	Name       string `json:"name"`
	AttachedBy string `json:"attachedBy"`
}

type Asset struct {
	ID        string `json:"id"`
	AssetType string `json:"assetType"`
}

// Content is the tagged union carried by a bookmark. Exactly one of the
// variant pointers is set when Type matches; everything else stays nil.
type Content struct {
	Type  string
	Link  *LinkContent
	Text  *TextContent
	Asset *AssetContent
}

type LinkContent struct {
	URL               string  `json:"url"`
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	ImageURL          *string `json:"imageUrl"`
	ImageAssetID      *string `json:"imageAssetId"`
	ScreenshotAssetID *string `json:"screenshotAssetId"`
	HTMLContent       *string `json:"htmlContent"`
}

type TextContent struct {
	Text      string  `json:"text"`
	SourceURL *string `json:"sourceUrl"`
}

type AssetContent struct {
	AssetID   string  `json:"assetId"`
	AssetType string  `json:"assetType"`
	FileName  *string `json:"fileName"`
	SourceURL *string `json:"sourceUrl"`
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Type {
	case ContentTypeLink:
		var v LinkContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Type = ContentTypeLink
		c.Link = &v
	case ContentTypeText:
		var v TextContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Type = ContentTypeText
		c.Text = &v
	case ContentTypeAsset:
		var v AssetContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Type = ContentTypeAsset
		c.Asset = &v
	default:
		c.Type = ContentTypeUnknown
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ContentTypeLink:
		return marshalWithType(ContentTypeLink, c.Link)
	case ContentTypeText:
		return marshalWithType(ContentTypeText, c.Text)
	case ContentTypeAsset:
		return marshalWithType(ContentTypeAsset, c.Asset)
	default:
		return json.Marshal(map[string]string{"type": ContentTypeUnknown})
	}
}

func marshalWithType(typ string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	typRaw, _ := json.Marshal(typ)
	out["type"] = typRaw
	return json.Marshal(out)
}

// EffectiveModified is the timestamp used for the update decision:
// modifiedAt when the source supplied one, createdAt otherwise.
func (b *Bookmark) EffectiveModified() time.Time {
	if b.ModifiedAt != nil && !b.ModifiedAt.IsZero() {
		return *b.ModifiedAt
	}
	return b.CreatedAt
}

// HasTag reports whether the record carries the named tag, ignoring case.
func (b *Bookmark) HasTag(name string) bool {
	for _, t := range b.Tags {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// ImageAssetID picks the asset to embed inline, in precedence order:
// record-level image asset, the link's own image asset, the link's
// screenshot asset. Empty when none apply.
func (b *Bookmark) ImageAssetID() string {
	for _, a := range b.Assets {
		if a.AssetType == "image" && a.ID != "" {
			return a.ID
		}
	}
	if b.Content.Link != nil {
		if id := deref(b.Content.Link.ImageAssetID); id != "" {
			return id
		}
		if id := deref(b.Content.Link.ScreenshotAssetID); id != "" {
			return id
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
