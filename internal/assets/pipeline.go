package assets

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/marksync/internal/filestore"
	"github.com/xxxsen/marksync/internal/target"
)

const (
	maxAssetBytes = 64 << 20
	cacheSize     = 512
)

// Pipeline downloads a binary asset and re-uploads it into the target
// store's asset directory. Every failure is absorbed: callers always get a
// reference string, "" meaning the asset could not be re-hosted.
type Pipeline struct {
	client       *http.Client
	store        target.Store
	archive      filestore.Store
	cache        *lru.Cache[string, string]
	sourceOrigin string
	apiKey       string
	collectionID string
	assetDir     string
}

type Options struct {
	Client       *http.Client
	Store        target.Store
	Archive      filestore.Store
	SourceOrigin string
	APIKey       string
	CollectionID string
	AssetDir     string
}

func NewPipeline(opts Options) *Pipeline {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	cache, _ := lru.New[string, string](cacheSize)
	return &Pipeline{
		client:       client,
		store:        opts.Store,
		archive:      opts.Archive,
		cache:        cache,
		sourceOrigin: opts.SourceOrigin,
		apiKey:       opts.APIKey,
		collectionID: opts.CollectionID,
		assetDir:     opts.AssetDir,
	}
}

// FetchAndRehost fetches assetURL and uploads it to the target store,
// returning the store's relative reference, or "" on any failure. Requests
// to the source's own origin carry the bearer credential; everything else
// is fetched anonymously.
func (p *Pipeline) FetchAndRehost(ctx context.Context, assetURL, idHint, titleHint string) string {
	logger := logutil.GetLogger(ctx).With(zap.String("asset_url", assetURL), zap.String("record", idHint))
	if ref, ok := p.cache.Get(assetURL); ok {
		return ref
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		logger.Error("build asset request failed", zap.Error(err))
		return ""
	}
	if p.sameOrigin(assetURL) {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		logger.Error("fetch asset failed", zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		logger.Warn("asset no longer exists on source", zap.Int("status", resp.StatusCode))
		return ""
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logger.Warn("asset fetch rejected by source auth", zap.Int("status", resp.StatusCode))
		return ""
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn("asset fetch failed", zap.Int("status", resp.StatusCode))
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		logger.Error("read asset body failed", zap.Error(err))
		return ""
	}
	contentType := resp.Header.Get("Content-Type")
	name := deriveFilename(assetURL, idHint, titleHint, contentType)

	p.archiveCopy(ctx, idHint, name, data)

	ref, err := p.store.UploadAsset(ctx, p.collectionID, p.assetDir, name, contentType, data)
	if err != nil {
		logger.Error("upload asset to target failed", zap.String("name", name), zap.Error(err))
		return ""
	}
	p.cache.Add(assetURL, ref)
	return ref
}

func (p *Pipeline) sameOrigin(rawURL string) bool {
	if p.sourceOrigin == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return u.Scheme+"://"+u.Host == p.sourceOrigin
}

// archiveCopy keeps a local copy of every fetched binary when an archive
// store is configured. Archive failures never affect the sync outcome.
func (p *Pipeline) archiveCopy(ctx context.Context, idHint, name string, data []byte) {
	if p.archive == nil {
		return
	}
	key := name
	if idHint != "" {
		prefix := idHint
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		// Synthesized names already start with the record prefix.
		if !strings.HasPrefix(name, prefix+"-") {
			key = prefix + "-" + name
		}
	}
	if err := p.archive.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		logutil.GetLogger(ctx).Warn("archive asset copy failed", zap.String("key", key), zap.Error(err))
	}
}
