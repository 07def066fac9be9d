package syncer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/marksync/internal/config"
	"github.com/xxxsen/marksync/internal/model"
	appErr "github.com/xxxsen/marksync/internal/pkg/errors"
	"github.com/xxxsen/marksync/internal/source"
	"github.com/xxxsen/marksync/internal/target"
)

// SourceClient is what the engine needs from the bookmark service.
type SourceClient interface {
	FetchPage(ctx context.Context, cursor string) (*source.Page, error)
}

// DocumentFormatter renders the document body for one record.
type DocumentFormatter interface {
	Format(ctx context.Context, b *model.Bookmark, title string) (string, error)
}

// RunRecorder persists finished runs and the last-sync marker. All of its
// failures are soft.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.SyncRun) error
	SetLastSync(ctx context.Context, t time.Time) error
}

// Engine drives one-way reconciliation: it paginates the source, filters
// records, resolves existing documents by external id and applies the
// create / delete-and-recreate / skip decision. A single run is in flight
// at any time; work within a run is strictly sequential.
type Engine struct {
	source    SourceClient
	store     target.Store
	formatter DocumentFormatter
	recorder  RunRecorder

	apiKey       string
	collectionID string
	settings     config.SyncConfig

	running atomic.Bool

	mu          sync.Mutex
	state       model.RunState
	lastSummary *model.RunSummary
	lastRunEnd  time.Time
}

func New(src SourceClient, store target.Store, formatter DocumentFormatter, recorder RunRecorder, cfg *config.Config) *Engine {
	return &Engine{
		source:       src,
		store:        store,
		formatter:    formatter,
		recorder:     recorder,
		apiKey:       cfg.Source.APIKey,
		collectionID: cfg.Target.CollectionID,
		settings:     cfg.Sync,
		state:        model.RunStateIdle,
	}
}

// Status returns the current state plus the last finished run's summary.
func (e *Engine) Status() (model.RunState, *model.RunSummary, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.lastSummary, e.lastRunEnd
}

// Run executes one full reconciliation pass. It returns ErrSyncRunning
// when another run is in flight and a config error before any network call
// when the credential or collection is missing. The summary is returned in
// both outcomes of a started run; err is non-nil only for run-level
// failures.
func (e *Engine) Run(ctx context.Context) (*model.RunSummary, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, appErr.ErrSyncRunning
	}
	defer e.running.Store(false)
	return e.run(ctx)
}

// StartAsync claims the run slot before returning and executes the run on
// its own goroutine, so a caller that gets nil back cannot race a second
// trigger into the same slot. The outcome is logged and recorded as for a
// synchronous run.
func (e *Engine) StartAsync(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return appErr.ErrSyncRunning
	}
	go func() {
		defer e.running.Store(false)
		if summary, err := e.run(ctx); err != nil {
			logutil.GetLogger(ctx).Error("background sync failed", zap.Error(err))
		} else {
			logutil.GetLogger(ctx).Info("background sync finished", zap.String("summary", summary.Message))
		}
	}()
	return nil
}

func (e *Engine) run(ctx context.Context) (*model.RunSummary, error) {
	if err := e.checkPreconditions(); err != nil {
		e.finish(ctx, model.RunStateCriticalFailure, nil, time.Now(), err)
		return &model.RunSummary{Success: false, Message: err.Error()}, err
	}

	e.setState(model.RunStateRunning)
	logger := logutil.GetLogger(ctx)
	logger.Info("sync run started", zap.String("collection", e.collectionID))

	started := time.Now()
	stats := &model.RunStats{}
	runErr := e.runPages(ctx, stats)

	finished := time.Now()
	summary := &model.RunSummary{Success: runErr == nil, Message: stats.Message()}
	if runErr != nil {
		summary.Message = fmt.Sprintf("sync failed: %v (%s)", runErr, stats.Message())
		logger.Error("sync run failed", zap.Error(runErr), zap.String("stats", stats.Message()))
		e.finish(ctx, model.RunStateCriticalFailure, summary, finished, runErr)
	} else {
		logger.Info("sync run completed", zap.String("stats", stats.Message()),
			zap.Duration("duration", finished.Sub(started)))
		e.finish(ctx, model.RunStateCompleted, summary, finished, nil)
	}
	e.record(ctx, started, finished, stats, summary)
	return summary, runErr
}

func (e *Engine) checkPreconditions() error {
	if e.apiKey == "" {
		return fmt.Errorf("%w: source api key is not configured", appErr.ErrConfig)
	}
	if e.collectionID == "" {
		return fmt.Errorf("%w: target collection is not configured", appErr.ErrConfig)
	}
	return nil
}

func (e *Engine) runPages(ctx context.Context, stats *model.RunStats) (err error) {
	// A panic escaping the record pipeline aborts the run; outcomes of
	// already-processed records keep their counts.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync pipeline panic: %v", r)
		}
	}()
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := e.source.FetchPage(ctx, cursor)
		if err != nil {
			return err
		}
		for i := range page.Bookmarks {
			b := &page.Bookmarks[i]
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			e.processRecord(ctx, b, stats)
		}
		if page.NextCursor == nil || *page.NextCursor == "" {
			return nil
		}
		cursor = *page.NextCursor
	}
}

func (e *Engine) processRecord(ctx context.Context, b *model.Bookmark, stats *model.RunStats) {
	logger := logutil.GetLogger(ctx).With(zap.String("record", b.ID))
	if skip, reason := shouldFilter(b, e.settings); skip {
		logger.Debug("record filtered", zap.String("reason", reason))
		stats.Filtered++
		return
	}
	title := DeriveTitle(b)
	path := DerivePath(title, b.CreatedAt)

	docID := e.findExisting(ctx, b.ID)
	if docID == "" {
		if err := e.writeDocument(ctx, b, title, path); err != nil {
			logger.Error("create document failed", zap.Error(err))
			stats.Errors++
			return
		}
		stats.Created++
		return
	}

	if !e.settings.UpdateExisting || !e.needsUpdate(ctx, docID, b) {
		stats.Skipped++
		return
	}
	// Deliberate delete-then-recreate: the document's internal id changes,
	// the external-id attribute stays the correlation key. A create
	// failure after the delete leaves no document; that record counts as
	// an error and is retried by the next run.
	if err := e.store.DeleteDocument(ctx, docID); err != nil {
		logger.Error("delete outdated document failed", zap.String("doc", docID), zap.Error(err))
		stats.Errors++
		return
	}
	if err := e.writeDocument(ctx, b, title, path); err != nil {
		logger.Error("recreate document failed after delete", zap.String("doc", docID), zap.Error(err))
		stats.Errors++
		return
	}
	stats.Updated++
}

// findExisting resolves the record's document id. A lookup failure is
// logged and treated as not found.
func (e *Engine) findExisting(ctx context.Context, externalID string) string {
	docID, err := e.store.FindByExternalID(ctx, e.collectionID, externalID)
	if err != nil {
		logutil.GetLogger(ctx).Warn("existence lookup failed, treating as absent",
			zap.String("record", externalID), zap.Error(err))
		return ""
	}
	return docID
}

// needsUpdate compares the record's effective modified time against the
// stored attribute. Missing or unreadable attributes fail open toward
// freshness.
func (e *Engine) needsUpdate(ctx context.Context, docID string, b *model.Bookmark) bool {
	attrs, err := e.store.GetAttributes(ctx, docID)
	if err != nil {
		logutil.GetLogger(ctx).Warn("read attributes failed, assuming update needed",
			zap.String("doc", docID), zap.Error(err))
		return true
	}
	stored := attrs[model.AttrModified]
	if stored == "" {
		return true
	}
	storedAt, err := time.Parse(time.RFC3339, stored)
	if err != nil {
		return true
	}
	return b.EffectiveModified().After(storedAt)
}

func (e *Engine) writeDocument(ctx context.Context, b *model.Bookmark, title, path string) error {
	body, err := e.formatter.Format(ctx, b, title)
	if err != nil {
		return fmt.Errorf("format document: %w", err)
	}
	docID, err := e.store.CreateDocument(ctx, e.collectionID, path, body)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := e.store.SetAttributes(ctx, docID, buildAttributes(b)); err != nil {
		// The document exists; missing attributes only degrade the next
		// update decision, which fails open anyway.
		logutil.GetLogger(ctx).Warn("write attributes failed",
			zap.String("doc", docID), zap.String("record", b.ID), zap.Error(err))
	}
	return nil
}

func buildAttributes(b *model.Bookmark) map[string]string {
	names := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	attrs := map[string]string{
		model.AttrExternalID: b.ID,
		model.AttrModified:   b.EffectiveModified().UTC().Format(time.RFC3339),
		model.AttrTags:       strings.Join(names, ","),
		model.AttrFavourite:  strconv.FormatBool(b.Favourited),
		model.AttrArchived:   strconv.FormatBool(b.Archived),
	}
	switch {
	case b.Content.Link != nil:
		attrs[model.AttrURL] = b.Content.Link.URL
	case b.Content.Text != nil && b.Content.Text.SourceURL != nil:
		attrs[model.AttrURL] = *b.Content.Text.SourceURL
	case b.Content.Asset != nil && b.Content.Asset.SourceURL != nil:
		attrs[model.AttrURL] = *b.Content.Asset.SourceURL
	}
	if s := b.Summary; s != nil {
		attrs[model.AttrSummary] = *s
	}
	return attrs
}

func (e *Engine) setState(state model.RunState) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *Engine) finish(ctx context.Context, state model.RunState, summary *model.RunSummary, at time.Time, runErr error) {
	e.mu.Lock()
	e.state = state
	if summary != nil {
		e.lastSummary = summary
	}
	e.lastRunEnd = at
	e.mu.Unlock()

	if runErr == nil && e.recorder != nil {
		if err := e.recorder.SetLastSync(ctx, at); err != nil {
			logutil.GetLogger(ctx).Warn("persist last sync marker failed", zap.Error(err))
		}
	}
}

func (e *Engine) record(ctx context.Context, started, finished time.Time, stats *model.RunStats, summary *model.RunSummary) {
	if e.recorder == nil {
		return
	}
	run := &model.SyncRun{
		StartedAt:  started.Unix(),
		FinishedAt: finished.Unix(),
		Created:    stats.Created,
		Updated:    stats.Updated,
		Skipped:    stats.Skipped,
		Filtered:   stats.Filtered,
		Errors:     stats.Errors,
		Success:    summary.Success,
		Message:    summary.Message,
	}
	if err := e.recorder.RecordRun(ctx, run); err != nil {
		logutil.GetLogger(ctx).Warn("persist run history failed", zap.Error(err))
	}
}
