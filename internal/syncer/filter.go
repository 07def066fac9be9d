package syncer

import (
	"github.com/xxxsen/marksync/internal/config"
	"github.com/xxxsen/marksync/internal/model"
)

// shouldFilter evaluates the per-record filters in order, short-circuiting
// on the first match. Favourited records bypass tag exclusion entirely.
func shouldFilter(b *model.Bookmark, cfg config.SyncConfig) (bool, string) {
	if b.Archived && cfg.ExcludeArchived {
		return true, "archived"
	}
	if !b.Favourited && cfg.OnlyFavorites {
		return true, "not favourited"
	}
	if !b.Favourited {
		for _, tag := range cfg.ExcludedTags {
			if b.HasTag(tag) {
				return true, "excluded tag: " + tag
			}
		}
	}
	return false, ""
}
