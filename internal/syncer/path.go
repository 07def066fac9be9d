package syncer

import (
	"regexp"
	"strings"
	"time"
)

const maxTitleSlug = 60

var (
	pathUnsafeChars = regexp.MustCompile(`[/\\:*?"<>|#^\[\]]`)
	pathWhitespace  = regexp.MustCompile(`\s+`)
	dashRun         = regexp.MustCompile(`-{2,}`)
)

// DocumentName builds the `<ISO-date>-<sanitized-title>` name for a
// record. Pure and deterministic: the same (title, createdAt) always
// produces the same string.
func DocumentName(title string, createdAt time.Time) string {
	date := createdAt.UTC().Format("2006-01-02")
	slug := sanitizeTitle(title)
	if slug == "" {
		return "bookmark-" + date
	}
	return date + "-" + slug
}

// DerivePath is DocumentName rooted at the collection.
func DerivePath(title string, createdAt time.Time) string {
	return "/" + DocumentName(title, createdAt)
}

func sanitizeTitle(title string) string {
	s := pathUnsafeChars.ReplaceAllString(title, "-")
	s = pathWhitespace.ReplaceAllString(s, "-")
	s = dashRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	if runes := []rune(s); len(runes) > maxTitleSlug {
		s = strings.TrimRight(string(runes[:maxTitleSlug]), "-")
	}
	return s
}
