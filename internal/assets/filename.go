package assets

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

const maxBasenameLen = 50

var contentTypeExt = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/svg+xml":   "svg",
	"application/pdf": "pdf",
}

var (
	unsafeFileChars = regexp.MustCompile(`[/\\:*?"<>|#%&{}$!'@+=` + "`" + `]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// deriveFilename picks the name an asset is stored under. The URL's own
// basename wins when it looks like a real filename; otherwise a name is
// synthesized from the record id and title, with the extension resolved
// from the Content-Type.
func deriveFilename(rawURL, idHint, titleHint, contentType string) string {
	base := urlBasename(rawURL)
	if base != "" && strings.Contains(base, ".") && len(base) <= maxBasenameLen {
		return sanitizeFilename(base)
	}
	ext := extensionFor(contentType, base)
	prefix := idHint
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	name := prefix + "-" + sanitizeFilename(titleHint)
	name = strings.Trim(name, "-")
	if name == "" {
		name = "asset"
	}
	return name + "." + ext
}

func urlBasename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func extensionFor(contentType, existingName string) string {
	ct := contentType
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ext, ok := contentTypeExt[ct]; ok {
		return ext
	}
	if ext := strings.TrimPrefix(path.Ext(existingName), "."); ext != "" {
		return ext
	}
	return "bin"
}

func sanitizeFilename(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, "-")
	name = whitespaceRun.ReplaceAllString(name, "_")
	return name
}
