package format

import (
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLConverter turns an embedded raw HTML snapshot into the document's
// markup format. Implementations fail soft: the caller omits the section
// on error.
type HTMLConverter interface {
	Convert(html string) (string, error)
}

type markdownConverter struct{}

// NewMarkdownConverter returns the default converter producing Markdown.
func NewMarkdownConverter() HTMLConverter {
	return markdownConverter{}
}

func (markdownConverter) Convert(html string) (string, error) {
	return htmltomarkdown.ConvertString(html)
}
