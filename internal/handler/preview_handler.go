package handler

import (
	"bytes"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"github.com/xxxsen/marksync/internal/format"
	"github.com/xxxsen/marksync/internal/model"
	"github.com/xxxsen/marksync/internal/pkg/errcode"
	"github.com/xxxsen/marksync/internal/pkg/response"
	"github.com/xxxsen/marksync/internal/syncer"
)

// PreviewHandler renders a posted bookmark record through the document
// formatter without touching the target store, for checking templates and
// title derivation against real records.
type PreviewHandler struct {
	formatter *format.Formatter
	md        goldmark.Markdown
}

func NewPreviewHandler(formatter *format.Formatter) *PreviewHandler {
	return &PreviewHandler{formatter: formatter, md: goldmark.New()}
}

func (h *PreviewHandler) Preview(c *gin.Context) {
	var record model.Bookmark
	if err := c.ShouldBindJSON(&record); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid bookmark record")
		return
	}
	if record.ID == "" {
		response.Error(c, errcode.ErrInvalid, "record id is required")
		return
	}
	title := syncer.DeriveTitle(&record)
	body, err := h.formatter.Format(c.Request.Context(), &record, title)
	if err != nil {
		response.Error(c, errcode.ErrInternal, "format failed")
		return
	}
	var html bytes.Buffer
	if err := h.md.Convert([]byte(body), &html); err != nil {
		response.Error(c, errcode.ErrInternal, "render failed")
		return
	}
	response.Success(c, gin.H{
		"title":    title,
		"path":     syncer.DerivePath(title, record.CreatedAt),
		"markdown": body,
		"html":     html.String(),
	})
}
