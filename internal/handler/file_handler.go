package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/marksync/internal/filestore"
	"github.com/xxxsen/marksync/internal/pkg/errcode"
	"github.com/xxxsen/marksync/internal/pkg/response"
)

// FileHandler serves archived asset copies out of the configured file
// store. Only the local backend supports reads; with S3 the archive is
// reached through the bucket directly.
type FileHandler struct {
	store filestore.Store
}

func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) Get(c *gin.Context) {
	if h.store == nil {
		response.Error(c, errcode.ErrNotFound, "archive not configured")
		return
	}
	key := c.Param("key")
	rc, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		response.Error(c, errcode.ErrNotFound, "file not found")
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
