package handler

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notaflow/notaflow/internal/filestore"
	"github.com/notaflow/notaflow/internal/pkg/errcode"
	"github.com/notaflow/notaflow/internal/pkg/response"
)

// FileHandler serves objects from the local store; s3 deployments point
// clients at the bucket's public URL instead.
type FileHandler struct {
	store filestore.Store
}

func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "file key is required")
		return
	}
	reader, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "file not found")
		return
	}
	defer reader.Close()
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
