package interfaces

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/domain"
	"resume-analyzer/utils"
)

var errNoBody = errors.New("request body is empty")

// fileEntry is a listed blob with its size rendered for people.
type fileEntry struct {
	domain.FSItem
	SizeText string `json:"size_text"`
}

func (h *HTTPHandler) ListFiles(c *gin.Context) {
	dir := c.DefaultQuery("path", "/")
	items, ok := h.platform.FS.List(c.Request.Context(), dir)
	if !ok {
		h.platformError(c)
		return
	}

	entries := make([]fileEntry, 0, len(items))
	for _, item := range items {
		text := utils.FormatSize(item.Size)
		if item.IsDir {
			text = "-"
		}
		entries = append(entries, fileEntry{FSItem: item, SizeText: text})
	}
	c.JSON(http.StatusOK, gin.H{"path": dir, "files": entries})
}

func (h *HTTPHandler) ReadFile(c *gin.Context) {
	h.serveBlob(c, c.Param("path"))
}

func (h *HTTPHandler) WriteFile(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoBody.Error()})
		return
	}
	if len(data) > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds " + utils.FormatSize(maxUploadSize)})
		return
	}

	item := h.platform.FS.Write(c.Request.Context(), c.Param("path"), data)
	if item == nil {
		h.platformError(c)
		return
	}
	c.JSON(http.StatusCreated, fileEntry{FSItem: *item, SizeText: utils.FormatSize(item.Size)})
}

func (h *HTTPHandler) DeleteFile(c *gin.Context) {
	if !h.platform.FS.Delete(c.Request.Context(), c.Param("path")) {
		h.platformError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) GetPreview(c *gin.Context) {
	img, ok := h.previews.Get(c.Param("handle"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (h *HTTPHandler) ReleasePreview(c *gin.Context) {
	if !h.previews.Release(c.Param("handle")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) AuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": h.platform.Auth.IsAuthenticated(),
		"user":          h.platform.Auth.CurrentUser(),
	})
}

func (h *HTTPHandler) SignIn(c *gin.Context) {
	if !h.platform.Auth.SignIn(c.Request.Context()) {
		h.platformError(c)
		return
	}
	h.AuthStatus(c)
}

func (h *HTTPHandler) SignOut(c *gin.Context) {
	if !h.platform.Auth.SignOut(c.Request.Context()) {
		h.platformError(c)
		return
	}
	h.AuthStatus(c)
}

func (h *HTTPHandler) Refresh(c *gin.Context) {
	if !h.platform.Auth.Refresh(c.Request.Context()) {
		h.platformError(c)
		return
	}
	h.AuthStatus(c)
}
