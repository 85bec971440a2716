package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resume-analyzer/analysis"
	"resume-analyzer/domain"
	"resume-analyzer/infrastructure"
	"resume-analyzer/logger"
	"resume-analyzer/metrics"
	"resume-analyzer/platform"
	"resume-analyzer/rasterizer"
	"resume-analyzer/utils"
)

const (
	maxUploadSize          = 20 << 20
	defaultAnalysisTimeout = 3 * time.Minute
)

// Analyzer runs one resume analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request, status analysis.StatusFunc) (string, error)
}

type Deps struct {
	Platform *platform.Client
	Analyzer Analyzer
	Tracker  *analysis.Tracker
	Previews *rasterizer.Previews
	Events   analysis.EventPublisher
	Metrics  *metrics.Manager
	Logger   *zap.Logger
	Timeout  time.Duration
	// BaseContext parents every background analysis. Defaults to Background.
	BaseContext context.Context
}

type HTTPHandler struct {
	platform *platform.Client
	analyzer Analyzer
	tracker  *analysis.Tracker
	previews *rasterizer.Previews
	events   analysis.EventPublisher
	metrics  *metrics.Manager
	logger   *zap.Logger
	timeout  time.Duration
	baseCtx  context.Context

	wg sync.WaitGroup
}

func NewHTTPHandler(router *gin.Engine, deps Deps) *HTTPHandler {
	h := &HTTPHandler{
		platform: deps.Platform,
		analyzer: deps.Analyzer,
		tracker:  deps.Tracker,
		previews: deps.Previews,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   logger.WithFields(deps.Logger, zap.String("component", "http")),
		timeout:  deps.Timeout,
		baseCtx:  deps.BaseContext,
	}
	if h.tracker == nil {
		h.tracker = analysis.NewTracker()
	}
	if h.previews == nil {
		h.previews = rasterizer.NewPreviews()
	}
	if h.timeout <= 0 {
		h.timeout = defaultAnalysisTimeout
	}
	if h.baseCtx == nil {
		h.baseCtx = context.Background()
	}

	api := router.Group("", h.scopeErrors)

	api.POST("/upload", h.Upload)
	api.GET("/status/:session", h.GetStatus)

	api.GET("/resumes", h.ListResumes)
	api.DELETE("/resumes", h.WipeResumes)
	api.GET("/resume/:id", h.GetResume)
	api.GET("/resume/:id/document", h.GetDocument)
	api.GET("/resume/:id/image", h.GetImage)
	api.GET("/resume/:id/text", h.GetImageText)
	api.DELETE("/resume/:id", h.DeleteResume)

	api.GET("/fs", h.ListFiles)
	api.GET("/fs/blob/*path", h.ReadFile)
	api.PUT("/fs/blob/*path", h.WriteFile)
	api.DELETE("/fs/blob/*path", h.DeleteFile)

	api.GET("/previews/:handle", h.GetPreview)
	api.DELETE("/previews/:handle", h.ReleasePreview)

	api.GET("/auth/status", h.AuthStatus)
	api.POST("/auth/sign-in", h.SignIn)
	api.POST("/auth/sign-out", h.SignOut)
	api.POST("/auth/refresh", h.Refresh)

	api.GET("/healthz", h.Health)
	api.DELETE("/errors", h.ClearError)
	api.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	return h
}

// Wait blocks until every background analysis has returned.
func (h *HTTPHandler) Wait() {
	h.wg.Wait()
}

// Upload accepts a PDF resume with the job context and starts the analysis
// in the background. Progress is polled through GET /status/:session.
func (h *HTTPHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds " + utils.FormatSize(maxUploadSize)})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	if len(data) > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds " + utils.FormatSize(maxUploadSize)})
		return
	}

	contentType := platform.DetectContentType(header.Filename, data)
	if contentType != "application/pdf" {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only PDF resumes are supported"})
		return
	}

	req := analysis.Request{
		CompanyName:    strings.TrimSpace(c.PostForm("company-name")),
		JobTitle:       strings.TrimSpace(c.PostForm("job-title")),
		JobDescription: strings.TrimSpace(c.PostForm("job-description")),
		Document: domain.File{
			Name:        header.Filename,
			ContentType: contentType,
			Data:        data,
		},
	}

	sessionID := utils.NewID()
	h.tracker.Start(sessionID)
	h.wg.Add(1)
	go h.run(sessionID, req)

	c.JSON(http.StatusAccepted, gin.H{"session_id": sessionID})
}

func (h *HTTPHandler) run(sessionID string, req analysis.Request) {
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(h.baseCtx, h.timeout)
	defer cancel()

	status := analysis.Fanout(
		h.tracker.Sink(sessionID),
		analysis.LogSink(h.logger, sessionID),
		analysis.MetricsSink(h.metrics),
		analysis.EventSink(ctx, h.events, sessionID, h.logger),
	)
	id, err := h.analyzer.Analyze(ctx, req, status)
	h.tracker.Finish(sessionID, id, err)
}

func (h *HTTPHandler) GetStatus(c *gin.Context) {
	progress, ok := h.tracker.Get(c.Param("session"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// ListResumes returns every stored analysis. Entries that fail to decode
// are skipped.
func (h *HTTPHandler) ListResumes(c *gin.Context) {
	items, ok := h.platform.KV.List(c.Request.Context(), domain.RecordPattern, true)
	if !ok {
		h.platformError(c)
		return
	}

	records := make([]domain.AnalysisRecord, 0, len(items))
	for _, item := range items {
		record, err := domain.DecodeRecord(item.Value)
		if err != nil {
			h.logger.Warn("skipping undecodable record", zap.String("key", item.Key), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	c.JSON(http.StatusOK, gin.H{"resumes": records})
}

// WipeResumes removes every key in the metadata store.
func (h *HTTPHandler) WipeResumes(c *gin.Context) {
	if !h.platform.KV.Flush(c.Request.Context()) {
		h.platformError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) GetResume(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *HTTPHandler) GetDocument(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	h.serveBlob(c, record.DocumentPath)
}

func (h *HTTPHandler) GetImage(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	h.serveBlob(c, record.ImagePath)
}

// GetImageText transcribes the stored page image of an analysis.
func (h *HTTPHandler) GetImageText(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	data, ok := h.platform.FS.Read(ctx, record.ImagePath)
	if !ok {
		h.platformError(c)
		return
	}
	image := domain.File{
		Name:        path.Base(record.ImagePath),
		ContentType: platform.DetectContentType(record.ImagePath, data),
		Data:        data,
	}
	text, ok := h.platform.AI.ImageToText(ctx, image)
	if !ok {
		h.platformError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": record.ID, "text": text})
}

// DeleteResume removes the record and the upload directories of its blobs.
func (h *HTTPHandler) DeleteResume(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	for _, p := range []string{record.DocumentPath, record.ImagePath} {
		if p == "" {
			continue
		}
		if !h.platform.FS.Delete(ctx, uploadDir(p)) {
			h.logger.Warn("blob cleanup failed", zap.String(logger.FieldResume, record.ID), zap.String("path", p))
		}
	}
	if !h.platform.KV.Delete(ctx, domain.RecordKey(record.ID)) {
		h.platformError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadDir returns the per-upload directory holding p, or p itself when
// the blob does not live in one.
func uploadDir(p string) string {
	dir := path.Dir(p)
	if path.Dir(dir) == "/" || dir == "." {
		return p
	}
	return dir
}

func (h *HTTPHandler) loadRecord(c *gin.Context) (domain.AnalysisRecord, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return domain.AnalysisRecord{}, false
	}

	value, ok := h.platform.KV.Get(c.Request.Context(), domain.RecordKey(id))
	if !ok {
		h.platformError(c)
		return domain.AnalysisRecord{}, false
	}
	if value == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resume not found"})
		return domain.AnalysisRecord{}, false
	}

	record, err := domain.DecodeRecord(*value)
	if err != nil {
		h.logger.Warn("undecodable record", zap.String(logger.FieldResume, id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored resume is corrupt"})
		return domain.AnalysisRecord{}, false
	}
	return record, true
}

func (h *HTTPHandler) serveBlob(c *gin.Context, p string) {
	data, ok := h.platform.FS.Read(c.Request.Context(), p)
	if !ok {
		h.platformError(c)
		return
	}
	c.Data(http.StatusOK, platform.DetectContentType(p, data), data)
}

// scopeErrors attaches a per-request error collector so platformError
// reports this request's failure rather than the facade's shared one.
func (h *HTTPHandler) scopeErrors(c *gin.Context) {
	ctx, _ := platform.WithCallErrors(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// platformError reports the failure of the request's last facade call.
func (h *HTTPHandler) platformError(c *gin.Context) {
	err := platform.CallErrorsFrom(c.Request.Context()).Last()
	if err == nil {
		msg := h.platform.Err()
		status := http.StatusBadGateway
		if strings.Contains(msg, "not found") {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	msg := err.Error()
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, platform.ErrNotAvailable):
		status = http.StatusServiceUnavailable
		msg = platform.ErrNotAvailable.Error()
	case errors.Is(err, infrastructure.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, infrastructure.ErrInvalidPath):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": msg})
}

func (h *HTTPHandler) Health(c *gin.Context) {
	state := h.platform.State()
	status := http.StatusOK
	if !h.platform.Available() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"state":   state.String(),
		"error":   h.platform.Err(),
		"loading": h.platform.Loading(),
	})
}

func (h *HTTPHandler) ClearError(c *gin.Context) {
	h.platform.ClearError()
	c.Status(http.StatusNoContent)
}
