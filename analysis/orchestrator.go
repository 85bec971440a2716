// Package analysis runs the resume analysis pipeline: upload, rasterize,
// persist a pending record, evaluate, parse and persist the outcome.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/platform"
	"resume-analyzer/rasterizer"
	"resume-analyzer/utils"
)

// Storage uploads files and returns the item of the last one, nil on failure.
type Storage interface {
	Upload(ctx context.Context, files ...domain.File) *domain.FSItem
}

type Rasterizer interface {
	Convert(ctx context.Context, doc domain.File) rasterizer.Result
	Release(handle string) bool
}

type Evaluator interface {
	Feedback(ctx context.Context, documentPath, instructions string) *platform.AIResponse
}

type RecordStore interface {
	Set(ctx context.Context, key, value string) bool
}

type Deps struct {
	FS         Storage
	Rasterizer Rasterizer
	AI         Evaluator
	KV         RecordStore
}

// FromPlatform wires the facade groups and a converter into Deps.
func FromPlatform(c *platform.Client, conv Rasterizer) Deps {
	return Deps{FS: c.FS, Rasterizer: conv, AI: c.AI, KV: c.KV}
}

type Request struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	Document       domain.File
}

type Orchestrator struct {
	deps           Deps
	logger         *zap.Logger
	maxLogLength   int
	handOffPreview bool
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMaxLogLength(n int) Option {
	return func(o *Orchestrator) { o.maxLogLength = n }
}

// WithPreviewHandoff leaves the preview handle allocated after the run. The
// handle is reported in every status from uploading_image on and the
// receiver of those statuses releases it.
func WithPreviewHandoff() Option {
	return func(o *Orchestrator) { o.handOffPreview = true }
}

func NewOrchestrator(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{deps: deps, maxLogLength: 512}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logger.WithFields(o.logger, zap.String("component", "analysis"))
	return o
}

// Analyze runs every step in order and stops at the first failure. It
// returns the id of the completed record. Failures are *StepError values
// wrapping one of the package sentinels.
func (o *Orchestrator) Analyze(ctx context.Context, req Request, status StatusFunc) (string, error) {
	if status == nil {
		status = func(Status) {}
	}
	run := &pipeline{o: o, status: status, started: time.Now()}

	run.emit(StepUploading)
	docItem := o.deps.FS.Upload(ctx, req.Document)
	if docItem == nil {
		return "", run.fail(StepUploading, ErrUploadFailed)
	}

	run.emit(StepConverting)
	converted := o.deps.Rasterizer.Convert(ctx, req.Document)
	if converted.Image == nil {
		return "", run.fail(StepConverting, fmt.Errorf("%w: %s", ErrConversionFailed, converted.Err))
	}
	if !o.handOffPreview {
		defer o.deps.Rasterizer.Release(converted.Handle)
	}
	run.preview = converted.Handle

	run.emit(StepUploadingImage)
	imageItem := o.deps.FS.Upload(ctx, *converted.Image)
	if imageItem == nil {
		return "", run.fail(StepUploadingImage, ErrImageUploadFailed)
	}

	run.emit(StepPreparing)
	record := domain.AnalysisRecord{
		ID:           utils.NewID(),
		DocumentPath: docItem.Path,
		ImagePath:    imageItem.Path,
		CompanyName:  req.CompanyName,
		JobTitle:     req.JobTitle,
		Feedback:     domain.PendingFeedback(),
	}
	run.resumeID = record.ID
	if err := o.save(ctx, record); err != nil {
		return "", run.fail(StepPreparing, fmt.Errorf("%w: %v", ErrSaveFailed, err))
	}

	run.emit(StepAnalyzing)
	instructions := BuildInstructions(req.JobTitle, req.JobDescription)
	resp := o.deps.AI.Feedback(ctx, record.DocumentPath, instructions)
	if resp == nil {
		return "", run.fail(StepAnalyzing, ErrAnalysisFailed)
	}

	run.emit(StepParsing)
	text := resp.Text()
	o.logger.Debug("evaluation received",
		zap.String(logger.FieldResume, record.ID),
		zap.String("response", logger.TruncateForLog(text, o.maxLogLength)),
	)
	feedback, err := ParseFeedback(text)
	if err != nil {
		return "", run.fail(StepParsing, fmt.Errorf("%w: %w", ErrMalformedFeedback, err))
	}

	run.emit(StepFinalizing)
	record.Feedback = domain.CompleteFeedback(feedback)
	if err := o.save(ctx, record); err != nil {
		return "", run.fail(StepFinalizing, fmt.Errorf("%w: %v", ErrFeedbackSaveFailed, err))
	}

	run.emit(StepComplete)
	o.logger.Info("analysis complete",
		zap.String(logger.FieldResume, record.ID),
		zap.Int("overall_score", feedback.OverallScore),
		zap.Duration("elapsed", time.Since(run.started)),
	)
	return record.ID, nil
}

func (o *Orchestrator) save(ctx context.Context, record domain.AnalysisRecord) error {
	encoded, err := record.Encode()
	if err != nil {
		return err
	}
	if !o.deps.KV.Set(ctx, domain.RecordKey(record.ID), encoded) {
		return fmt.Errorf("store rejected %s", domain.RecordKey(record.ID))
	}
	return nil
}

type pipeline struct {
	o        *Orchestrator
	status   StatusFunc
	resumeID string
	preview  string
	started  time.Time
}

func (p *pipeline) emit(step Step) {
	s := progress(step, p.resumeID)
	s.Preview = p.preview
	p.status(s)
}

func (p *pipeline) fail(step Step, err error) error {
	s := failure(step, sentinelFor(step), p.resumeID)
	s.Preview = p.preview
	p.status(s)
	p.o.logger.Warn("analysis halted",
		zap.String("at", string(step)),
		zap.String(logger.FieldResume, p.resumeID),
		zap.Error(err),
	)
	return &StepError{Step: step, Err: err}
}

func sentinelFor(step Step) error {
	switch step {
	case StepUploading:
		return ErrUploadFailed
	case StepConverting:
		return ErrConversionFailed
	case StepUploadingImage:
		return ErrImageUploadFailed
	case StepPreparing:
		return ErrSaveFailed
	case StepAnalyzing:
		return ErrAnalysisFailed
	case StepParsing:
		return ErrMalformedFeedback
	default:
		return ErrFeedbackSaveFailed
	}
}
