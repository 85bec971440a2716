// Package rasterizer converts the first page of a document into a PNG image.
package rasterizer

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/metrics"
)

const DefaultScale = 4.0

// Result carries either an image and its preview handle or an error message.
type Result struct {
	Image  *domain.File
	Handle string
	Err    string
}

type Converter struct {
	load     Loader
	scale    float64
	previews *Previews
	logger   *zap.Logger
	metrics  *metrics.Manager

	group  singleflight.Group
	mu     sync.Mutex
	engine Engine
}

type Option func(*Converter)

func WithScale(scale float64) Option {
	return func(c *Converter) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(c *Converter) { c.metrics = m }
}

// NewConverter returns a converter whose engine is loaded on first use.
func NewConverter(load Loader, previews *Previews, opts ...Option) *Converter {
	c := &Converter{
		load:     load,
		scale:    DefaultScale,
		previews: previews,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.WithFields(c.logger, zap.String("component", "rasterizer"))
	if c.previews == nil {
		c.previews = NewPreviews()
	}
	return c
}

func (c *Converter) Previews() *Previews {
	return c.previews
}

// Release frees the preview handle returned by Convert.
func (c *Converter) Release(handle string) bool {
	return c.previews.Release(handle)
}

// Convert renders page one of doc. It never returns a Go error: failures
// are reported through Result.Err.
func (c *Converter) Convert(ctx context.Context, doc domain.File) Result {
	engine, err := c.acquire(ctx)
	if err != nil {
		c.logger.Error("loading engine", zap.Error(err))
		c.metrics.RecordRasterize("unloaded", true)
		return Result{Err: fmt.Sprintf("failed to load conversion engine: %v", err)}
	}

	img, err := c.render(ctx, engine, doc)
	if err != nil {
		c.logger.Warn("rendering first page", zap.String("file", doc.Name), zap.Error(err))
		c.metrics.RecordRasterize(engine.Name(), true)
		return Result{Err: fmt.Sprintf("failed to convert %s: %v", doc.Name, err)}
	}

	handle := c.previews.Allocate(*img)
	c.metrics.RecordRasterize(engine.Name(), false)
	c.logger.Debug("rendered first page",
		zap.String("file", img.Name),
		zap.Int64("bytes", img.Size()),
		zap.String(logger.FieldEngine, engine.Name()),
	)

	return Result{Image: img, Handle: handle}
}

func (c *Converter) render(ctx context.Context, engine Engine, doc domain.File) (img *domain.File, err error) {
	if len(doc.Data) == 0 {
		return nil, ErrEmptyDocument
	}

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()

	page, err := engine.RenderFirstPage(ctx, doc.Data, c.scale)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}

	return &domain.File{
		Name:        ImageName(doc.Name),
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}, nil
}

// acquire returns the cached engine or loads it. Callers arriving while a
// load is in flight share its outcome. Failed loads are not cached.
func (c *Converter) acquire(ctx context.Context) (Engine, error) {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine != nil {
		return engine, nil
	}

	v, err, _ := c.group.Do("engine", func() (any, error) {
		c.mu.Lock()
		cached := c.engine
		c.mu.Unlock()
		if cached != nil {
			return cached, nil
		}

		loaded, err := c.load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.engine = loaded
		c.mu.Unlock()
		c.logger.Info("conversion engine ready", zap.String(logger.FieldEngine, loaded.Name()))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

// ImageName replaces the extension of name's base with ".png".
func ImageName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "page"
	}
	return strings.TrimSuffix(base, path.Ext(base)) + ".png"
}
