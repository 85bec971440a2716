package rasterizer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/domain"
)

type fakeEngine struct {
	err      error
	panicMsg string

	mu    sync.Mutex
	scale float64
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) RenderFirstPage(_ context.Context, _ []byte, scale float64) (image.Image, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.scale = scale
	f.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img, nil
}

func staticLoader(e Engine, calls *atomic.Int32) Loader {
	return func(context.Context) (Engine, error) {
		if calls != nil {
			calls.Add(1)
		}
		return e, nil
	}
}

func pdf(name string) domain.File {
	return domain.File{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.7")}
}

func TestImageName(t *testing.T) {
	tests := map[string]string{
		"resume.pdf":          "resume.png",
		"cv":                  "cv.png",
		"my.resume.final.pdf": "my.resume.final.png",
		"dir/sub/resume.PDF":  "resume.png",
		`C:\docs\resume.pdf`:  "resume.png",
		"":                    "page.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, ImageName(in), in)
	}
}

func TestConvertProducesPNGAndHandle(t *testing.T) {
	engine := &fakeEngine{}
	c := NewConverter(staticLoader(engine, nil), nil)

	res := c.Convert(context.Background(), pdf("resume.pdf"))

	require.Empty(t, res.Err)
	require.NotNil(t, res.Image)
	assert.Equal(t, "resume.png", res.Image.Name)
	assert.Equal(t, "image/png", res.Image.ContentType)
	assert.Equal(t, DefaultScale, engine.scale)

	decoded, err := png.Decode(bytes.NewReader(res.Image.Data))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())

	stored, ok := c.Previews().Get(res.Handle)
	require.True(t, ok)
	assert.Equal(t, res.Image.Data, stored.Data)
}

func TestConvertReportsEitherImageOrError(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
		doc    domain.File
	}{
		{name: "render error", engine: &fakeEngine{err: errors.New("corrupt xref")}, doc: pdf("resume.pdf")},
		{name: "engine panic", engine: &fakeEngine{panicMsg: "boom"}, doc: pdf("resume.pdf")},
		{name: "empty document", engine: &fakeEngine{}, doc: domain.File{Name: "resume.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(staticLoader(tt.engine, nil), nil)
			res := c.Convert(context.Background(), tt.doc)

			assert.Nil(t, res.Image)
			assert.Empty(t, res.Handle)
			assert.NotEmpty(t, res.Err)
			assert.Zero(t, c.Previews().Len())
		})
	}
}

func TestConvertHonoursScaleOption(t *testing.T) {
	engine := &fakeEngine{}
	c := NewConverter(staticLoader(engine, nil), nil, WithScale(2))
	res := c.Convert(context.Background(), pdf("a.pdf"))
	require.Empty(t, res.Err)
	assert.Equal(t, 2.0, engine.scale)
}

func TestEngineLoadedOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	c := NewConverter(staticLoader(&fakeEngine{}, &calls), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.Convert(context.Background(), pdf("resume.pdf"))
			assert.Empty(t, res.Err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 16, c.Previews().Len())
}

func TestFailedLoadIsRetried(t *testing.T) {
	var calls atomic.Int32
	loader := func(context.Context) (Engine, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("license server unreachable")
		}
		return &fakeEngine{}, nil
	}
	c := NewConverter(loader, nil)

	first := c.Convert(context.Background(), pdf("resume.pdf"))
	assert.Nil(t, first.Image)
	assert.Contains(t, first.Err, "license server unreachable")

	second := c.Convert(context.Background(), pdf("resume.pdf"))
	assert.Empty(t, second.Err)
	assert.NotNil(t, second.Image)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoaderFor(t *testing.T) {
	for _, name := range []string{"", EngineUniPDF, EngineFitz} {
		l, err := LoaderFor(name, "")
		require.NoError(t, err)
		require.NotNil(t, l)
	}
	_, err := LoaderFor("ghostscript", "")
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestPreviewsRelease(t *testing.T) {
	p := NewPreviews()
	h := p.Allocate(domain.File{Name: "a.png"})
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.Release(h))
	assert.False(t, p.Release(h))
	_, ok := p.Get(h)
	assert.False(t, ok)
	assert.Zero(t, p.Len())
}

func TestPreviewsPrune(t *testing.T) {
	p := NewPreviews()
	base := time.Now()
	p.now = func() time.Time { return base.Add(-time.Hour) }
	old := p.Allocate(domain.File{Name: "old.png"})
	p.now = func() time.Time { return base }
	fresh := p.Allocate(domain.File{Name: "fresh.png"})

	assert.Equal(t, 1, p.Prune(base.Add(-time.Minute)))
	_, ok := p.Get(old)
	assert.False(t, ok)
	_, ok = p.Get(fresh)
	assert.True(t, ok)
}
