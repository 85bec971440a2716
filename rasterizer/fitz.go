package rasterizer

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

const (
	EngineFitz = "fitz"
	baseDPI    = 72.0
)

type fitzEngine struct{}

func FitzLoader() Loader {
	return func(ctx context.Context) (Engine, error) {
		return fitzEngine{}, ctx.Err()
	}
}

func (fitzEngine) Name() string { return EngineFitz }

func (fitzEngine) RenderFirstPage(ctx context.Context, data []byte, scale float64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrNoPages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := doc.ImageDPI(0, baseDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render first page: %w", err)
	}
	return img, nil
}
