package rasterizer

import (
	"context"
	"errors"
	"image"
)

var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrNoPages       = errors.New("document has no pages")
	ErrUnknownEngine = errors.New("unknown rasterizer engine")
)

// Engine renders the first page of a paginated document.
type Engine interface {
	Name() string
	RenderFirstPage(ctx context.Context, data []byte, scale float64) (image.Image, error)
}

// Loader performs the heavyweight initialization of an Engine.
type Loader func(ctx context.Context) (Engine, error)

// LoaderFor returns the loader registered under name.
func LoaderFor(name, licenseKey string) (Loader, error) {
	switch name {
	case "", EngineUniPDF:
		return UniPDFLoader(licenseKey), nil
	case EngineFitz:
		return FitzLoader(), nil
	default:
		return nil, ErrUnknownEngine
	}
}
