package rasterizer

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"
)

const EngineUniPDF = "unipdf"

type unipdfEngine struct{}

// UniPDFLoader activates the metered license when a key is given. The
// activation contacts the license server, so it runs once per converter.
func UniPDFLoader(licenseKey string) Loader {
	return func(ctx context.Context) (Engine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if licenseKey != "" {
			if err := license.SetMeteredKey(licenseKey); err != nil {
				return nil, fmt.Errorf("activating unipdf license: %w", err)
			}
		}
		return unipdfEngine{}, nil
	}
}

func (unipdfEngine) Name() string { return EngineUniPDF }

func (unipdfEngine) RenderFirstPage(ctx context.Context, data []byte, scale float64) (image.Image, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return nil, ErrNoPages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := reader.GetPage(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get first page: %w", err)
	}

	mediaBox, err := page.GetMediaBox()
	if err != nil {
		return nil, fmt.Errorf("failed to get media box: %w", err)
	}

	device := render.NewImageDevice()
	device.OutputWidth = int(mediaBox.Width() * scale)

	return device.Render(page)
}
