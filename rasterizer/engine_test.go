package rasterizer

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/domain"
)

// onePagePDF builds a valid single-page PDF with a w x h point media box and
// a filled rectangle on it.
func onePagePDF(w, h int) []byte {
	content := fmt.Sprintf("0 0 1 rg 10 10 %d %d re f", w/2, h/2)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents 4 0 R /Resources << >> >>", w, h),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestEnginesRenderRealDocument(t *testing.T) {
	const width, height = 200, 100
	doc := domain.File{Name: "cv.pdf", ContentType: "application/pdf", Data: onePagePDF(width, height)}

	for name, load := range map[string]Loader{
		EngineUniPDF: UniPDFLoader(""),
		EngineFitz:   FitzLoader(),
	} {
		t.Run(name, func(t *testing.T) {
			c := NewConverter(load, nil)
			res := c.Convert(context.Background(), doc)
			require.NotNil(t, res.Image, res.Err)
			assert.Equal(t, "cv.png", res.Image.Name)
			assert.Equal(t, "image/png", res.Image.ContentType)

			img, err := png.Decode(bytes.NewReader(res.Image.Data))
			require.NoError(t, err)
			assert.InDelta(t, width*DefaultScale, img.Bounds().Dx(), 2)
			assert.InDelta(t, height*DefaultScale, img.Bounds().Dy(), 2)

			assert.True(t, c.Release(res.Handle))
		})
	}
}

func TestEnginesRejectCorruptDocument(t *testing.T) {
	for name, load := range map[string]Loader{
		EngineUniPDF: UniPDFLoader(""),
		EngineFitz:   FitzLoader(),
	} {
		t.Run(name, func(t *testing.T) {
			c := NewConverter(load, nil)
			res := c.Convert(context.Background(), domain.File{Name: "cv.pdf", Data: []byte("not a pdf at all")})
			assert.Nil(t, res.Image)
			assert.Contains(t, res.Err, "failed to convert cv.pdf")
			assert.Zero(t, c.Previews().Len())
		})
	}
}
