package infrastructure

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/domain"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Go</w:t><w:tab/><w:t>Engineer</w:t></w:r></w:p></w:body></w:document>`

func buildDocx(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText(domain.File{Name: "resume.txt", Data: []byte("plain resume")})
	require.NoError(t, err)
	assert.Equal(t, "plain resume", text)

	text, err = ExtractText(domain.File{Name: "notes", ContentType: "text/markdown", Data: []byte("# CV")})
	require.NoError(t, err)
	assert.Equal(t, "# CV", text)
}

func TestExtractTextDocx(t *testing.T) {
	text, err := ExtractText(domain.File{Name: "resume.docx", Data: buildDocx(t)})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo\tEngineer", text)
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := ExtractText(domain.File{Name: "photo.heic", Data: []byte{1, 2, 3}})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractTextBrokenPDF(t *testing.T) {
	_, err := ExtractText(domain.File{Name: "resume.pdf", Data: []byte("not a pdf")})
	require.Error(t, err)
}
