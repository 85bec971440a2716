package infrastructure

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"resume-analyzer/domain"
)

const maxPlainTextBytes = 100000

// ExtractText returns the readable text of a document. PDF goes through
// unipdf, DOCX through the docx reader, text formats are returned as is.
func ExtractText(file domain.File) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(file.Name), "."))
	switch {
	case ext == "pdf" || file.ContentType == "application/pdf":
		return extractPDFText(file.Data)
	case ext == "docx":
		return extractDocxText(file.Data)
	case ext == "txt" || ext == "md" || strings.HasPrefix(file.ContentType, "text/"):
		data := file.Data
		if len(data) > maxPlainTextBytes {
			data = data[:maxPlainTextBytes]
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, file.Name)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", errors.New("PDF has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", i, text)
	}

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", errors.New("no text could be extracted from any page of the PDF")
	}
	return result, nil
}

func extractDocxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer r.Close()

	return docxPlainText(r.Editable().GetContent())
}

// docxPlainText keeps the character data of a WordprocessingML body and
// ends every paragraph with a newline.
func docxPlainText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing DOCX body: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
		case xml.StartElement:
			if t.Name.Local == "tab" {
				b.WriteByte('\t')
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
