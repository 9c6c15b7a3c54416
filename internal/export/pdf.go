// Package export renders library content to Markdown and PDF.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mandolyte/mdtopdf"

	"github.com/starford/agencyhub/internal/apperr"
	"github.com/starford/agencyhub/internal/models"
)

// PDF renders markdown to PDF bytes. mdtopdf writes to a file, so the output
// goes through a temporary directory.
func PDF(markdown string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "agencyhub-export-*")
	if err != nil {
		return nil, fmt.Errorf("export: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, "export.pdf")
	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process([]byte(markdown)); err != nil {
		return nil, fmt.Errorf("export: renderer.Process() > %w", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("export: read pdf: %w", err)
	}
	return data, nil
}

// AssetPDF renders a note asset. File assets are served as-is and cannot be
// exported.
func AssetPDF(a *models.ContentAsset) ([]byte, error) {
	if a.Body.Note == nil {
		return nil, apperr.Invalid("body", "only note content can be exported")
	}
	return PDF(AssetMarkdown(a))
}
