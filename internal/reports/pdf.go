package reports

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

const (
	fontFamily = "Helvetica"
	rowHeight  = 10.0
	chartWidth = 170.0
	chartHigh  = 90.0
)

// PDFRenderer lays documents out on A4 pages with fpdf.
type PDFRenderer struct {
	// HeaderImage is drawn at the top of every page when set. It must exist.
	HeaderImage string
}

// NewPDFRenderer constructs a renderer with an optional header image.
func NewPDFRenderer(headerImage string) *PDFRenderer {
	return &PDFRenderer{HeaderImage: headerImage}
}

// Render writes doc to path, creating the parent directory.
func (r *PDFRenderer) Render(doc Document, path string) error {
	if r.HeaderImage != "" {
		if _, err := os.Stat(r.HeaderImage); err != nil {
			return utils.OperationFailed("render pdf", "header image unavailable", err)
		}
	}
	for _, block := range doc.Blocks {
		for _, chart := range block.Charts {
			if _, err := os.Stat(chart.Path); err != nil {
				return utils.OperationFailed("render pdf", "chart image unavailable", err)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return utils.OperationFailed("render pdf", "create output directory", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetHeaderFunc(func() {
		if r.HeaderImage != "" {
			pdf.ImageOptions(r.HeaderImage, 10, 2, 190, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
		pdf.SetY(30)
	})
	pdf.SetFooterFunc(func() {
		if doc.Framed {
			pdf.Rect(5, 5, 200, 287, "D")
		}
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	if doc.Title != "" {
		pdf.SetFont(fontFamily, "B", 16)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	if doc.Subtitle != "" {
		pdf.SetFont(fontFamily, "B", 14)
		pdf.CellFormat(0, 10, tr(doc.Subtitle), "", 1, "C", false, 0, "")
		pdf.Ln(10)
	}

	for _, block := range doc.Blocks {
		if block.NewPage {
			pdf.AddPage()
		}
		if block.Heading != "" {
			pdf.SetFont(fontFamily, "B", 12)
			pdf.CellFormat(0, 10, tr(block.Heading), "", 1, "L", false, 0, "")
			pdf.Ln(5)
		}
		if block.Table != nil {
			writeTable(pdf, tr, block.Table)
			pdf.Ln(10)
		}
		for _, chart := range block.Charts {
			pdf.SetFont(fontFamily, "B", 10)
			pdf.CellFormat(0, 10, tr(chart.Caption), "", 1, "C", false, 0, "")
			pdf.ImageOptions(chart.Path, 20, pdf.GetY(), chartWidth, chartHigh, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
			pdf.Ln(chartHigh + 5)
		}
	}

	return replaceFile(path, pdf.Output)
}

// replaceFile writes through a temp file in the target directory and renames it over path,
// so readers holding the previous file keep a complete copy.
func replaceFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return utils.OperationFailed("render pdf", "create temp file", err)
	}
	tmpName := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return utils.OperationFailed("render pdf", "write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return utils.OperationFailed("render pdf", "write "+path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return utils.OperationFailed("render pdf", "chmod "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return utils.OperationFailed("render pdf", "replace "+path, err)
	}
	return nil
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, table *Table) {
	pdf.SetFont(fontFamily, "", 11)
	for i, col := range table.Columns {
		pdf.CellFormat(col.Width, rowHeight, tr(col.Title), "1", lineEnd(i, len(table.Columns)), "C", false, 0, "")
	}
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			pdf.CellFormat(col.Width, rowHeight, tr(text), "1", lineEnd(i, len(table.Columns)), "C", false, 0, "")
		}
	}
}

func lineEnd(i, n int) int {
	if i == n-1 {
		return 1
	}
	return 0
}
