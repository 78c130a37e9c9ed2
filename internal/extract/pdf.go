// ABOUTME: PDF line extraction producing page/line-tagged transcript lines
// ABOUTME: Uses ledongthuc/pdf row extraction, dropping blank lines
package extract

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/callsight/callsight/internal/models"
)

// PDFExtractor reads transcript lines out of PDF bytes. Line numbers
// are 1-based and reset at every page; blank lines are dropped.
type PDFExtractor struct{}

// ExtractLines parses the document and returns its ordered lines.
// An unreadable document is a fatal processing error for the caller.
func (PDFExtractor) ExtractLines(data []byte) ([]models.Line, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var lines []models.Line
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			// A single malformed page should not sink the document.
			continue
		}

		lineNo := 0
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			text := strings.Join(strings.Fields(sb.String()), " ")
			if text == "" {
				continue
			}
			lineNo++
			lines = append(lines, models.Line{Text: text, Page: pageNum, LineNo: lineNo})
		}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("no extractable text in document")
	}
	return lines, nil
}
