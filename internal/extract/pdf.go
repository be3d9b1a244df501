// Package extract turns academic plan PDF documents into plain text lines
// for the curriculum parser. It only deals with text extraction, never with
// the document's meaning.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// Lines extracts the text rows of every page, in document order.
// Rows are NFC-normalized and trimmed, empty rows are dropped. Page
// boundaries disappear, the parser only sees a flat line sequence.
func Lines(data []byte) (lines []string, err error) {
	// The pdf library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("pdf extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", pageNum, err)
		}

		for _, row := range rows {
			var b strings.Builder
			for _, text := range row.Content {
				b.WriteString(text.S)
			}
			if line := NormalizeLine(b.String()); line != "" {
				lines = append(lines, line)
			}
		}
	}

	return lines, nil
}

// NormalizeLine trims a raw extracted line and normalizes it to NFC so
// composed and decomposed Cyrillic forms compare equal downstream.
func NormalizeLine(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
