// Package ingest implements the Document Ingestor (C2): extraction of
// structured paragraph records from binary PDFs, by page, for the
// Retrieval Service to embed and index.
package ingest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Paragraph is one extracted, cleaned paragraph ready for embedding.
type Paragraph struct {
	Text           string
	Page           int
	ParagraphIndex int
	WordCount      int
}

// Result is the full extraction output for one document.
type Result struct {
	Paragraphs []Paragraph
	PageCount  int
}

const minParagraphLength = 50

var (
	blankLineRun    = regexp.MustCompile(`\n\s*\n+`)
	intraWhitespace = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	multiSpaceRun   = regexp.MustCompile(` {2,}`)
)

// ExtractPDF reads raw PDF bytes and returns an ordered list of paragraph
// records. Algorithm: normalize line endings, split on
// blank-line runs per page, collapse intra-paragraph newlines and
// multi-space runs to single spaces, discard fragments shorter than
// minParagraphLength characters (headers/footers).
func ExtractPDF(raw []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Result{}, fmt.Errorf("ingest: open pdf: %w", err)
	}

	pageCount := reader.NumPage()
	var paragraphs []Paragraph

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not abort the whole document;
			// skip it and keep extracting the rest.
			continue
		}

		for i, para := range splitParagraphs(text) {
			paragraphs = append(paragraphs, Paragraph{
				Text:           para,
				Page:           pageNum,
				ParagraphIndex: i,
				WordCount:      len(strings.Fields(para)),
			})
		}
	}

	return Result{Paragraphs: paragraphs, PageCount: pageCount}, nil
}

func splitParagraphs(pageText string) []string {
	normalized := strings.ReplaceAll(pageText, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	candidates := blankLineRun.Split(normalized, -1)

	var result []string
	for _, candidate := range candidates {
		collapsed := intraWhitespace.ReplaceAllString(candidate, " ")
		collapsed = multiSpaceRun.ReplaceAllString(collapsed, " ")
		collapsed = strings.TrimSpace(collapsed)

		if len(collapsed) < minParagraphLength {
			continue
		}
		result = append(result, collapsed)
	}
	return result
}
