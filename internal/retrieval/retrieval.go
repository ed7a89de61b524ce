// Package retrieval implements the Retrieval Service (C3): ingest
// documents into the Vector Index and fetch deduplicated passages relevant
// to one chapter's plan.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"coursesynth.app/api/common/vectorindex"
	"coursesynth.app/api/internal/ingest"
	"coursesynth.app/api/internal/model"
)

type VectorIndex interface {
	Upsert(ctx context.Context, courseID int64, contentID, text string, metadata map[string]string) error
	Query(ctx context.Context, courseID int64, text string, k int, filter map[string]string) ([]vectorindex.Match, error)
}

type Service struct {
	index VectorIndex
}

func New(index VectorIndex) *Service {
	return &Service{index: index}
}

// DocumentSource is the minimal shape Ingest needs from a stored Document.
type DocumentSource struct {
	ID       string
	Filename string
	Content  []byte
}

// Ingest extracts paragraphs from each PDF document and upserts them into
// course's collection. content_id is doc_<id>_page_<p>_para_<i>.
// Non-PDF documents are skipped silently, not treated as an error. A
// document whose paragraphs fail to upsert is abandoned (its RAG context is
// simply absent for that course) but never aborts ingestion of the other
// documents: one transient vector-index write failure must not fail course
// creation outright.
func (s *Service) Ingest(ctx context.Context, courseID int64, documents []DocumentSource) error {
	for _, doc := range documents {
		result, err := ingest.ExtractPDF(doc.Content)
		if err != nil {
			// Not a PDF (or unreadable): skip silently.
			continue
		}

		for _, para := range result.Paragraphs {
			contentID := fmt.Sprintf("doc_%s_page_%d_para_%d", doc.ID, para.Page, para.ParagraphIndex)
			metadata := map[string]string{
				"type":            "pdf_paragraph",
				"course":          fmt.Sprintf("%d", courseID),
				"document":        doc.ID,
				"filename":        doc.Filename,
				"page":            fmt.Sprintf("%d", para.Page),
				"paragraph_index": fmt.Sprintf("%d", para.ParagraphIndex),
				"word_count":      fmt.Sprintf("%d", para.WordCount),
			}
			if err := s.index.Upsert(ctx, courseID, contentID, para.Text, metadata); err != nil {
				slog.ErrorContext(ctx, "retrieval: upsert failed, abandoning document",
					"error", err, "course_id", courseID, "document", doc.ID, "content_id", contentID)
				break
			}
		}
	}
	return nil
}

// RAGForChapter executes one k=2 query against the chapter caption plus one
// k=3 query per content bullet, unions the results, and deduplicates by
// exact text. Ordering of the returned passages is unspecified.
func (s *Service) RAGForChapter(ctx context.Context, courseID int64, plan model.ChapterPlan) ([]string, error) {
	seen := make(map[string]struct{})
	var passages []string

	add := func(matches []vectorindex.Match) {
		for _, m := range matches {
			if _, ok := seen[m.Text]; ok {
				continue
			}
			seen[m.Text] = struct{}{}
			passages = append(passages, m.Text)
		}
	}

	captionMatches, err := s.index.Query(ctx, courseID, plan.Caption, 2, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieval: query caption: %w", err)
	}
	add(captionMatches)

	for _, bullet := range plan.Content {
		bulletMatches, err := s.index.Query(ctx, courseID, bullet, 3, nil)
		if err != nil {
			return nil, fmt.Errorf("retrieval: query bullet: %w", err)
		}
		add(bulletMatches)
	}

	return passages, nil
}
