package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

var exportHeader = []string{"question_id", "category", "question_text", "question_type", "conditional", "answer", "answered_at"}

// ExportResponsesCSV renders one row per answered question in catalog order.
// Answers to questions missing from the catalog are appended last with empty
// question columns.
func ExportResponsesCSV(catalog []*models.Question, responses []models.ProductResponse) ([]byte, error) {
	byQuestion := make(map[int64]models.ProductResponse, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, q := range catalog {
		r, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		delete(byQuestion, q.ID)
		rec := []string{
			strconv.FormatInt(q.ID, 10),
			q.Category,
			sanitizeCell(q.QuestionText),
			string(q.QuestionType),
			strconv.FormatBool(q.IsConditional),
			sanitizeCell(r.Answer),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	for _, r := range responses {
		if _, left := byQuestion[r.QuestionID]; !left {
			continue
		}
		rec := []string{strconv.FormatInt(r.QuestionID, 10), "", "", "", "", sanitizeCell(r.Answer), r.CreatedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// sanitizeCell keeps spreadsheet applications from evaluating free text.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// Export returns the product's answers as CSV along with a download name.
func (s *ResponseService) Export(ctx context.Context, userID, productID string) ([]byte, string, error) {
	p, err := ownedProduct(ctx, s.store, userID, productID)
	if err != nil {
		return nil, "", err
	}
	catalog, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list questions: %w", err)
	}
	sortCatalog(catalog)
	rs, err := s.store.ListResponses(ctx, productID)
	if err != nil {
		return nil, "", fmt.Errorf("list responses: %w", err)
	}
	b, err := ExportResponsesCSV(catalog, rs)
	if err != nil {
		return nil, "", fmt.Errorf("render csv: %w", err)
	}
	return b, exportFilename(p.ProductName), nil
}

func exportFilename(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('-')
		}
	}
	base := strings.Trim(sb.String(), "-")
	if base == "" {
		base = "product"
	}
	return base + "-responses.csv"
}
