package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(b))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestExportResponsesCSVCatalogOrder(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	catalog := seedCatalog()
	sortCatalog(catalog)
	responses := []models.ProductResponse{
		{QuestionID: 9, Answer: "Low sugar", CreatedAt: at},
		{QuestionID: 22, Answer: "Soy, gluten", CreatedAt: at},
		{QuestionID: 1, Answer: "Green tea", CreatedAt: at},
		{QuestionID: 8, Answer: "yes", CreatedAt: at},
	}
	b, err := ExportResponsesCSV(catalog, responses)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := readCSV(t, b)
	if len(rows) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "question_id,category,question_text,question_type,conditional,answer,answered_at" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	var ids []string
	for _, row := range rows[1:] {
		ids = append(ids, row[0])
	}
	if strings.Join(ids, ",") != "1,8,22,9" {
		t.Fatalf("expected catalog order 1,8,22,9, got %v", ids)
	}
	if rows[3][1] != "health" || rows[3][3] != "textarea" || rows[3][4] != "true" || rows[3][5] != "Soy, gluten" {
		t.Fatalf("unexpected conditional row %v", rows[3])
	}
	if rows[1][6] != "2026-03-01T09:30:00Z" {
		t.Fatalf("unexpected timestamp %q", rows[1][6])
	}
}

func TestExportResponsesCSVUnknownQuestionAndFormula(t *testing.T) {
	catalog := []*models.Question{{ID: 1, QuestionText: "=SUM(A1)", QuestionType: models.QuestionText, Category: "composition", OrderNumber: 1}}
	responses := []models.ProductResponse{
		{QuestionID: 99, Answer: "orphan"},
		{QuestionID: 1, Answer: "+1 cup"},
	}
	b, err := ExportResponsesCSV(catalog, responses)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := readCSV(t, b)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][2] != "'=SUM(A1)" || rows[1][5] != "'+1 cup" {
		t.Fatalf("expected formula cells escaped, got %v", rows[1])
	}
	if rows[2][0] != "99" || rows[2][1] != "" || rows[2][5] != "orphan" {
		t.Fatalf("expected orphan answer last, got %v", rows[2])
	}
}

func TestExportResponsesCSVEmpty(t *testing.T) {
	b, err := ExportResponsesCSV(seedCatalog(), nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if rows := readCSV(t, b); len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestResponseServiceExport(t *testing.T) {
	ctx := context.Background()
	store, svc := setupResponseTest()
	if _, err := svc.Submit(ctx, "u1", "p1", []Answer{{QuestionID: 2, Answer: "Water"}, {QuestionID: 1, Answer: "Green tea"}}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	b, name, err := svc.Export(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if name != "green-tea-responses.csv" {
		t.Fatalf("unexpected filename %q", name)
	}
	rows := readCSV(t, b)
	if len(rows) != 3 || rows[1][0] != "1" || rows[2][0] != "2" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if _, _, err := svc.Export(ctx, "u2", "p1"); !isCode(err, ErrorNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	store.products["p2"] = &models.Product{ID: "p2", UserID: "u1", ProductName: "  ", Status: models.StatusDraft}
	if _, name, err := svc.Export(ctx, "u1", "p2"); err != nil || name != "product-responses.csv" {
		t.Fatalf("expected fallback filename, got %q %v", name, err)
	}
}
