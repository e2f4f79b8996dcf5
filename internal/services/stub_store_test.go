package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

// stubStore satisfies every service store interface in memory.
type stubStore struct {
	products   map[string]*models.Product
	questions  []*models.Question
	responses  map[string][]models.ProductResponse
	reports    map[string]*models.Report
	replaceErr error
	upserts    int
}

func newStubStore(questions []*models.Question) *stubStore {
	return &stubStore{
		products:  map[string]*models.Product{},
		questions: questions,
		responses: map[string][]models.ProductResponse{},
		reports:   map[string]*models.Report{},
	}
}

func (s *stubStore) CreateProduct(_ context.Context, p *models.Product) error {
	copy := *p
	s.products[p.ID] = &copy
	return nil
}

func (s *stubStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

func (s *stubStore) ListProductsByUser(_ context.Context, userID string) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range s.products {
		if p.UserID == userID {
			copy := *p
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateProductStatus(_ context.Context, id string, status models.ProductStatus, at time.Time) error {
	p, ok := s.products[id]
	if !ok {
		return errors.New("missing product")
	}
	p.Status = status
	p.UpdatedAt = at
	return nil
}

func (s *stubStore) DeleteProduct(_ context.Context, id string) error {
	delete(s.products, id)
	delete(s.responses, id)
	delete(s.reports, id)
	return nil
}

func (s *stubStore) ListQuestions(_ context.Context) ([]*models.Question, error) {
	out := make([]*models.Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

func (s *stubStore) ReplaceResponses(_ context.Context, productID string, rs []models.ProductResponse, at time.Time) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.responses[productID] = append([]models.ProductResponse(nil), rs...)
	if p := s.products[productID]; p != nil && p.Status == models.StatusDraft {
		p.Status = models.StatusCompleted
		p.UpdatedAt = at
	}
	return nil
}

func (s *stubStore) ListResponses(_ context.Context, productID string) ([]models.ProductResponse, error) {
	return append([]models.ProductResponse(nil), s.responses[productID]...), nil
}

func (s *stubStore) UpsertReport(_ context.Context, r *models.Report) (*models.Report, error) {
	s.upserts++
	copy := *r
	if existing, ok := s.reports[r.ProductID]; ok {
		copy.ID = existing.ID
	}
	s.reports[r.ProductID] = &copy
	out := copy
	return &out, nil
}

func (s *stubStore) GetReport(_ context.Context, productID string) (*models.Report, error) {
	if r, ok := s.reports[productID]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, nil
}

// seedCatalog mirrors the shape of the seeded catalog: 21 base questions,
// seven of them in composition, plus the allergen follow-up.
func seedCatalog() []*models.Question {
	categories := []string{
		"composition", "composition", "composition", "composition", "composition", "composition", "composition",
		"health", "health", "health",
		"origin", "origin",
		"certifications", "certifications",
		"sustainability", "sustainability",
		"manufacturing", "manufacturing",
		"packaging", "ethics", "storage",
	}
	qs := make([]*models.Question, 0, len(categories)+1)
	for i, c := range categories {
		qs = append(qs, &models.Question{
			ID:           int64(i + 1),
			QuestionText: fmt.Sprintf("Question %d", i+1),
			QuestionType: models.QuestionText,
			Category:     c,
			OrderNumber:  i + 1,
		})
	}
	qs[7].QuestionType = models.QuestionBoolean
	qs = append(qs, &models.Question{
		ID: 22, QuestionText: "List all allergens", QuestionType: models.QuestionTextarea, Category: "health",
		IsConditional: true, ParentQuestionID: ptr(8), TriggerAnswer: "yes", OrderNumber: 8,
	})
	return qs
}

func isCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
