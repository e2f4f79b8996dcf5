package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/models"
	"github.com/soaringjerry/Clearlabel/internal/services"
)

// MemoryStore keeps everything in process. It backs the "memory" database
// driver and the router tests.
type MemoryStore struct {
	mu           sync.RWMutex
	usersByEmail map[string]*models.User
	products     map[string]*models.Product
	questions    []*models.Question
	questionIDs  map[int64]bool
	responses    map[string][]models.ProductResponse
	reports      map[string]*models.Report
}

func NewMemoryStore(questions []*models.Question) *MemoryStore {
	s := &MemoryStore{
		usersByEmail: map[string]*models.User{},
		products:     map[string]*models.Product{},
		questionIDs:  map[int64]bool{},
		responses:    map[string][]models.ProductResponse{},
		reports:      map[string]*models.Report{},
	}
	for _, q := range questions {
		cp := *q
		s.questions = append(s.questions, &cp)
		s.questionIDs[q.ID] = true
	}
	return s
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[u.Email]; ok {
		return fmt.Errorf("%w: users_email_key", services.ErrDuplicate)
	}
	cp := *u
	s.usersByEmail[u.Email] = &cp
	return nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return fmt.Errorf("%w: products_pkey", services.ErrDuplicate)
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListProductsByUser(_ context.Context, userID string) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Product{}
	for _, p := range s.products {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateProductStatus(_ context.Context, id string, status models.ProductStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.Status = status
		p.UpdatedAt = at
	}
	return nil
}

// DeleteProduct cascades to responses and the report.
func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	delete(s.responses, id)
	delete(s.reports, id)
	return nil
}

func (s *MemoryStore) ListQuestions(context.Context) ([]*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		cp := *q
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) ReplaceResponses(_ context.Context, productID string, rs []models.ProductResponse, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("replace responses: product %s not found", productID)
	}
	for _, r := range rs {
		if !s.questionIDs[r.QuestionID] {
			return fmt.Errorf("replace responses: unknown question %d", r.QuestionID)
		}
	}
	s.responses[productID] = append([]models.ProductResponse(nil), rs...)
	if p.Status == models.StatusDraft {
		p.Status = models.StatusCompleted
		p.UpdatedAt = at
	}
	return nil
}

func (s *MemoryStore) ListResponses(_ context.Context, productID string) ([]models.ProductResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ProductResponse{}, s.responses[productID]...), nil
}

func (s *MemoryStore) UpsertReport(_ context.Context, r *models.Report) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[r.ProductID]; !ok {
		return nil, fmt.Errorf("upsert report: product %s not found", r.ProductID)
	}
	cp := *r
	if existing, ok := s.reports[r.ProductID]; ok {
		cp.ID = existing.ID
	}
	s.reports[r.ProductID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) GetReport(_ context.Context, productID string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[productID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}
