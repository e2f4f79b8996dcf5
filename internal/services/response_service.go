package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	ProductGetter
	QuestionStore
	// ReplaceResponses swaps the product's whole answer set and marks a draft
	// product completed, atomically.
	ReplaceResponses(ctx context.Context, productID string, responses []models.ProductResponse, at time.Time) error
	ListResponses(ctx context.Context, productID string) ([]models.ProductResponse, error)
}

type ResponseService struct {
	store ResponseStore
	now   func() time.Time
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit replaces every stored answer of the product with answers. Repeated
// question ids keep the last answer given.
func (s *ResponseService) Submit(ctx context.Context, userID, productID string, answers []Answer) ([]models.ProductResponse, error) {
	if answers == nil {
		return nil, NewInvalidError("responses must be an array")
	}
	p, err := ownedProduct(ctx, s.store, userID, productID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusArchived {
		return nil, NewConflictError("product is archived")
	}
	catalog, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	known := make(map[int64]struct{}, len(catalog))
	for _, q := range catalog {
		known[q.ID] = struct{}{}
	}

	now := s.now()
	index := make(map[int64]int, len(answers))
	out := make([]models.ProductResponse, 0, len(answers))
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return nil, NewInvalidError("unknown question_id " + strconv.FormatInt(a.QuestionID, 10))
		}
		if i, dup := index[a.QuestionID]; dup {
			out[i].Answer = a.Answer
			continue
		}
		index[a.QuestionID] = len(out)
		out = append(out, models.ProductResponse{
			ProductID:  productID,
			QuestionID: a.QuestionID,
			Answer:     a.Answer,
			CreatedAt:  now,
		})
	}
	if err := s.store.ReplaceResponses(ctx, productID, out, now); err != nil {
		return nil, fmt.Errorf("replace responses: %w", err)
	}
	return out, nil
}

func (s *ResponseService) List(ctx context.Context, userID, productID string) ([]models.ProductResponse, error) {
	if _, err := ownedProduct(ctx, s.store, userID, productID); err != nil {
		return nil, err
	}
	rs, err := s.store.ListResponses(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if rs == nil {
		rs = []models.ProductResponse{}
	}
	return rs, nil
}
