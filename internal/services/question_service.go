package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

type QuestionStore interface {
	ListQuestions(ctx context.Context) ([]*models.Question, error)
}

type QuestionService struct {
	store QuestionStore
	log   *zap.Logger
}

type QuestionFilter struct {
	Category           string
	IncludeConditional bool
}

func NewQuestionService(store QuestionStore, log *zap.Logger) *QuestionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuestionService{store: store, log: log}
}

// Catalog loads the full catalog in display order and validates parent links.
func (s *QuestionService) Catalog(ctx context.Context) ([]*models.Question, error) {
	qs, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	sortCatalog(qs)
	if err := ValidateCatalog(qs); err != nil {
		s.log.Error("invalid question catalog", zap.Error(err))
		return nil, fmt.Errorf("question catalog: %w", err)
	}
	s.log.Debug("question catalog loaded",
		zap.Int("base", countBaseQuestions(qs)),
		zap.Int("conditional", len(qs)-countBaseQuestions(qs)),
	)
	return qs, nil
}

func (s *QuestionService) List(ctx context.Context, f QuestionFilter) ([]*models.Question, error) {
	qs, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Question, 0, len(qs))
	for _, q := range qs {
		if q.IsConditional && !f.IncludeConditional {
			continue
		}
		if f.Category != "" && !strings.EqualFold(q.Category, f.Category) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *QuestionService) Conditional(ctx context.Context, answers []Answer) (*ConditionalResult, error) {
	if answers == nil {
		return nil, NewInvalidError("answers must be an array")
	}
	qs, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	conditional := make([]*models.Question, 0)
	for _, q := range qs {
		if q.IsConditional {
			conditional = append(conditional, q)
		}
	}
	res := ResolveConditional(conditional, answers)
	return &res, nil
}

func sortCatalog(qs []*models.Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].OrderNumber != qs[j].OrderNumber {
			return qs[i].OrderNumber < qs[j].OrderNumber
		}
		return qs[i].ID < qs[j].ID
	})
}

func countBaseQuestions(qs []*models.Question) int {
	n := 0
	for _, q := range qs {
		if !q.IsConditional {
			n++
		}
	}
	return n
}
