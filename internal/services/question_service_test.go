package services

import (
	"context"
	"errors"
	"testing"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

type errQuestionStore struct{ err error }

func (s errQuestionStore) ListQuestions(context.Context) ([]*models.Question, error) {
	return nil, s.err
}

func TestQuestionListFilters(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	// reverse so the service has to restore display order
	for i, j := 0, len(catalog)-1; i < j; i, j = i+1, j-1 {
		catalog[i], catalog[j] = catalog[j], catalog[i]
	}
	svc := NewQuestionService(newStubStore(catalog), nil)

	all, err := svc.List(ctx, QuestionFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 21 || all[0].ID != 1 || all[20].ID != 21 {
		t.Fatalf("expected 21 base questions in order, got %d", len(all))
	}
	health, _ := svc.List(ctx, QuestionFilter{Category: "HEALTH", IncludeConditional: true})
	if len(health) != 4 || health[1].ID != 22 {
		t.Fatalf("expected health questions with follow-up after its parent, got %+v", health)
	}
}

func TestQuestionConditional(t *testing.T) {
	ctx := context.Background()
	svc := NewQuestionService(newStubStore(seedCatalog()), nil)

	res, err := svc.Conditional(ctx, []Answer{{QuestionID: 8, Answer: "Yes "}})
	if err != nil {
		t.Fatalf("Conditional returned error: %v", err)
	}
	if res.Count != 1 || res.Questions[0].ID != 22 {
		t.Fatalf("expected allergen list unlocked, got %+v", res)
	}
	res, _ = svc.Conditional(ctx, []Answer{{QuestionID: 8, Answer: "no"}})
	if res.Count != 0 {
		t.Fatalf("expected nothing unlocked, got %+v", res)
	}
	if _, err := svc.Conditional(ctx, nil); !isCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for nil answers, got %v", err)
	}
}

func TestQuestionCatalogErrors(t *testing.T) {
	ctx := context.Background()
	cyclic := []*models.Question{
		{ID: 1, IsConditional: true, ParentQuestionID: ptr(2)},
		{ID: 2, IsConditional: true, ParentQuestionID: ptr(1)},
	}
	svc := NewQuestionService(newStubStore(cyclic), nil)
	_, err := svc.List(ctx, QuestionFilter{})
	if err == nil {
		t.Fatalf("expected cyclic catalog to be refused")
	}
	if _, ok := AsServiceError(err); ok {
		t.Fatalf("catalog corruption should surface as an internal error, got %v", err)
	}

	boom := errors.New("db down")
	svc = NewQuestionService(errQuestionStore{err: boom}, nil)
	if _, err := svc.Conditional(ctx, []Answer{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
