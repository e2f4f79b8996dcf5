package services

import (
	"testing"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

func ptr(v int64) *int64 { return &v }

func allergenCatalog() []*models.Question {
	return []*models.Question{
		{ID: 2, QuestionText: "Does this product contain allergens?", QuestionType: models.QuestionBoolean, Category: "health"},
		{ID: 22, QuestionText: "List all allergens", QuestionType: models.QuestionTextarea, Category: "health",
			IsConditional: true, ParentQuestionID: ptr(2), TriggerAnswer: "yes"},
		{ID: 23, QuestionText: "Who certified the product as organic?", QuestionType: models.QuestionText, Category: "certifications",
			IsConditional: true, ParentQuestionID: ptr(9), TriggerAnswer: "Yes"},
	}
}

func TestResolveConditionalAllergenTrigger(t *testing.T) {
	catalog := allergenCatalog()
	for _, ans := range []string{"yes", "Yes ", "YES", "  yEs\t"} {
		res := ResolveConditional(catalog, []Answer{{QuestionID: 2, Answer: ans}})
		if res.Count != 1 || res.Questions[0].ID != 22 {
			t.Fatalf("answer %q: expected allergen list unlocked, got %+v", ans, res)
		}
	}
	for _, ans := range []string{"no", "", "yes please"} {
		res := ResolveConditional(catalog, []Answer{{QuestionID: 2, Answer: ans}})
		if res.Count != 0 {
			t.Fatalf("answer %q: expected nothing unlocked, got %+v", ans, res)
		}
	}
}

func TestResolveConditionalParentUnanswered(t *testing.T) {
	res := ResolveConditional(allergenCatalog(), nil)
	if res.Count != 0 || res.Questions == nil {
		t.Fatalf("expected empty non-nil result, got %+v", res)
	}
}

func TestResolveConditionalKeepsCatalogOrderAndSingleHop(t *testing.T) {
	catalog := append(allergenCatalog(),
		&models.Question{ID: 24, IsConditional: true, ParentQuestionID: ptr(22), TriggerAnswer: "peanuts"})
	res := ResolveConditional(catalog, []Answer{{QuestionID: 9, Answer: "yes"}, {QuestionID: 2, Answer: "yes"}})
	if res.Count != 2 || res.Questions[0].ID != 22 || res.Questions[1].ID != 23 {
		t.Fatalf("unexpected result %+v", res)
	}
	// 24 only unlocks after its parent is answered in a later call
	res = ResolveConditional(catalog, []Answer{{QuestionID: 2, Answer: "yes"}, {QuestionID: 22, Answer: "Peanuts"}})
	if res.Count != 2 || res.Questions[1].ID != 24 {
		t.Fatalf("expected second hop unlocked, got %+v", res)
	}
}

func TestValidateCatalog(t *testing.T) {
	base := []*models.Question{{ID: 2}, {ID: 9}}
	ok := append(append([]*models.Question{}, base...), allergenCatalog()[1:]...)
	if err := ValidateCatalog(ok); err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}

	cases := map[string][]*models.Question{
		"missing parent": {{ID: 1}, {ID: 2, IsConditional: true, ParentQuestionID: ptr(99)}},
		"self":           {{ID: 1, IsConditional: true, ParentQuestionID: ptr(1)}},
		"no parent":      {{ID: 1, IsConditional: true}},
		"duplicate":      {{ID: 1}, {ID: 1}},
		"cycle": {
			{ID: 1, IsConditional: true, ParentQuestionID: ptr(3)},
			{ID: 2, IsConditional: true, ParentQuestionID: ptr(1)},
			{ID: 3, IsConditional: true, ParentQuestionID: ptr(2)},
		},
	}
	for name, qs := range cases {
		if err := ValidateCatalog(qs); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
