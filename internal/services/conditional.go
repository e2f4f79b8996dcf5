package services

import (
	"fmt"
	"strings"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

// Answer is a (question, answer) pair supplied by a client.
type Answer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

type ConditionalResult struct {
	Questions []*models.Question `json:"questions"`
	Count     int                `json:"count"`
}

// ResolveConditional returns the conditional questions whose parent has been
// answered with the trigger value, compared case-insensitively after trimming.
// It resolves a single level; callers re-invoke once unlocked questions are
// answered.
func ResolveConditional(conditional []*models.Question, answers []Answer) ConditionalResult {
	given := make(map[int64]string, len(answers))
	for _, a := range answers {
		given[a.QuestionID] = a.Answer
	}
	res := ConditionalResult{Questions: []*models.Question{}}
	for _, q := range conditional {
		if q == nil || !q.IsConditional || q.ParentQuestionID == nil {
			continue
		}
		ans, ok := given[*q.ParentQuestionID]
		if !ok {
			continue
		}
		if normalizeAnswer(ans) == normalizeAnswer(q.TriggerAnswer) {
			res.Questions = append(res.Questions, q)
		}
	}
	res.Count = len(res.Questions)
	return res
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateCatalog rejects duplicate ids and conditional questions that lack a
// parent, reference a missing parent or themselves, or sit on a parent cycle.
func ValidateCatalog(questions []*models.Question) error {
	byID := make(map[int64]*models.Question, len(questions))
	for _, q := range questions {
		if _, dup := byID[q.ID]; dup {
			return fmt.Errorf("question %d: duplicate id", q.ID)
		}
		byID[q.ID] = q
	}
	for _, q := range questions {
		if !q.IsConditional {
			continue
		}
		if q.ParentQuestionID == nil {
			return fmt.Errorf("question %d: conditional without parent", q.ID)
		}
		if *q.ParentQuestionID == q.ID {
			return fmt.Errorf("question %d: references itself", q.ID)
		}
		seen := map[int64]bool{q.ID: true}
		cur := q
		for cur.IsConditional && cur.ParentQuestionID != nil {
			parent, ok := byID[*cur.ParentQuestionID]
			if !ok {
				return fmt.Errorf("question %d: parent %d not found", cur.ID, *cur.ParentQuestionID)
			}
			if seen[parent.ID] {
				return fmt.Errorf("question %d: parent cycle through %d", q.ID, parent.ID)
			}
			seen[parent.ID] = true
			cur = parent
		}
	}
	return nil
}
