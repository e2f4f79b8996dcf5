// Package aiservice is the question generation and scoring microservice the
// backend's AI gateway calls. A language model is optional; without one the
// service answers from the static question bank and the fixed scoring rules.
package aiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/metrics"
	"github.com/soaringjerry/Clearlabel/internal/questionbank"
)

const (
	maxPreviousAnswers = 3
	maxAnalysedAnswers = 10
	maxAnswerChars     = 200
)

type QuestionsRequest struct {
	ProductName     string           `json:"product_name"`
	Category        string           `json:"category"`
	PreviousAnswers []map[string]any `json:"previous_answers"`
}

type QuestionsResult struct {
	Questions   []questionbank.Question `json:"questions"`
	AIGenerated bool                    `json:"ai_generated"`
}

type ScoreRequest struct {
	ProductName string         `json:"product_name"`
	Category    string         `json:"category"`
	Responses   []ResponseItem `json:"responses"`
}

type Service struct {
	llm Completer
	log *zap.Logger
}

// NewService accepts a nil llm.
func NewService(llm Completer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{llm: llm, log: log}
}

func (s *Service) LLMEnabled() bool { return s.llm != nil }

// GenerateQuestions returns the static questions for the category followed by
// model suggested follow-ups when a model is configured and answers usefully.
func (s *Service) GenerateQuestions(ctx context.Context, req QuestionsRequest) QuestionsResult {
	out := QuestionsResult{Questions: questionbank.All(req.Category)}
	if s.llm == nil {
		return out
	}
	extra, err := s.followUps(ctx, req)
	if err != nil {
		s.log.Warn("follow-up generation failed", zap.String("category", req.Category), zap.Error(err))
		metrics.LLMRequests.WithLabelValues("questions", metrics.OutcomeError).Inc()
		return out
	}
	metrics.LLMRequests.WithLabelValues("questions", metrics.OutcomeOK).Inc()
	out.Questions = append(out.Questions, extra...)
	out.AIGenerated = true
	return out
}

func (s *Service) followUps(ctx context.Context, req QuestionsRequest) ([]questionbank.Question, error) {
	header := fmt.Sprintf("Product: %s, Category: %s", req.ProductName, req.Category)
	if len(req.PreviousAnswers) > 0 {
		prev := req.PreviousAnswers
		if len(prev) > maxPreviousAnswers {
			prev = prev[:maxPreviousAnswers]
		}
		b, err := json.Marshal(prev)
		if err != nil {
			return nil, err
		}
		header += "\nPrevious answers: " + string(b)
	}
	prompt := header + `

Suggest 2 or 3 follow-up questions that help assess health impact and safety,
ethical sourcing and sustainability, and traceability of this product.
Respond with a JSON array only, each element shaped like
{"id": "short_id", "question": "question text", "type": "text", "category": "health"}.
Keep every question specific to ` + req.Category + ` products.`

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var raw []map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse follow-up questions: %w", err)
	}
	out := make([]questionbank.Question, 0, len(raw))
	for i, m := range raw {
		q := questionbank.Question{
			ID:       stringField(m, "id"),
			Text:     stringField(m, "question"),
			Type:     stringField(m, "type"),
			Category: stringField(m, "category"),
		}
		if q.Text == "" {
			q.Text = stringField(m, "question_text")
		}
		if q.Text == "" {
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("ai_%d", i+1)
		}
		if q.Type == "" {
			q.Type = "text"
		}
		out = append(out, q)
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

// Score computes the rule based score. With a model configured the analysis
// text and recommendations come from the model and AIGenerated is set; a
// failed call keeps the rule based recommendations with a short placeholder
// analysis.
func (s *Service) Score(ctx context.Context, req ScoreRequest) ScoreResult {
	res := Score(req.Responses)
	if len(req.Responses) == 0 || s.llm == nil {
		return res
	}
	analysis, recs, err := s.analyse(ctx, req, res.TransparencyScore)
	if err != nil {
		s.log.Warn("score analysis failed", zap.String("product", req.ProductName), zap.Error(err))
		metrics.LLMRequests.WithLabelValues("analysis", metrics.OutcomeError).Inc()
		res.AIAnalysis = fmt.Sprintf("Product shows %d%% transparency. Further analysis pending.", res.TransparencyScore)
		return res
	}
	metrics.LLMRequests.WithLabelValues("analysis", metrics.OutcomeOK).Inc()
	res.AIAnalysis = analysis
	res.AIGenerated = true
	if len(recs) > 0 {
		res.Recommendations = recs
	}
	return res
}

func (s *Service) analyse(ctx context.Context, req ScoreRequest, score int) (string, []string, error) {
	type summary struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	items := req.Responses
	if len(items) > maxAnalysedAnswers {
		items = items[:maxAnalysedAnswers]
	}
	sums := make([]summary, 0, len(items))
	for _, r := range items {
		q := r.Question
		if q == "" {
			q = "Unknown"
		}
		a := []rune(string(r.Answer))
		if len(a) > maxAnswerChars {
			a = a[:maxAnswerChars]
		}
		sums = append(sums, summary{Question: q, Answer: string(a)})
	}
	b, err := json.MarshalIndent(sums, "", "  ")
	if err != nil {
		return "", nil, err
	}
	prompt := fmt.Sprintf(`Product: %s
Category: %s
Current transparency score: %d/100

Key responses:
%s

Write a two or three sentence analysis of the product's transparency, health
implications and ethical practices, then three to five concrete
recommendations. Respond with JSON only:
{"analysis": "...", "recommendations": ["...", "..."]}`, req.ProductName, req.Category, score, b)

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", nil, err
	}
	var out struct {
		Analysis        string   `json:"analysis"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return "", nil, fmt.Errorf("parse analysis: %w", err)
	}
	if strings.TrimSpace(out.Analysis) == "" {
		return "", nil, fmt.Errorf("analysis missing from model reply")
	}
	return out.Analysis, out.Recommendations, nil
}
