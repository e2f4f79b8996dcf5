package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

type ReportStore interface {
	ProductGetter
	QuestionStore
	ListResponses(ctx context.Context, productID string) ([]models.ProductResponse, error)
	// UpsertReport updates the product's report in place when one exists and
	// returns the stored row.
	UpsertReport(ctx context.Context, r *models.Report) (*models.Report, error)
	GetReport(ctx context.Context, productID string) (*models.Report, error)
}

// ScoreAnalyzer is the AI side of report enrichment.
type ScoreAnalyzer interface {
	CalculateScore(ctx context.Context, req ScoreRequest) *ScoreResult
}

type ReportEntry struct {
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
	Type         string `json:"type"`
}

type ProductSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

type ReportInsights struct {
	Completeness      int            `json:"completeness"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
	Recommendations   []string       `json:"recommendations"`
	AIAnalysis        string         `json:"ai_analysis,omitempty"`
	AIRecommendations []string       `json:"ai_recommendations,omitempty"`
}

// ReportPayload is stored verbatim as the report's JSON document.
type ReportPayload struct {
	Product           ProductSummary           `json:"product"`
	Responses         map[string][]ReportEntry `json:"responses"`
	TransparencyScore int                      `json:"transparency_score"`
	ScoreBreakdown    ScoreBreakdown           `json:"score_breakdown"`
	GeneratedAt       time.Time                `json:"generated_at"`
	Insights          ReportInsights           `json:"insights"`
}

// BuildReport groups responses by question category and scores them. Responses
// to questions missing from the catalog are ignored.
func BuildReport(product *models.Product, catalog []*models.Question, responses []models.ProductResponse, now time.Time) *ReportPayload {
	byID := make(map[int64]*models.Question, len(catalog))
	baseTotal := 0
	categoryTotal := map[string]int{}
	for _, q := range catalog {
		byID[q.ID] = q
		if !q.IsConditional {
			baseTotal++
			categoryTotal[q.Category]++
		}
	}

	grouped := map[string][]ReportEntry{}
	categoryAnswered := map[string]int{}
	scored := make([]ScoredResponse, 0, len(responses))
	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			continue
		}
		grouped[q.Category] = append(grouped[q.Category], ReportEntry{
			QuestionText: q.QuestionText,
			Answer:       r.Answer,
			Type:         string(q.QuestionType),
		})
		if q.IsConditional {
			categoryTotal[q.Category]++
		}
		if strings.TrimSpace(r.Answer) != "" {
			categoryAnswered[q.Category]++
		}
		scored = append(scored, ScoredResponse{Answer: r.Answer, Category: q.Category})
	}

	breakdown := make(map[string]int, len(grouped))
	for cat := range grouped {
		breakdown[cat] = percent(categoryAnswered[cat], categoryTotal[cat])
	}
	score := CalculateScore(scored, baseTotal)

	return &ReportPayload{
		Product: ProductSummary{
			ID:          product.ID,
			Name:        product.ProductName,
			Category:    product.Category,
			Description: product.Description,
			Status:      string(product.Status),
		},
		Responses:         grouped,
		TransparencyScore: score.Score,
		ScoreBreakdown:    score,
		GeneratedAt:       now,
		Insights: ReportInsights{
			Completeness:      percent(len(scored), baseTotal),
			CategoryBreakdown: breakdown,
			Recommendations:   Recommendations(score.Score, CategorySet(scored)),
		},
	}
}

// percent is round(part/total*100) capped at 100; 0 when total is 0.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	v := int(math.Round(float64(part) / float64(total) * 100))
	if v > 100 {
		return 100
	}
	return v
}

type ReportService struct {
	store    ReportStore
	analyzer ScoreAnalyzer
	enrich   bool
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
}

// NewReportService builds a report service. analyzer may be nil; it is only
// consulted when enrich is set.
func NewReportService(store ReportStore, analyzer ScoreAnalyzer, enrich bool, log *zap.Logger) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{
		store:    store,
		analyzer: analyzer,
		enrich:   enrich,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    newID,
	}
}

// Generate assembles, scores and upserts the product's report.
func (s *ReportService) Generate(ctx context.Context, userID, productID, authToken string) (*models.Report, error) {
	p, err := ownedProduct(ctx, s.store, userID, productID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	responses, err := s.store.ListResponses(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	now := s.now()
	payload := BuildReport(p, catalog, responses, now)
	if s.enrich && s.analyzer != nil {
		s.attachAnalysis(ctx, p, catalog, responses, authToken, payload)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	stored, err := s.store.UpsertReport(ctx, &models.Report{
		ID:                s.idGen(),
		ProductID:         productID,
		TransparencyScore: payload.TransparencyScore,
		ReportData:        data,
		GeneratedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert report: %w", err)
	}
	s.log.Info("report generated",
		zap.String("product_id", productID),
		zap.Int("score", payload.TransparencyScore))
	return stored, nil
}

func (s *ReportService) attachAnalysis(ctx context.Context, p *models.Product, catalog []*models.Question, responses []models.ProductResponse, token string, payload *ReportPayload) {
	byID := make(map[int64]*models.Question, len(catalog))
	for _, q := range catalog {
		byID[q.ID] = q
	}
	items := make([]ScoreItem, 0, len(responses))
	for _, r := range responses {
		q, ok := byID[r.QuestionID]
		if !ok {
			continue
		}
		items = append(items, ScoreItem{Question: q.QuestionText, Answer: r.Answer, Category: q.Category})
	}
	res := s.analyzer.CalculateScore(ctx, ScoreRequest{
		ProductName: p.ProductName,
		Category:    p.Category,
		Responses:   items,
		AuthToken:   token,
	})
	if res == nil || !res.AIGenerated {
		return
	}
	payload.Insights.AIAnalysis = res.AIAnalysis
	payload.Insights.AIRecommendations = res.Recommendations
}

func (s *ReportService) Get(ctx context.Context, userID, productID string) (*models.Report, error) {
	if _, err := ownedProduct(ctx, s.store, userID, productID); err != nil {
		return nil, err
	}
	r, err := s.store.GetReport(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if r == nil {
		return nil, NewNotFoundError("report not found")
	}
	return r, nil
}
