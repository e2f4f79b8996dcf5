package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/metrics"
	"github.com/soaringjerry/Clearlabel/internal/questionbank"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// QuestionCache stores model generated question sets.
type QuestionCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Gateway calls the AI microservice and degrades to deterministic results on
// any failure. Callers never see an upstream error.
type Gateway struct {
	cfg    GatewayConfig
	client HTTPClient
	cache  QuestionCache
	log    *zap.Logger
}

type PreviousAnswer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

type GenerateQuestionsRequest struct {
	ProductName     string           `json:"product_name"`
	Category        string           `json:"category"`
	PreviousAnswers []PreviousAnswer `json:"previous_answers"`
	// AuthToken is forwarded as a bearer credential for this call only.
	AuthToken string `json:"-"`
}

type GeneratedQuestion struct {
	ID       string `json:"id"`
	Text     string `json:"question_text"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

type GenerateQuestionsResult struct {
	Questions   []GeneratedQuestion `json:"questions"`
	AIGenerated bool                `json:"ai_generated"`
	Degraded    bool                `json:"degraded"`
}

type ScoreItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

type ScoreRequest struct {
	ProductName string      `json:"product_name"`
	Category    string      `json:"category"`
	Responses   []ScoreItem `json:"responses"`
	AuthToken   string      `json:"-"`
}

type ScoreResult struct {
	TransparencyScore int      `json:"transparency_score"`
	HealthScore       int      `json:"health_score"`
	EthicsScore       int      `json:"ethics_score"`
	Recommendations   []string `json:"recommendations"`
	AIAnalysis        string   `json:"ai_analysis,omitempty"`
	AIGenerated       bool     `json:"ai_generated"`
	Degraded          bool     `json:"degraded"`
}

func NewGateway(cfg GatewayConfig, client HTTPClient, cache QuestionCache, log *zap.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Gateway{cfg: cfg, client: client, cache: cache, log: log}
}

func (g *Gateway) GenerateQuestions(ctx context.Context, req GenerateQuestionsRequest) *GenerateQuestionsResult {
	const op = "generate_questions"
	key := questionCacheKey(req)
	if res, ok := g.cachedQuestions(ctx, key); ok {
		metrics.AIGatewayRequests.WithLabelValues(op, metrics.OutcomeCache).Inc()
		return res
	}
	res, err := g.fetchQuestions(ctx, req)
	if err != nil {
		g.log.Warn("ai question generation failed, using fallback",
			zap.String("category", req.Category), zap.Error(err))
		metrics.AIGatewayRequests.WithLabelValues(op, metrics.OutcomeFallback).Inc()
		return fallbackQuestions(req.Category)
	}
	metrics.AIGatewayRequests.WithLabelValues(op, metrics.OutcomeAI).Inc()
	if res.AIGenerated {
		g.storeQuestions(ctx, key, res)
	}
	return res
}

func (g *Gateway) CalculateScore(ctx context.Context, req ScoreRequest) *ScoreResult {
	const op = "calculate_score"
	res, err := g.fetchScore(ctx, req)
	if err != nil {
		g.log.Warn("ai scoring failed, using fallback",
			zap.String("product", req.ProductName), zap.Error(err))
		metrics.AIGatewayRequests.WithLabelValues(op, metrics.OutcomeFallback).Inc()
		return fallbackScore(req.Responses)
	}
	metrics.AIGatewayRequests.WithLabelValues(op, metrics.OutcomeAI).Inc()
	return res
}

type wireQuestion struct {
	ID           json.RawMessage `json:"id"`
	QuestionText string          `json:"question_text"`
	Question     string          `json:"question"`
	Type         string          `json:"type"`
	Category     string          `json:"category"`
}

func (g *Gateway) fetchQuestions(ctx context.Context, req GenerateQuestionsRequest) (*GenerateQuestionsResult, error) {
	if req.PreviousAnswers == nil {
		req.PreviousAnswers = []PreviousAnswer{}
	}
	body, err := g.post(ctx, "/generate-questions", req.AuthToken, req)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(questionsSchemaLoader, body); err != nil {
		return nil, err
	}
	var wire struct {
		Questions   []wireQuestion `json:"questions"`
		AIGenerated bool           `json:"ai_generated"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	res := &GenerateQuestionsResult{
		Questions:   make([]GeneratedQuestion, 0, len(wire.Questions)),
		AIGenerated: wire.AIGenerated,
	}
	for i, q := range wire.Questions {
		res.Questions = append(res.Questions, normalizeQuestion(i, q))
	}
	return res, nil
}

// normalizeQuestion folds the question_text/question variants and string or
// numeric ids into one shape.
func normalizeQuestion(i int, q wireQuestion) GeneratedQuestion {
	text := strings.TrimSpace(q.QuestionText)
	if text == "" {
		text = strings.TrimSpace(q.Question)
	}
	id := strings.Trim(strings.TrimSpace(string(q.ID)), `"`)
	if id == "" || id == "null" {
		id = "ai_" + strconv.Itoa(i+1)
	}
	typ := q.Type
	if typ == "" {
		typ = "text"
	}
	return GeneratedQuestion{ID: id, Text: text, Type: typ, Category: q.Category}
}

func (g *Gateway) fetchScore(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	if req.Responses == nil {
		req.Responses = []ScoreItem{}
	}
	body, err := g.post(ctx, "/transparency-score", req.AuthToken, req)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(scoreSchemaLoader, body); err != nil {
		return nil, err
	}
	var res ScoreResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode score: %w", err)
	}
	res.Degraded = false
	return &res, nil
}

func (g *Gateway) post(ctx context.Context, path, token string, payload any) ([]byte, error) {
	if g.cfg.BaseURL == "" {
		return nil, fmt.Errorf("ai service url not configured")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	reqHTTP, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(pb))
	if err != nil {
		return nil, err
	}
	reqHTTP.Header.Set("Content-Type", "application/json")
	if token != "" {
		reqHTTP.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := g.client.Do(reqHTTP)
	if err != nil {
		return nil, fmt.Errorf("ai service request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ai service status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func (g *Gateway) cachedQuestions(ctx context.Context, key string) (*GenerateQuestionsResult, bool) {
	if g.cache == nil {
		return nil, false
	}
	b, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warn("question cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res GenerateQuestionsResult
	if err := json.Unmarshal(b, &res); err != nil {
		g.log.Warn("question cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &res, true
}

func (g *Gateway) storeQuestions(ctx context.Context, key string, res *GenerateQuestionsResult) {
	if g.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, b); err != nil {
		g.log.Warn("question cache write failed", zap.Error(err))
	}
}

func questionCacheKey(req GenerateQuestionsRequest) string {
	b, _ := json.Marshal(struct {
		ProductName     string           `json:"p"`
		Category        string           `json:"c"`
		PreviousAnswers []PreviousAnswer `json:"a"`
	}{strings.ToLower(strings.TrimSpace(req.ProductName)), strings.ToLower(strings.TrimSpace(req.Category)), req.PreviousAnswers})
	sum := sha256.Sum256(b)
	return "questions:" + hex.EncodeToString(sum[:])
}

func fallbackQuestions(category string) *GenerateQuestionsResult {
	bank := questionbank.All(category)
	out := make([]GeneratedQuestion, 0, len(bank))
	for _, q := range bank {
		out = append(out, GeneratedQuestion{ID: q.ID, Text: q.Text, Type: q.Type, Category: q.Category})
	}
	return &GenerateQuestionsResult{Questions: out, AIGenerated: false, Degraded: true}
}

// fallbackScore is answered/total as a percentage with engine recommendations.
func fallbackScore(responses []ScoreItem) *ScoreResult {
	answered := 0
	scored := make([]ScoredResponse, 0, len(responses))
	for _, r := range responses {
		if strings.TrimSpace(r.Answer) != "" {
			answered++
		}
		scored = append(scored, ScoredResponse{Answer: r.Answer, Category: r.Category})
	}
	score := 0
	if len(responses) > 0 {
		score = int(math.Round(float64(answered) / float64(len(responses)) * 100))
	}
	return &ScoreResult{
		TransparencyScore: score,
		Recommendations:   Recommendations(score, CategorySet(scored)),
		AIGenerated:       false,
		Degraded:          true,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
