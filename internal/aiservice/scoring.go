package aiservice

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Text decodes any JSON scalar into its string form. null becomes "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(b)
	return nil
}

type ResponseItem struct {
	Question string `json:"question,omitempty"`
	Answer   Text   `json:"answer"`
	Category string `json:"category,omitempty"`
}

func (r ResponseItem) answered() bool {
	return strings.TrimSpace(string(r.Answer)) != ""
}

type ScoreResult struct {
	TransparencyScore int      `json:"transparency_score"`
	HealthScore       int      `json:"health_score"`
	EthicsScore       int      `json:"ethics_score"`
	Recommendations   []string `json:"recommendations"`
	AIAnalysis        string   `json:"ai_analysis"`
	AIGenerated       bool     `json:"ai_generated"`
}

const (
	defaultCategoryScore = 50
	emptyRecommendation  = "Add product information to get a transparency score"
	emptyAnalysis        = "No data available for analysis"
	standardAnalysis     = "Standard analysis completed"
)

// Score applies the service's weighting: half completeness, 30% answer
// quality and 20% the mean of the health and ethics category scores.
func Score(responses []ResponseItem) ScoreResult {
	total := len(responses)
	if total == 0 {
		return ScoreResult{
			Recommendations: []string{emptyRecommendation},
			AIAnalysis:      emptyAnalysis,
		}
	}
	answered, points := 0, 0
	for _, r := range responses {
		if r.answered() {
			answered++
		}
		points += qualityPoints(string(r.Answer))
	}
	completeness := float64(answered) / float64(total) * 100
	quality := min(100, float64(points)/float64(total*3)*100)
	health := categoryScore(responses, "health")
	ethics := categoryScore(responses, "ethics")
	score := int(completeness*0.5 + quality*0.3 + float64(health+ethics)/2*0.2)
	return ScoreResult{
		TransparencyScore: score,
		HealthScore:       health,
		EthicsScore:       ethics,
		Recommendations:   BasicRecommendations(score),
		AIAnalysis:        standardAnalysis,
	}
}

func qualityPoints(answer string) int {
	switch n := utf8.RuneCountInString(answer); {
	case n > 100:
		return 3
	case n > 50:
		return 2
	case n > 10:
		return 1
	}
	return 0
}

// categoryScore is the answered share of responses tagged with category, or
// 50 when none are.
func categoryScore(responses []ResponseItem, category string) int {
	n, answered := 0, 0
	for _, r := range responses {
		if r.Category != category {
			continue
		}
		n++
		if r.answered() {
			answered++
		}
	}
	if n == 0 {
		return defaultCategoryScore
	}
	return int(float64(answered) / float64(n) * 100)
}

func BasicRecommendations(score int) []string {
	switch {
	case score >= 80:
		return []string{
			"Excellent transparency! Share this with customers",
			"Consider publishing detailed supply chain information",
			"Add third-party verification for even more credibility",
		}
	case score >= 60:
		return []string{
			"Good transparency foundation",
			"Add more detailed ingredient sourcing information",
			"Include quality control and testing procedures",
			"Consider adding sustainability metrics",
		}
	case score >= 40:
		return []string{
			"Moderate transparency - needs improvement",
			"Provide complete ingredient lists with sources",
			"Add manufacturing process details",
			"Include all relevant certifications",
			"Answer all health and safety questions thoroughly",
		}
	default:
		return []string{
			"Low transparency - immediate action needed",
			"Complete all required product information",
			"Provide detailed answers (50+ characters each)",
			"Add certifications and testing results",
			"Include sourcing and manufacturing details",
			"Address all health and safety concerns",
		}
	}
}
