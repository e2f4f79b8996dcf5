package services

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Scoring weights. Stored reports depend on these values, so they are not
// read from configuration.
const (
	CompletenessWeight = 40.0
	QualityCap         = 30.0
	QualityScale       = 10.0
	CoverageWeight     = 30.0
	CoverageDivisor    = 10.0

	ShortAnswerLength  = 10
	MediumAnswerLength = 50
	LongAnswerLength   = 100
)

// ScoredResponse is the minimal view of an answer the engine needs.
type ScoredResponse struct {
	Answer   string
	Category string
}

type ScoreBreakdown struct {
	Completeness float64 `json:"completeness"`
	Quality      float64 `json:"quality"`
	Coverage     float64 `json:"coverage"`
	Score        int     `json:"score"`
}

// CalculateScore computes the 0-100 transparency score for a response set
// against the number of non-conditional questions in the catalog.
func CalculateScore(responses []ScoredResponse, totalQuestions int) ScoreBreakdown {
	b := ScoreBreakdown{
		Completeness: CompletenessScore(responses, totalQuestions),
		Quality:      QualityScore(responses),
		Coverage:     CoverageScore(responses),
	}
	b.Score = clampScore(math.Round(b.Completeness + b.Quality + b.Coverage))
	return b
}

func CompletenessScore(responses []ScoredResponse, totalQuestions int) float64 {
	if totalQuestions <= 0 {
		return 0
	}
	answered := 0
	for _, r := range responses {
		if strings.TrimSpace(r.Answer) != "" {
			answered++
		}
	}
	return float64(answered) / float64(totalQuestions) * CompletenessWeight
}

func QualityScore(responses []ScoredResponse) float64 {
	if len(responses) == 0 {
		return 0
	}
	points := 0
	for _, r := range responses {
		points += AnswerPoints(r.Answer)
	}
	return math.Min(QualityCap, float64(points)/float64(len(responses))*QualityScale)
}

func CoverageScore(responses []ScoredResponse) float64 {
	return float64(len(distinctCategories(responses))) / CoverageDivisor * CoverageWeight
}

// AnswerPoints awards 3/2/1/0 points by answer length in characters. The
// thresholds are exclusive.
func AnswerPoints(answer string) int {
	n := utf8.RuneCountInString(answer)
	switch {
	case n > LongAnswerLength:
		return 3
	case n > MediumAnswerLength:
		return 2
	case n > ShortAnswerLength:
		return 1
	}
	return 0
}

func distinctCategories(responses []ScoredResponse) map[string]struct{} {
	set := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		if r.Category == "" {
			continue
		}
		set[r.Category] = struct{}{}
	}
	return set
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

var recommendationBands = []struct {
	below    int
	messages []string
}{
	{40, []string{
		"Answer the remaining questions to give consumers a complete picture of your product.",
		"Replace short answers with specific details about ingredients and sourcing.",
	}},
	{70, []string{
		"Good start. Expand your answers with sourcing and manufacturing details.",
		"Cover more categories to give a fuller view of your product.",
	}},
	{90, []string{
		"Strong transparency. Back up your answers with test results or supplier names.",
		"Review your shorter answers and add specifics where you can.",
	}},
	{math.MaxInt, []string{
		"Excellent transparency. Share this report with your customers.",
		"Keep your answers current as your product or supply chain changes.",
	}},
}

const (
	recommendCertifications = "Add certification details such as organic or fair trade labels to build credibility."
	recommendSustainability = "Describe your sustainability practices for packaging and sourcing."
)

// Recommendations returns the fixed messages for the score band, followed by
// prompts for the certifications and sustainability categories when absent.
func Recommendations(score int, categories map[string]struct{}) []string {
	var out []string
	for _, band := range recommendationBands {
		if score < band.below {
			out = append(out, band.messages...)
			break
		}
	}
	if _, ok := categories["certifications"]; !ok {
		out = append(out, recommendCertifications)
	}
	if _, ok := categories["sustainability"]; !ok {
		out = append(out, recommendSustainability)
	}
	return out
}

// CategorySet collects the distinct categories of a response set.
func CategorySet(responses []ScoredResponse) map[string]struct{} {
	return distinctCategories(responses)
}
