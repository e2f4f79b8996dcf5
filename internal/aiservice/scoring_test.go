package aiservice

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreEmptyResponses(t *testing.T) {
	res := Score(nil)
	assert.Equal(t, 0, res.TransparencyScore)
	assert.Equal(t, 0, res.HealthScore)
	assert.Equal(t, 0, res.EthicsScore)
	assert.Equal(t, []string{emptyRecommendation}, res.Recommendations)
	assert.Equal(t, emptyAnalysis, res.AIAnalysis)
}

func TestScoreWeighting(t *testing.T) {
	var items []ResponseItem
	require.NoError(t, json.Unmarshal([]byte(`[
		{"question": "Ingredients?", "answer": "`+strings.Repeat("x", 101)+`", "category": "composition"},
		{"question": "Allergens?", "answer": "Yes", "category": "health"},
		{"question": "Cruelty free?", "answer": "  ", "category": "ethics"},
		{"question": "Sugar per serving?", "answer": 42}
	]`), &items))

	res := Score(items)
	assert.Equal(t, 100, res.HealthScore)
	assert.Equal(t, 0, res.EthicsScore)
	// 75*0.5 + 25*0.3 + (100+0)/2*0.2
	assert.Equal(t, 55, res.TransparencyScore)
	assert.Equal(t, "Moderate transparency - needs improvement", res.Recommendations[0])
	assert.Len(t, res.Recommendations, 5)
	assert.Equal(t, standardAnalysis, res.AIAnalysis)
}

func TestScoreDefaultsMissingCategories(t *testing.T) {
	res := Score([]ResponseItem{{Question: "Origin?", Answer: "Japan"}})
	assert.Equal(t, defaultCategoryScore, res.HealthScore)
	assert.Equal(t, defaultCategoryScore, res.EthicsScore)
	assert.Equal(t, 60, res.TransparencyScore)
	assert.Equal(t, "Good transparency foundation", res.Recommendations[0])
}

func TestQualityPointsThresholds(t *testing.T) {
	cases := map[int]int{10: 0, 11: 1, 50: 1, 51: 2, 100: 2, 101: 3}
	for n, want := range cases {
		assert.Equal(t, want, qualityPoints(strings.Repeat("é", n)), n)
	}
}

func TestBasicRecommendationBands(t *testing.T) {
	assert.Len(t, BasicRecommendations(80), 3)
	assert.Len(t, BasicRecommendations(79), 4)
	assert.Len(t, BasicRecommendations(40), 5)
	assert.Len(t, BasicRecommendations(39), 6)
	assert.Equal(t, "Low transparency - immediate action needed", BasicRecommendations(0)[0])
}

func TestTextDecodesScalars(t *testing.T) {
	var v struct {
		A, B, C, D Text
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A":"yes","B":3.5,"C":true,"D":null}`), &v))
	assert.Equal(t, Text("yes"), v.A)
	assert.Equal(t, Text("3.5"), v.B)
	assert.Equal(t, Text("true"), v.C)
	assert.Equal(t, Text(""), v.D)
}
