package services

import (
	"math"
	"strings"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAnswerPointsBoundaries(t *testing.T) {
	cases := []struct {
		length, want int
	}{
		{0, 0},
		{10, 0},
		{11, 1},
		{50, 1},
		{51, 2},
		{100, 2},
		{101, 3},
		{500, 3},
	}
	for _, c := range cases {
		if got := AnswerPoints(strings.Repeat("a", c.length)); got != c.want {
			t.Fatalf("AnswerPoints(len=%d)=%d, want %d", c.length, got, c.want)
		}
	}
}

func TestAnswerPointsCountsCharacters(t *testing.T) {
	// 11 characters, 33 bytes
	if got := AnswerPoints(strings.Repeat("茶", 11)); got != 1 {
		t.Fatalf("expected 1 point for 11 multibyte characters, got %d", got)
	}
}

func TestCompletenessZeroTotal(t *testing.T) {
	resp := []ScoredResponse{{Answer: "yes", Category: "health"}}
	if got := CompletenessScore(resp, 0); got != 0 {
		t.Fatalf("expected 0 completeness for empty catalog, got %v", got)
	}
	b := CalculateScore(resp, 0)
	if b.Completeness != 0 {
		t.Fatalf("breakdown completeness %v", b.Completeness)
	}
}

func TestCompletenessIgnoresBlankAnswers(t *testing.T) {
	resp := []ScoredResponse{{Answer: "a"}, {Answer: "   "}, {Answer: ""}, {Answer: "b"}}
	if got := CompletenessScore(resp, 4); !approx(got, 20) {
		t.Fatalf("expected 20, got %v", got)
	}
}

func TestQualityEmptyAndCap(t *testing.T) {
	if got := QualityScore(nil); got != 0 {
		t.Fatalf("expected 0 quality for no responses, got %v", got)
	}
	long := strings.Repeat("x", 101)
	resp := []ScoredResponse{{Answer: long}, {Answer: long}}
	if got := QualityScore(resp); got != QualityCap {
		t.Fatalf("expected cap %v, got %v", QualityCap, got)
	}
	mixed := []ScoredResponse{{Answer: long}, {Answer: "short"}}
	if got := QualityScore(mixed); !approx(got, 15) {
		t.Fatalf("expected 15, got %v", got)
	}
}

func TestCoverageFiveCategories(t *testing.T) {
	var resp []ScoredResponse
	for _, c := range []string{"composition", "health", "origin", "ethics", "packaging", "health"} {
		resp = append(resp, ScoredResponse{Answer: "x", Category: c})
	}
	if got := CoverageScore(resp); !approx(got, 15.0) {
		t.Fatalf("expected coverage 15.0, got %v", got)
	}
}

func TestScoreClampedForContrivedInput(t *testing.T) {
	long := strings.Repeat("x", 150)
	var resp []ScoredResponse
	for i := 0; i < 40; i++ {
		resp = append(resp, ScoredResponse{Answer: long, Category: string(rune('a' + i%26))})
	}
	b := CalculateScore(resp, 5)
	if b.Score != 100 {
		t.Fatalf("expected clamp to 100, got %d (%+v)", b.Score, b)
	}
	if got := CalculateScore(nil, 21).Score; got != 0 {
		t.Fatalf("expected 0 for no responses, got %d", got)
	}
}

func TestScoreGreenTeaComposition(t *testing.T) {
	answer := strings.Repeat("g", 60)
	var resp []ScoredResponse
	for i := 0; i < 7; i++ {
		resp = append(resp, ScoredResponse{Answer: answer, Category: "composition"})
	}
	b := CalculateScore(resp, 21)
	if !approx(b.Completeness, 7.0/21.0*40) {
		t.Fatalf("completeness %v", b.Completeness)
	}
	if !approx(b.Quality, 20) {
		t.Fatalf("quality %v", b.Quality)
	}
	if !approx(b.Coverage, 3) {
		t.Fatalf("coverage %v", b.Coverage)
	}
	// 13.33 + 20 + 3 = 36.33
	if b.Score != 36 {
		t.Fatalf("expected 36, got %d", b.Score)
	}
}

func TestRecommendationsBands(t *testing.T) {
	all := map[string]struct{}{"certifications": {}, "sustainability": {}}
	cases := []struct {
		score int
		first string
	}{
		{0, recommendationBands[0].messages[0]},
		{39, recommendationBands[0].messages[0]},
		{40, recommendationBands[1].messages[0]},
		{69, recommendationBands[1].messages[0]},
		{70, recommendationBands[2].messages[0]},
		{89, recommendationBands[2].messages[0]},
		{90, recommendationBands[3].messages[0]},
		{100, recommendationBands[3].messages[0]},
	}
	for _, c := range cases {
		got := Recommendations(c.score, all)
		if len(got) != 2 {
			t.Fatalf("score %d: expected 2 messages, got %v", c.score, got)
		}
		if got[0] != c.first {
			t.Fatalf("score %d: got %q, want %q", c.score, got[0], c.first)
		}
	}
}

func TestRecommendationsMissingCategories(t *testing.T) {
	got := Recommendations(50, map[string]struct{}{"health": {}})
	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %v", got)
	}
	if got[2] != recommendCertifications || got[3] != recommendSustainability {
		t.Fatalf("unexpected extras: %v", got[2:])
	}
	got = Recommendations(50, map[string]struct{}{"certifications": {}})
	if len(got) != 3 || got[2] != recommendSustainability {
		t.Fatalf("expected only sustainability extra, got %v", got)
	}
}
