// Package questionbank holds the static follow-up questions served when no
// language model is available.
package questionbank

import "strings"

type Question struct {
	ID       string `json:"id"`
	Text     string `json:"question"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

var base = []Question{
	{ID: "ingredients", Text: "What are the main ingredients or components?", Type: "text", Category: "composition"},
	{ID: "allergens", Text: "Does this product contain any allergens?", Type: "text", Category: "health"},
	{ID: "origin", Text: "Where is this product manufactured?", Type: "text", Category: "origin"},
	{ID: "certifications", Text: "List any certifications (Organic, Fair Trade, etc.)", Type: "text", Category: "ethics"},
}

var byCategory = map[string][]Question{
	"food": {
		{ID: "nutrition", Text: "Provide key nutritional information", Type: "text", Category: "health"},
		{ID: "preservatives", Text: "List any preservatives or additives", Type: "text", Category: "health"},
		{ID: "expiry", Text: "What is the typical shelf life?", Type: "text", Category: "storage"},
	},
	"beverage": {
		{ID: "sugar", Text: "Sugar content per serving?", Type: "text", Category: "health"},
		{ID: "artificial", Text: "Any artificial ingredients?", Type: "text", Category: "health"},
	},
	"cosmetics": {
		{ID: "testing", Text: "Is this product cruelty-free?", Type: "text", Category: "ethics"},
		{ID: "chemicals", Text: "List potentially harmful chemicals (if any)", Type: "text", Category: "health"},
	},
	"supplements": {
		{ID: "clinical", Text: "Has this undergone clinical testing?", Type: "text", Category: "health"},
		{ID: "dosage", Text: "Recommended dosage and warnings?", Type: "text", Category: "health"},
	},
}

// Base returns the questions asked for every product.
func Base() []Question {
	return append([]Question(nil), base...)
}

// ForCategory returns the category specific questions, matched case-insensitively.
// Unknown categories yield none.
func ForCategory(category string) []Question {
	return append([]Question(nil), byCategory[strings.ToLower(strings.TrimSpace(category))]...)
}

// All is Base followed by ForCategory.
func All(category string) []Question {
	return append(Base(), ForCategory(category)...)
}
