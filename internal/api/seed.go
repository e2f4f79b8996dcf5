package api

import "github.com/soaringjerry/Clearlabel/internal/models"

func int64Ptr(v int64) *int64 { return &v }

// SeedQuestions mirrors the rows inserted by the 0002 migration so the memory
// store serves the same catalog as PostgreSQL.
func SeedQuestions() []*models.Question {
	q := func(id int64, text string, typ models.QuestionType, category string, required bool, options ...string) *models.Question {
		return &models.Question{
			ID:           id,
			QuestionText: text,
			QuestionType: typ,
			Category:     category,
			Options:      options,
			OrderNumber:  int(id),
			IsRequired:   required,
		}
	}
	out := []*models.Question{
		q(1, "What are the main ingredients or components of this product?", models.QuestionTextarea, "composition", true),
		q(2, "List the approximate percentage of each major ingredient.", models.QuestionTextarea, "composition", false),
		q(3, "Does the product contain genetically modified ingredients?", models.QuestionMultipleChoice, "composition", false, "Yes", "No", "Unknown"),
		q(4, "Does this product contain any allergens?", models.QuestionBoolean, "health", true),
		q(5, "List any artificial additives, preservatives or colourings.", models.QuestionTextarea, "health", false),
		q(6, "Provide the key nutritional information per serving.", models.QuestionTextarea, "nutrition", false),
		q(7, "Where is this product manufactured?", models.QuestionText, "origin", true),
		q(8, "Where are the main raw materials sourced from?", models.QuestionTextarea, "origin", false),
		q(9, "Describe the main manufacturing process.", models.QuestionTextarea, "manufacturing", false),
		q(10, "Which quality control or safety tests does the product undergo?", models.QuestionTextarea, "manufacturing", false),
		q(11, "Is this product certified organic?", models.QuestionBoolean, "certifications", false),
		q(12, "List any other certifications such as Fair Trade or Non-GMO.", models.QuestionTextarea, "certifications", false),
		q(13, "What percentage of production energy comes from renewable sources?", models.QuestionNumber, "sustainability", false),
		q(14, "Describe the steps taken to reduce the environmental impact of production.", models.QuestionTextarea, "sustainability", false),
		q(15, "What materials is the packaging made of?", models.QuestionText, "packaging", false),
		q(16, "Is the packaging recyclable or compostable?", models.QuestionMultipleChoice, "packaging", false, "Recyclable", "Compostable", "Both", "Neither"),
		q(17, "Is the product or any of its ingredients tested on animals?", models.QuestionBoolean, "ethics", false),
		q(18, "How do you ensure fair labour practices in your supply chain?", models.QuestionTextarea, "ethics", false),
		q(19, "How should the product be stored?", models.QuestionText, "storage", false),
		q(20, "What is the typical shelf life?", models.QuestionText, "storage", false),
		q(21, "How should the product and its packaging be disposed of?", models.QuestionText, "sustainability", false),
	}
	allergens := q(22, "Which allergens does the product contain?", models.QuestionTextarea, "health", true)
	allergens.IsConditional, allergens.ParentQuestionID, allergens.TriggerAnswer, allergens.OrderNumber = true, int64Ptr(4), "yes", 4
	certifier := q(23, "Which body certified the product as organic?", models.QuestionText, "certifications", false)
	certifier.IsConditional, certifier.ParentQuestionID, certifier.TriggerAnswer, certifier.OrderNumber = true, int64Ptr(11), "yes", 11
	return append(out, allergens, certifier)
}
