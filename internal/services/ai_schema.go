package services

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Payload shapes accepted from the AI microservice. A question must carry its
// text under either question_text or question.
const questionsSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "ai_generated": {"type": "boolean"},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "anyOf": [
          {"required": ["question_text"], "properties": {"question_text": {"type": "string", "minLength": 1}}},
          {"required": ["question"], "properties": {"question": {"type": "string", "minLength": 1}}}
        ],
        "properties": {
          "id": {"type": ["string", "integer"]},
          "type": {"type": "string"},
          "category": {"type": "string"}
        }
      }
    }
  }
}`

const scoreSchema = `{
  "type": "object",
  "required": ["transparency_score", "recommendations"],
  "properties": {
    "transparency_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "health_score": {"type": "integer"},
    "ethics_score": {"type": "integer"},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "ai_analysis": {"type": "string"},
    "ai_generated": {"type": "boolean"}
  }
}`

var (
	questionsSchemaLoader = gojsonschema.NewStringLoader(questionsSchema)
	scoreSchemaLoader     = gojsonschema.NewStringLoader(scoreSchema)
)

func validatePayload(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("payload validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
