package models

import (
	"encoding/json"
	"time"
)

// ProductStatus is the lifecycle state of a product.
type ProductStatus string

const (
	StatusDraft     ProductStatus = "draft"
	StatusCompleted ProductStatus = "completed"
	StatusArchived  ProductStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// QuestionType is the input kind rendered for a question.
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionBoolean        QuestionType = "boolean"
	QuestionNumber         QuestionType = "number"
	QuestionTextarea       QuestionType = "textarea"
)

// User owns products. Password hashing and token issuance live in the auth service.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CompanyName  string
	CreatedAt    time.Time
}

// Product is the subject of a transparency questionnaire.
type Product struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	ProductName string        `json:"product_name"`
	Category    string        `json:"category"`
	Description string        `json:"description,omitempty"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Question is a catalog entry. A conditional question is shown only when its
// parent was answered with TriggerAnswer.
type Question struct {
	ID               int64        `json:"id"`
	QuestionText     string       `json:"question_text"`
	QuestionType     QuestionType `json:"question_type"`
	Category         string       `json:"category"`
	Options          []string     `json:"options"`
	IsConditional    bool         `json:"is_conditional"`
	ParentQuestionID *int64       `json:"parent_question_id,omitempty"`
	TriggerAnswer    string       `json:"trigger_answer,omitempty"`
	OrderNumber      int          `json:"order_number"`
	IsRequired       bool         `json:"is_required"`
}

// ProductResponse is the single answer recorded for a (product, question) pair.
type ProductResponse struct {
	ProductID  string    `json:"product_id"`
	QuestionID int64     `json:"question_id"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// Report is the one stored report per product. ReportData is opaque JSON.
type Report struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	TransparencyScore int             `json:"transparency_score"`
	ReportData        json.RawMessage `json:"report_data"`
	GeneratedAt       time.Time       `json:"generated_at"`
}
