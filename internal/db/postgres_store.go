package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/soaringjerry/Clearlabel/internal/config"
	"github.com/soaringjerry/Clearlabel/internal/models"
	"github.com/soaringjerry/Clearlabel/internal/services"
)

const uniqueViolation = "23505"

// Open creates the PostgreSQL pool described by cfg.
func Open(cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", services.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// validUUID guards uuid columns so malformed ids read as missing rows rather
// than driver errors.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, company_name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, string(u.PasswordHash), u.CompanyName, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapWriteErr(err))
	}
	return nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, company_name, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &hash, &u.CompanyName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

const productColumns = `id, user_id, product_name, category, description, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.ProductName, &p.Category, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProductStatus(status)
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.ProductName, p.Category, p.Description, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", mapWriteErr(err))
	}
	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if !validUUID(id) {
		return nil, nil
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProductsByUser(ctx context.Context, userID string) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	out := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	return nil
}

// DeleteProduct relies on ON DELETE CASCADE for responses and the report.
func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, question_text, question_type, category, options,
		is_conditional, parent_question_id, trigger_answer, order_number, is_required
		FROM questions ORDER BY order_number, id`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []*models.Question{}
	for rows.Next() {
		var q models.Question
		var qType string
		var options []byte
		var parent sql.NullInt64
		var trigger sql.NullString
		if err := rows.Scan(&q.ID, &q.QuestionText, &qType, &q.Category, &options,
			&q.IsConditional, &parent, &trigger, &q.OrderNumber, &q.IsRequired); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.QuestionType = models.QuestionType(qType)
		if len(options) > 0 && string(options) != "null" {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("question %d options: %w", q.ID, err)
			}
		}
		if parent.Valid {
			pid := parent.Int64
			q.ParentQuestionID = &pid
		}
		q.TriggerAnswer = trigger.String
		out = append(out, &q)
	}
	return out, rows.Err()
}

// ReplaceResponses deletes the product's answers, inserts rs and moves a
// draft product to completed in one transaction.
func (s *PostgresStore) ReplaceResponses(ctx context.Context, productID string, rs []models.ProductResponse, at time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace responses: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM product_responses WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	for _, r := range rs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO product_responses (product_id, question_id, answer, created_at) VALUES ($1, $2, $3, $4)`,
			productID, r.QuestionID, r.Answer, r.CreatedAt); err != nil {
			return fmt.Errorf("insert response %d: %w", r.QuestionID, mapWriteErr(err))
		}
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE products SET status = 'completed', updated_at = $2 WHERE id = $1 AND status = 'draft'`,
		productID, at); err != nil {
		return fmt.Errorf("complete product: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace responses: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, productID string) ([]models.ProductResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, question_id, answer, created_at FROM product_responses WHERE product_id = $1 ORDER BY id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	out := []models.ProductResponse{}
	for rows.Next() {
		var r models.ProductResponse
		if err := rows.Scan(&r.ProductID, &r.QuestionID, &r.Answer, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const reportColumns = `id, product_id, transparency_score, report_data, generated_at`

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	var data []byte
	if err := row.Scan(&r.ID, &r.ProductID, &r.TransparencyScore, &data, &r.GeneratedAt); err != nil {
		return nil, err
	}
	r.ReportData = json.RawMessage(data)
	return &r, nil
}

func (s *PostgresStore) UpsertReport(ctx context.Context, r *models.Report) (*models.Report, error) {
	out, err := scanReport(s.db.QueryRowContext(ctx,
		`INSERT INTO reports (`+reportColumns+`) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			transparency_score = EXCLUDED.transparency_score,
			report_data = EXCLUDED.report_data,
			generated_at = EXCLUDED.generated_at
		RETURNING `+reportColumns,
		r.ID, r.ProductID, r.TransparencyScore, []byte(r.ReportData), r.GeneratedAt))
	if err != nil {
		return nil, fmt.Errorf("upsert report: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetReport(ctx context.Context, productID string) (*models.Report, error) {
	if !validUUID(productID) {
		return nil, nil
	}
	r, err := scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE product_id = $1`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}
	return r, nil
}
