package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/models"
)

type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type ProductStore interface {
	ProductGetter
	CreateProduct(ctx context.Context, p *models.Product) error
	ListProductsByUser(ctx context.Context, userID string) ([]*models.Product, error)
	UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus, at time.Time) error
	DeleteProduct(ctx context.Context, id string) error
}

type ProductService struct {
	store ProductStore
	now   func() time.Time
	idGen func() string
}

type CreateProductInput struct {
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func NewProductService(store ProductStore) *ProductService {
	return &ProductService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: newID,
	}
}

func (s *ProductService) Create(ctx context.Context, userID string, in CreateProductInput) (*models.Product, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	name := strings.TrimSpace(in.ProductName)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" {
		return nil, NewInvalidError("product_name and category required")
	}
	now := s.now()
	p := &models.Product{
		ID:          s.idGen(),
		UserID:      userID,
		ProductName: name,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, userID string) ([]*models.Product, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	ps, err := s.store.ListProductsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if ps == nil {
		ps = []*models.Product{}
	}
	return ps, nil
}

func (s *ProductService) Get(ctx context.Context, userID, id string) (*models.Product, error) {
	return ownedProduct(ctx, s.store, userID, id)
}

// UpdateStatus moves a product between lifecycle states. Archived is terminal.
func (s *ProductService) UpdateStatus(ctx context.Context, userID, id, status string) (*models.Product, error) {
	next := models.ProductStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, NewInvalidError("status must be one of draft, completed, archived")
	}
	p, err := ownedProduct(ctx, s.store, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == next {
		return p, nil
	}
	if p.Status == models.StatusArchived {
		return nil, NewConflictError("product is archived")
	}
	now := s.now()
	if err := s.store.UpdateProductStatus(ctx, id, next, now); err != nil {
		return nil, fmt.Errorf("update product status: %w", err)
	}
	p.Status = next
	p.UpdatedAt = now
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, userID, id string) error {
	if _, err := ownedProduct(ctx, s.store, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// ownedProduct hides products of other users behind not_found.
func ownedProduct(ctx context.Context, store ProductGetter, userID, id string) (*models.Product, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidError("product id required")
	}
	p, err := store.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil || p.UserID != userID {
		return nil, NewNotFoundError("product not found")
	}
	return p, nil
}
