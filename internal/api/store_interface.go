package api

import (
	"context"

	"github.com/soaringjerry/Clearlabel/internal/services"
)

// Store is the full persistence surface the router wires into services.
type Store interface {
	services.AuthStore
	services.ProductStore
	services.ResponseStore
	services.ReportStore
	Ping(ctx context.Context) error
}

var _ Store = (*MemoryStore)(nil)
