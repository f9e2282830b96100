package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/domain/repositories"
)

// CatalogRepository provides in-memory catalog storage
type CatalogRepository struct {
	mu      sync.RWMutex
	catalog *entities.Catalog
}

// NewCatalogRepository creates a new in-memory catalog repository
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// LoadCatalog replaces the stored catalog
func (r *CatalogRepository) LoadCatalog(catalog *entities.Catalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = catalog
	return nil
}

// GetCatalog returns the stored catalog
func (r *CatalogRepository) GetCatalog() (*entities.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.catalog == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}
	return r.catalog, nil
}
