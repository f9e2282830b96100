package repositories

import "github.com/vsinha/scplan/pkg/domain/entities"

// CatalogRepository provides access to the entity catalog of a planning run
type CatalogRepository interface {
	GetCatalog() (*entities.Catalog, error)
	LoadCatalog(catalog *entities.Catalog) error
}
