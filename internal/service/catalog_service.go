package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain/catalog"
)

// CatalogService exposes read-only lookups over the test and medication
// catalogs. Catalog maintenance happens in a separate admin system.
type CatalogService struct {
	repo catalog.Repository
}

func NewCatalogService(repo catalog.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetLabTest(ctx context.Context, id uuid.UUID) (*catalog.LabTest, error) {
	return s.repo.GetLabTest(ctx, id)
}

func (s *CatalogService) ListLabTests(ctx context.Context, q *catalog.ListLabTestsQuery) ([]*catalog.LabTest, int64, error) {
	return s.repo.ListLabTests(ctx, q)
}

func (s *CatalogService) LabTestCategories(ctx context.Context) ([]string, error) {
	return s.repo.LabTestCategories(ctx)
}

func (s *CatalogService) GetPharmacyItem(ctx context.Context, id uuid.UUID) (*catalog.PharmacyItem, error) {
	return s.repo.GetPharmacyItem(ctx, id)
}

func (s *CatalogService) ListPharmacyItems(ctx context.Context, q *catalog.ListPharmacyItemsQuery) ([]*catalog.PharmacyItem, int64, error) {
	return s.repo.ListPharmacyItems(ctx, q)
}
