package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is read-only: no component of the order workflow changes
// catalog prices.
type Repository interface {
	GetLabTest(ctx context.Context, id uuid.UUID) (*LabTest, error)
	ListLabTests(ctx context.Context, q *ListLabTestsQuery) ([]*LabTest, int64, error)
	LabTestCategories(ctx context.Context) ([]string, error)

	GetPharmacyItem(ctx context.Context, id uuid.UUID) (*PharmacyItem, error)
	ListPharmacyItems(ctx context.Context, q *ListPharmacyItemsQuery) ([]*PharmacyItem, int64, error)
}
