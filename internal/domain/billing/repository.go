package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
)

type BillDetail struct {
	Bill  *Bill
	Items []*BillItem
}

type Repository interface {
	// CreateWithItems persists the bill and its line items atomically.
	CreateWithItems(ctx context.Context, b *Bill, items []*BillItem) error

	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*BillDetail, error)
	List(ctx context.Context, q *ListQuery) (*PagedBills, error)

	// GetByPrescription returns all bills referencing the prescription.
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*Bill, error)

	// HasPaidByPrescription reports whether any paid bill references the
	// prescription (guards prescription cancellation and order payments).
	HasPaidByPrescription(ctx context.Context, prescriptionID uuid.UUID) (bool, error)

	UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, method, notes string) error
}
