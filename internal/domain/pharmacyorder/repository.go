package pharmacyorder

import (
	"context"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
)

type OrderDetail struct {
	Order *PharmacyOrder
	Items []*Item
}

type Repository interface {
	// CreateWithItems persists the order and all its lines as one atomic
	// unit.
	CreateWithItems(ctx context.Context, o *PharmacyOrder, items []*Item) error

	GetByID(ctx context.Context, id uuid.UUID) (*PharmacyOrder, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, q *ListQuery) (*PagedOrders, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdatePayment(ctx context.Context, id uuid.UUID, p PaymentUpdate) error
}

// PaymentUpdate mirrors the lab order payment write: status and paid
// amount always, method and discount when set.
type PaymentUpdate struct {
	Status     domain.PaymentStatus
	PaidAmount float64
	Method     string
	Discount   float64
}
