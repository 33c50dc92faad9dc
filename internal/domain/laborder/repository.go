package laborder

import (
	"context"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/sample"
)

// OrderDetail bundles an order with its item and sample collection for
// the read side.
type OrderDetail struct {
	Order      *LabOrder
	Item       *Item
	Collection *sample.Collection
}

type Repository interface {
	// CreateWithCollection persists one order, its single item, and its
	// pending sample collection as one atomic unit. A lab order must
	// never exist without its collection row.
	CreateWithCollection(ctx context.Context, o *LabOrder, item *Item, c *sample.Collection) error

	GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*OrderDetail, error)
	List(ctx context.Context, q *ListQuery) (*PagedOrders, error)

	// HasActiveForTest reports whether a non-cancelled order already
	// exists for this prescription/test pair (fan-out idempotency check).
	HasActiveForTest(ctx context.Context, prescriptionID, testID uuid.UUID) (bool, error)

	// UpdateStatus writes the new status and, when cascade is set,
	// completes the order's sample collection in the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, cascade bool) error

	UpdatePayment(ctx context.Context, id uuid.UUID, p PaymentUpdate) error
}

// PaymentUpdate carries the payment fields a billing write may touch.
// Method and Discount are written only when set; clinical status is
// never part of a payment update.
type PaymentUpdate struct {
	Status     domain.PaymentStatus
	PaidAmount float64
	Method     string
	Discount   float64
}
