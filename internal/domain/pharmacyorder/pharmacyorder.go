package pharmacyorder

import (
	"time"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
)

// Pharmacy order lifecycle:
//
//	ordered → dispensed
//	ordered → cancelled
//
// No cascade; dispensing is a single hand-over event.
type Status string

const (
	StatusOrdered   Status = "ordered"
	StatusDispensed Status = "dispensed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOrdered, StatusDispensed, StatusCancelled:
		return true
	}
	return false
}

// PharmacyOrder aggregates all medication lines of a prescription. At
// most one exists per prescription; TotalAmount is the sum of line
// totals at creation time.
type PharmacyOrder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OrderID string `gorm:"column:order_id;type:varchar(30);uniqueIndex;not null"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;uniqueIndex"`
	PatientID      uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID       uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	TotalAmount float64         `gorm:"column:total_amount;type:decimal(10,2);not null"`
	PaidAmount  float64         `gorm:"column:paid_amount;type:decimal(10,2);default:0"`
	Discount    float64         `gorm:"column:discount;type:decimal(10,2);default:0"`
	Priority    domain.Priority `gorm:"column:priority;type:varchar(20);not null;default:'routine'"`
	Notes       string          `gorm:"column:notes;type:text"`

	Status        Status               `gorm:"column:status;type:varchar(30);not null;default:'ordered';index"`
	PaymentStatus domain.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string               `gorm:"column:payment_method;type:varchar(30)"`
}

func (PharmacyOrder) TableName() string {
	return "clinical.pharmacy_orders"
}

// Item is one medication line: a snapshot of the catalog item plus the
// quantity and computed line total.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID  uuid.UUID `gorm:"column:item_id;type:uuid;not null;index"`

	ItemName string `gorm:"column:item_name;type:varchar(255);not null"`
	ItemCode string `gorm:"column:item_code;type:varchar(50)"`

	Quantity   int     `gorm:"column:quantity;not null"`
	UnitPrice  float64 `gorm:"column:unit_price;type:decimal(10,2);not null"`
	TotalPrice float64 `gorm:"column:total_price;type:decimal(10,2);not null"`

	Instructions string `gorm:"column:instructions;type:text"`
	Status       Status `gorm:"column:status;type:varchar(30);not null;default:'ordered'"`
}

func (Item) TableName() string {
	return "clinical.pharmacy_order_items"
}

var transitions = map[Status][]Status{
	StatusOrdered:   {StatusDispensed, StatusCancelled},
	StatusDispensed: {},
	StatusCancelled: {},
}

// Transition validates a pharmacy order status change. Cancelling a paid
// order is blocked the same way as for lab orders.
func Transition(current, target Status, payment domain.PaymentStatus) error {
	if !target.IsValid() {
		return ErrInvalidStatus
	}
	for _, s := range transitions[current] {
		if s == target {
			if target == StatusCancelled && payment == domain.PaymentPaid {
				return ErrCancelPaidOrder
			}
			return nil
		}
	}
	return ErrInvalidTransition
}

type ListQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	Page      int
	PageSize  int
}

type PagedOrders struct {
	Orders     []*PharmacyOrder
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
