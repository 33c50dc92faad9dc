package billing

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
)

// Bill is a ledger entry. Once its payment status is paid the record is
// finalized: neither the bill, its items, nor payments on orders linked
// through its prescription may be changed. The storage layer does not
// enforce this; every write path must call CanMutate first.
type Bill struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	BillID string `gorm:"column:bill_id;type:varchar(30);uniqueIndex;not null"`

	PatientID      uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	PrescriptionID *uuid.UUID `gorm:"column:prescription_id;type:uuid;index"`

	BillDate time.Time `gorm:"column:bill_date;not null;index"`

	Subtotal float64 `gorm:"column:subtotal;type:decimal(10,2);not null"`
	Discount float64 `gorm:"column:discount;type:decimal(10,2);default:0"`
	Tax      float64 `gorm:"column:tax;type:decimal(10,2);default:0"`
	Total    float64 `gorm:"column:total;type:decimal(10,2);not null"`

	PaymentStatus domain.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string               `gorm:"column:payment_method;type:varchar(30)"`
	Notes         string               `gorm:"column:notes;type:text"`
}

func (Bill) TableName() string {
	return "billing.bills"
}

func (b *Bill) IsFinalized() bool {
	return b.PaymentStatus == domain.PaymentPaid
}

func (b *Bill) CanMutate() error {
	if b.IsFinalized() {
		return ErrBillAlreadyFinalized
	}
	return nil
}

// ValidateTotals checks the caller's arithmetic: total must equal
// subtotal - discount + tax within a cent.
func (b *Bill) ValidateTotals() error {
	expected := b.Subtotal - b.Discount + b.Tax
	if math.Abs(expected-b.Total) > 0.01 {
		return ErrTotalMismatch
	}
	return nil
}

type BillItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	BillID uuid.UUID `gorm:"column:bill_id;type:uuid;not null;index"`

	ServiceName string  `gorm:"column:service_name;type:varchar(255);not null"`
	ServiceType string  `gorm:"column:service_type;type:varchar(50)"`
	Quantity    int     `gorm:"column:quantity;not null;default:1"`
	UnitPrice   float64 `gorm:"column:unit_price;type:decimal(10,2);not null"`
	TotalPrice  float64 `gorm:"column:total_price;type:decimal(10,2);not null"`
}

func (BillItem) TableName() string {
	return "billing.bill_items"
}

type ListQuery struct {
	PatientID     *uuid.UUID
	PaymentStatus *domain.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

type PagedBills struct {
	Bills      []*Bill
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
