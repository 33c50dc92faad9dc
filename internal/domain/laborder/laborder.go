package laborder

import (
	"time"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
)

// Lab order lifecycle:
//
//	ordered → sample_pending → sample_collected → completed
//
// completed is also reachable directly from the earlier states, for labs
// that report results without recording the sample steps. cancelled is
// reachable from any non-terminal state, but never while the order's
// payment status is paid (refunds go through billing first). Completing
// an order cascades to its sample collection.
type Status string

const (
	StatusOrdered         Status = "ordered"
	StatusSamplePending   Status = "sample_pending"
	StatusSampleCollected Status = "sample_collected"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOrdered, StatusSamplePending, StatusSampleCollected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// LabOrder is one order per requested test. TotalAmount equals the test
// price captured at creation; catalog price changes never alter it.
type LabOrder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OrderID string `gorm:"column:order_id;type:varchar(30);uniqueIndex;not null"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;index"`
	PatientID      uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID       uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
	TestID         uuid.UUID `gorm:"column:test_id;type:uuid;not null;index"`

	ClinicalNotes string `gorm:"column:clinical_notes;type:text"`
	Instructions  string `gorm:"column:instructions;type:text"`

	TotalAmount float64         `gorm:"column:total_amount;type:decimal(10,2);not null"`
	PaidAmount  float64         `gorm:"column:paid_amount;type:decimal(10,2);default:0"`
	Discount    float64         `gorm:"column:discount;type:decimal(10,2);default:0"`
	Priority    domain.Priority `gorm:"column:priority;type:varchar(20);not null;default:'routine'"`

	Status        Status               `gorm:"column:status;type:varchar(30);not null;default:'ordered';index"`
	PaymentStatus domain.PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string               `gorm:"column:payment_method;type:varchar(30)"`
}

func (LabOrder) TableName() string {
	return "clinical.lab_orders"
}

// Item is the denormalized snapshot of the ordered test. Exactly one
// exists per lab order; it is immutable after creation apart from status
// mirroring.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	TestID  uuid.UUID `gorm:"column:test_id;type:uuid;not null;index"`

	TestName string  `gorm:"column:test_name;type:varchar(255);not null"`
	TestCode string  `gorm:"column:test_code;type:varchar(50);not null"`
	Price    float64 `gorm:"column:price;type:decimal(10,2);not null"`

	ClinicalNotes string `gorm:"column:clinical_notes;type:text"`
	Instructions  string `gorm:"column:instructions;type:text"`

	Status Status `gorm:"column:status;type:varchar(30);not null;default:'ordered'"`
}

func (Item) TableName() string {
	return "clinical.lab_order_items"
}

type ListQuery struct {
	PrescriptionID *uuid.UUID
	PatientID      *uuid.UUID
	DoctorID       *uuid.UUID
	Status         *Status
	Page           int
	PageSize       int
}

type PagedOrders struct {
	Orders     []*LabOrder
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
