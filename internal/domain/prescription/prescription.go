package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Prescription is the clinical encounter record the order fan-out hangs
// off. It is created by the encounter workflow upstream; orderflow reads
// it, derives orders from it, and may soft-cancel it.
type Prescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PrescriptionID string `gorm:"column:prescription_id;type:varchar(30);uniqueIndex;not null"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	Date      time.Time `gorm:"column:date;not null;index"`
	Diagnosis string    `gorm:"column:diagnosis;type:text"`
	Symptoms  string    `gorm:"column:symptoms;type:text"`
	Notes     string    `gorm:"column:notes;type:text"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'active';index"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

func (p *Prescription) IsActive() bool {
	return p.Status == StatusActive
}

type ListQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
