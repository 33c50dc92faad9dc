package sample

import (
	"time"

	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
)

// Collection lifecycle:
//
//	pending → collected → completed
//
// "collected" is only legal when the collector's identity and the sample
// type are recorded in the same operation. "completed" is normally driven
// by the owning lab order's completion cascade.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCollected Status = "collected"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCollected, StatusCompleted:
		return true
	}
	return false
}

// Collection tracks physical specimen acquisition for one lab order.
// Exactly one exists per lab order, seeded in pending state at order time.
type Collection struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	CollectionID string `gorm:"column:collection_id;type:varchar(30);uniqueIndex;not null"`

	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	CollectedAt    *time.Time `gorm:"column:collected_at"`
	CollectorName  string     `gorm:"column:collector_name;type:varchar(255)"`
	CollectorID    string     `gorm:"column:collector_id;type:varchar(50)"`
	SampleType     string     `gorm:"column:sample_type;type:varchar(100)"`
	SampleQuantity string     `gorm:"column:sample_quantity;type:varchar(50)"`
	Notes          string     `gorm:"column:notes;type:text"`

	Status   Status          `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	Priority domain.Priority `gorm:"column:priority;type:varchar(20);not null;default:'routine'"`
}

func (Collection) TableName() string {
	return "clinical.sample_collections"
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusCollected, StatusCompleted},
	StatusCollected: {StatusCompleted},
	StatusCompleted: {},
}

// Transition validates a status change without touching storage.
// Moving to collected requires the collector identity and sample type as
// a precondition, not a default.
func Transition(current, target Status, collectorName, sampleType string) error {
	if !target.IsValid() {
		return ErrInvalidStatus
	}
	for _, s := range transitions[current] {
		if s == target {
			if target == StatusCollected && (collectorName == "" || sampleType == "") {
				return ErrCollectorRequired
			}
			return nil
		}
	}
	return ErrInvalidTransition
}

type UpdateCommand struct {
	Status         *Status
	CollectorName  *string
	CollectorID    *string
	SampleType     *string
	SampleQuantity *string
	Notes          *string
}

type ListQuery struct {
	PatientID *uuid.UUID
	Status    *Status
	Page      int
	PageSize  int
}

type PagedCollections struct {
	Collections []*Collection
	TotalCount  int64
	Page        int
	PageSize    int
	TotalPages  int
}
