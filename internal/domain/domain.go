package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleLabTech      Role = "lab_technician"
	RolePharmacist   Role = "pharmacist"
	RoleBillingClerk Role = "billing_clerk"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleLabTech, RolePharmacist, RoleBillingClerk:
		return true
	}
	return false
}

// OrderKind distinguishes the two order families a prescription fans out
// into. It selects id prefixes and state-machine rules.
type OrderKind string

const (
	KindLab      OrderKind = "lab"
	KindPharmacy OrderKind = "pharmacy"
)

func (k OrderKind) IsValid() bool {
	return k == KindLab || k == KindPharmacy
}

type Priority string

const (
	PriorityRoutine Priority = "routine"
	PriorityUrgent  Priority = "urgent"
)

func (p Priority) IsValid() bool {
	return p == PriorityRoutine || p == PriorityUrgent
}

// PaymentStatus is shared by lab orders, pharmacy orders, and bills.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	StatusCode int    `gorm:"column:status_code"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

// Claims are the verified identity attached to each request. The auth
// service issues the tokens; orderflow only validates them.
type Claims struct {
	UserID uuid.UUID `json:"sub"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}
