package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, q *ListQuery) (*PagedPrescriptions, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
