package sample

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Collection) error
	GetByID(ctx context.Context, id uuid.UUID) (*Collection, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*Collection, error)
	Update(ctx context.Context, c *Collection) error
	List(ctx context.Context, q *ListQuery) (*PagedCollections, error)
}
