package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opdemr/orderflow/internal/domain/sample"
)

type SampleRepository struct {
	db *gorm.DB
}

func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

func (r *SampleRepository) Create(ctx context.Context, c *sample.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *SampleRepository) GetByID(ctx context.Context, id uuid.UUID) (*sample.Collection, error) {
	var c sample.Collection
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sample.ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SampleRepository) GetByOrder(ctx context.Context, orderID uuid.UUID) (*sample.Collection, error) {
	var c sample.Collection
	err := r.db.WithContext(ctx).First(&c, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sample.ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SampleRepository) Update(ctx context.Context, c *sample.Collection) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *SampleRepository) List(ctx context.Context, q *sample.ListQuery) (*sample.PagedCollections, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&sample.Collection{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*sample.Collection
	err := tx.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &sample.PagedCollections{
		Collections: rows,
		TotalCount:  count,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages(count, pageSize),
	}, nil
}
