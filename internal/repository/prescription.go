package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opdemr/orderflow/internal/domain/prescription"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, prescription.ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrescriptionRepository) List(ctx context.Context, q *prescription.ListQuery) (*prescription.PagedPrescriptions, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&prescription.Prescription{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		tx = tx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("date <= ?", *q.DateTo)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*prescription.Prescription
	err := tx.Order("date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &prescription.PagedPrescriptions{
		Prescriptions: rows,
		TotalCount:    count,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages(count, pageSize),
	}, nil
}

func (r *PrescriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status prescription.Status) error {
	res := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}
