package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
)

type PharmacyOrderRepository struct {
	db *gorm.DB
}

func NewPharmacyOrderRepository(db *gorm.DB) *PharmacyOrderRepository {
	return &PharmacyOrderRepository{db: db}
}

func (r *PharmacyOrderRepository) CreateWithItems(ctx context.Context, o *pharmacyorder.PharmacyOrder, items []*pharmacyorder.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = o.ID
		}
		return tx.Create(items).Error
	})
}

func (r *PharmacyOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*pharmacyorder.PharmacyOrder, error) {
	var o pharmacyorder.PharmacyOrder
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pharmacyorder.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PharmacyOrderRepository) GetDetail(ctx context.Context, id uuid.UUID) (*pharmacyorder.OrderDetail, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.loadDetail(ctx, order)
}

func (r *PharmacyOrderRepository) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*pharmacyorder.OrderDetail, error) {
	var o pharmacyorder.PharmacyOrder
	err := r.db.WithContext(ctx).First(&o, "prescription_id = ?", prescriptionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pharmacyorder.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadDetail(ctx, &o)
}

func (r *PharmacyOrderRepository) List(ctx context.Context, q *pharmacyorder.ListQuery) (*pharmacyorder.PagedOrders, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&pharmacyorder.PharmacyOrder{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*pharmacyorder.PharmacyOrder
	err := tx.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &pharmacyorder.PagedOrders{
		Orders:     rows,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}

// UpdateStatus mirrors the order status onto every line in the same
// transaction.
func (r *PharmacyOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status pharmacyorder.Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&pharmacyorder.PharmacyOrder{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pharmacyorder.ErrOrderNotFound
		}
		return tx.Model(&pharmacyorder.Item{}).Where("order_id = ?", id).Update("status", status).Error
	})
}

func (r *PharmacyOrderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, p pharmacyorder.PaymentUpdate) error {
	updates := map[string]interface{}{
		"payment_status": p.Status,
		"paid_amount":    p.PaidAmount,
	}
	if p.Method != "" {
		updates["payment_method"] = p.Method
	}
	if p.Discount != 0 {
		updates["discount"] = p.Discount
	}
	res := r.db.WithContext(ctx).
		Model(&pharmacyorder.PharmacyOrder{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pharmacyorder.ErrOrderNotFound
	}
	return nil
}

func (r *PharmacyOrderRepository) loadDetail(ctx context.Context, o *pharmacyorder.PharmacyOrder) (*pharmacyorder.OrderDetail, error) {
	var items []*pharmacyorder.Item
	err := r.db.WithContext(ctx).
		Where("order_id = ?", o.ID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &pharmacyorder.OrderDetail{Order: o, Items: items}, nil
}
