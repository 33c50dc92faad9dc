package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/sample"
)

type LabOrderRepository struct {
	db *gorm.DB
}

func NewLabOrderRepository(db *gorm.DB) *LabOrderRepository {
	return &LabOrderRepository{db: db}
}

// CreateWithCollection writes the order, its item snapshot, and its
// pending sample collection in one transaction. The item and collection
// take their order id from the freshly created row.
func (r *LabOrderRepository) CreateWithCollection(ctx context.Context, o *laborder.LabOrder, item *laborder.Item, c *sample.Collection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		item.OrderID = o.ID
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		c.OrderID = o.ID
		return tx.Create(c).Error
	})
}

func (r *LabOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*laborder.LabOrder, error) {
	var o laborder.LabOrder
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, laborder.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *LabOrderRepository) GetDetail(ctx context.Context, id uuid.UUID) (*laborder.OrderDetail, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.loadDetail(ctx, order)
}

func (r *LabOrderRepository) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*laborder.OrderDetail, error) {
	var orders []*laborder.LabOrder
	err := r.db.WithContext(ctx).
		Where("prescription_id = ?", prescriptionID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	details := make([]*laborder.OrderDetail, 0, len(orders))
	for _, o := range orders {
		d, err := r.loadDetail(ctx, o)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

func (r *LabOrderRepository) List(ctx context.Context, q *laborder.ListQuery) (*laborder.PagedOrders, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&laborder.LabOrder{})
	if q.PrescriptionID != nil {
		tx = tx.Where("prescription_id = ?", *q.PrescriptionID)
	}
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

	var rows []*laborder.LabOrder
	err := tx.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &laborder.PagedOrders{
		Orders:     rows,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}

func (r *LabOrderRepository) HasActiveForTest(ctx context.Context, prescriptionID, testID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&laborder.LabOrder{}).
		Where("prescription_id = ? AND test_id = ? AND status <> ?", prescriptionID, testID, laborder.StatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus writes the order status, mirrors it onto the item row,
// and when cascade is set completes the order's sample collection, all
// in one transaction.
func (r *LabOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status laborder.Status, cascade bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&laborder.LabOrder{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return laborder.ErrOrderNotFound
		}

		if err := tx.Model(&laborder.Item{}).Where("order_id = ?", id).Update("status", status).Error; err != nil {
			return err
		}

		if cascade {
			return tx.Model(&sample.Collection{}).
				Where("order_id = ? AND status <> ?", id, sample.StatusCompleted).
				Update("status", sample.StatusCompleted).Error
		}
		return nil
	})
}

func (r *LabOrderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, p laborder.PaymentUpdate) error {
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
		Model(&laborder.LabOrder{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return laborder.ErrOrderNotFound
	}
	return nil
}

func (r *LabOrderRepository) loadDetail(ctx context.Context, o *laborder.LabOrder) (*laborder.OrderDetail, error) {
	d := &laborder.OrderDetail{Order: o}

	var item laborder.Item
	err := r.db.WithContext(ctx).First(&item, "order_id = ?", o.ID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		d.Item = &item
	}

	var c sample.Collection
	err = r.db.WithContext(ctx).First(&c, "order_id = ?", o.ID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		d.Collection = &c
	}

	return d, nil
}
