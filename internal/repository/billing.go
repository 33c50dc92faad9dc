package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
)

type BillingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

func (r *BillingRepository) CreateWithItems(ctx context.Context, b *billing.Bill, items []*billing.BillItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.BillID = b.ID
		}
		return tx.Create(items).Error
	})
}

func (r *BillingRepository) GetByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var b billing.Bill
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BillingRepository) GetDetail(ctx context.Context, id uuid.UUID) (*billing.BillDetail, error) {
	bill, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var items []*billing.BillItem
	err = r.db.WithContext(ctx).
		Where("bill_id = ?", bill.ID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &billing.BillDetail{Bill: bill, Items: items}, nil
}

func (r *BillingRepository) List(ctx context.Context, q *billing.ListQuery) (*billing.PagedBills, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&billing.Bill{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.PaymentStatus != nil {
		tx = tx.Where("payment_status = ?", *q.PaymentStatus)
	}
	if q.DateFrom != nil {
		tx = tx.Where("bill_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("bill_date <= ?", *q.DateTo)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*billing.Bill
	err := tx.Order("bill_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return &billing.PagedBills{
		Bills:      rows,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}

func (r *BillingRepository) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*billing.Bill, error) {
	var bills []*billing.Bill
	err := r.db.WithContext(ctx).
		Where("prescription_id = ?", prescriptionID).
		Order("bill_date DESC").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *BillingRepository) HasPaidByPrescription(ctx context.Context, prescriptionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&billing.Bill{}).
		Where("prescription_id = ? AND payment_status = ?", prescriptionID, domain.PaymentPaid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BillingRepository) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, method, notes string) error {
	updates := map[string]interface{}{"payment_status": status}
	if method != "" {
		updates["payment_method"] = method
	}
	if notes != "" {
		updates["notes"] = notes
	}

	res := r.db.WithContext(ctx).
		Model(&billing.Bill{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return billing.ErrBillNotFound
	}
	return nil
}
