package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opdemr/orderflow/internal/domain/catalog"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetLabTest(ctx context.Context, id uuid.UUID) (*catalog.LabTest, error) {
	var t catalog.LabTest
	err := r.db.WithContext(ctx).First(&t, "id = ? AND is_active", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrLabTestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *CatalogRepository) ListLabTests(ctx context.Context, q *catalog.ListLabTestsQuery) ([]*catalog.LabTest, int64, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&catalog.LabTest{}).Where("is_active")
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Subcategory != "" {
		tx = tx.Where("subcategory = ?", q.Subcategory)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("test_name ILIKE ? OR test_code ILIKE ?", like, like)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []*catalog.LabTest
	err := tx.Order("test_name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *CatalogRepository) LabTestCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&catalog.LabTest{}).
		Where("is_active").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CatalogRepository) GetPharmacyItem(ctx context.Context, id uuid.UUID) (*catalog.PharmacyItem, error) {
	var item catalog.PharmacyItem
	err := r.db.WithContext(ctx).First(&item, "id = ? AND is_active", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrPharmacyItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CatalogRepository) ListPharmacyItems(ctx context.Context, q *catalog.ListPharmacyItemsQuery) ([]*catalog.PharmacyItem, int64, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&catalog.PharmacyItem{}).Where("is_active")
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("name ILIKE ? OR generic_name ILIKE ? OR sku ILIKE ?", like, like, like)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []*catalog.PharmacyItem
	err := tx.Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}
