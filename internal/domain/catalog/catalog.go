// Package catalog holds the lab test and pharmacy item master data.
// The order workflow reads it and never writes it; prices here are
// snapshotted onto order items at creation time, so later catalog edits
// do not rewrite history.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

type LabTest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	TestID      string  `gorm:"column:test_id;type:varchar(30);uniqueIndex;not null"`
	TestName    string  `gorm:"column:test_name;type:varchar(255);not null;index"`
	TestCode    string  `gorm:"column:test_code;type:varchar(50);not null"`
	Category    string  `gorm:"column:category;type:varchar(100);not null;index"`
	Subcategory string  `gorm:"column:subcategory;type:varchar(100)"`
	Price       float64 `gorm:"column:price;type:decimal(10,2);not null"`
	Description string  `gorm:"column:description;type:text"`
	Preparation string  `gorm:"column:preparation;type:text"`

	IsActive bool `gorm:"column:is_active;default:true;index"`
}

func (LabTest) TableName() string {
	return "catalog.lab_tests"
}

type PharmacyItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	SKU          string  `gorm:"column:sku;type:varchar(50);uniqueIndex;not null"`
	Name         string  `gorm:"column:name;type:varchar(255);not null;index"`
	GenericName  string  `gorm:"column:generic_name;type:varchar(255)"`
	Unit         string  `gorm:"column:unit;type:varchar(50)"`
	SellingPrice float64 `gorm:"column:selling_price;type:decimal(10,2);not null"`

	IsPrescriptionRequired bool `gorm:"column:is_prescription_required;default:false"`
	IsActive               bool `gorm:"column:is_active;default:true;index"`
}

func (PharmacyItem) TableName() string {
	return "catalog.pharmacy_items"
}

type ListLabTestsQuery struct {
	Category    string
	Subcategory string
	Search      string
	Page        int
	PageSize    int
}

type ListPharmacyItemsQuery struct {
	Search   string
	Page     int
	PageSize int
}
