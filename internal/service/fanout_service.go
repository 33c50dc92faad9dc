package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/catalog"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/prescription"
	"github.com/opdemr/orderflow/internal/domain/sample"
	"github.com/opdemr/orderflow/internal/idgen"
)

// SkipReason explains why a fan-out selection produced no order.
type SkipReason string

const (
	SkipCatalogNotFound    SkipReason = "catalog_item_not_found"
	SkipDuplicate          SkipReason = "duplicate"
	SkipPersistenceFailure SkipReason = "persistence_failure"
)

type LabSelection struct {
	TestID        uuid.UUID
	ClinicalNotes string
	Instructions  string
}

type CreateLabOrdersCommand struct {
	Selections []LabSelection
	Priority   domain.Priority
}

type SkippedSelection struct {
	Position int        `json:"position"`
	TestID   uuid.UUID  `json:"testId"`
	Reason   SkipReason `json:"reason"`
}

// LabFanoutResult reports partial success as data, never as an error:
// callers need to tell "nothing happened" apart from "most things
// happened, a few were skipped". Orders appear in submission order so
// callers can correlate positions with their input.
type LabFanoutResult struct {
	Orders  []*laborder.OrderDetail
	Skipped []SkippedSelection
}

func (r *LabFanoutResult) OrderCount() int {
	return len(r.Orders)
}

type PharmacyLine struct {
	ItemID       uuid.UUID
	Quantity     int
	UnitPrice    *float64 // overrides the catalog price when set
	Instructions string
}

type CreatePharmacyOrderCommand struct {
	Items    []PharmacyLine
	Notes    string
	Priority domain.Priority
}

// FanoutService decomposes a prescription into independent lab orders
// (one per test) and at most one aggregate pharmacy order.
type FanoutService struct {
	presRepo  prescription.Repository
	catalog   catalog.Repository
	labRepo   laborder.Repository
	pharmRepo pharmacyorder.Repository
	ids       *idgen.Generator
	auditSvc  *AuditService
	log       *zap.Logger
}

func NewFanoutService(
	presRepo prescription.Repository,
	catalogRepo catalog.Repository,
	labRepo laborder.Repository,
	pharmRepo pharmacyorder.Repository,
	ids *idgen.Generator,
	auditSvc *AuditService,
	log *zap.Logger,
) *FanoutService {
	return &FanoutService{
		presRepo:  presRepo,
		catalog:   catalogRepo,
		labRepo:   labRepo,
		pharmRepo: pharmRepo,
		ids:       ids,
		auditSvc:  auditSvc,
		log:       log,
	}
}

// CreateLabOrders fans a batch of test selections out into one lab order
// per valid test. Each order + item + pending sample collection is one
// atomic unit; units are deliberately independent of each other, so one
// failed test never rolls back its siblings and callers can resubmit
// just the skipped subset.
func (s *FanoutService) CreateLabOrders(
	ctx context.Context,
	prescriptionID uuid.UUID,
	cmd *CreateLabOrdersCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*LabFanoutResult, error) {
	if callerRole != string(domain.RoleDoctor) && callerRole != string(domain.RoleAdmin) {
		return nil, ErrForbidden
	}
	if len(cmd.Selections) == 0 {
		return nil, &ValidationError{Fields: []string{"tests: at least one selection is required"}}
	}
	priority := cmd.Priority
	if priority == "" {
		priority = domain.PriorityRoutine
	}
	if !priority.IsValid() {
		return nil, &ValidationError{Fields: []string{"priority: must be routine or urgent"}}
	}

	pres, err := s.presRepo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("verifying prescription: %w", err)
	}
	if !pres.IsActive() {
		return nil, prescription.ErrPrescriptionNotActive
	}

	result := &LabFanoutResult{
		Orders:  make([]*laborder.OrderDetail, 0, len(cmd.Selections)),
		Skipped: make([]SkippedSelection, 0),
	}

	for i, sel := range cmd.Selections {
		test, err := s.catalog.GetLabTest(ctx, sel.TestID)
		if err != nil {
			if errors.Is(err, catalog.ErrLabTestNotFound) {
				result.Skipped = append(result.Skipped, SkippedSelection{Position: i, TestID: sel.TestID, Reason: SkipCatalogNotFound})
				continue
			}
			return nil, fmt.Errorf("looking up lab test: %w", err)
		}

		exists, err := s.labRepo.HasActiveForTest(ctx, pres.ID, test.ID)
		if err != nil {
			return nil, fmt.Errorf("checking existing orders: %w", err)
		}
		if exists {
			result.Skipped = append(result.Skipped, SkippedSelection{Position: i, TestID: sel.TestID, Reason: SkipDuplicate})
			continue
		}

		order := &laborder.LabOrder{
			OrderID:        s.ids.Next(idgen.KindLabOrder),
			PrescriptionID: pres.ID,
			PatientID:      pres.PatientID,
			DoctorID:       pres.DoctorID,
			TestID:         test.ID,
			ClinicalNotes:  sel.ClinicalNotes,
			Instructions:   sel.Instructions,
			TotalAmount:    test.Price,
			Priority:       priority,
			Status:         laborder.StatusOrdered,
			PaymentStatus:  domain.PaymentPending,
		}
		item := &laborder.Item{
			TestID:        test.ID,
			TestName:      test.TestName,
			TestCode:      test.TestCode,
			Price:         test.Price,
			ClinicalNotes: sel.ClinicalNotes,
			Instructions:  sel.Instructions,
			Status:        laborder.StatusOrdered,
		}
		collection := &sample.Collection{
			CollectionID: s.ids.Next(idgen.KindCollection),
			PatientID:    pres.PatientID,
			Status:       sample.StatusPending,
			Priority:     priority,
		}

		if err := s.labRepo.CreateWithCollection(ctx, order, item, collection); err != nil {
			s.log.Error("lab order unit failed, continuing batch",
				zap.String("prescription_id", pres.PrescriptionID),
				zap.String("test_id", test.TestID),
				zap.Error(err),
			)
			result.Skipped = append(result.Skipped, SkippedSelection{Position: i, TestID: sel.TestID, Reason: SkipPersistenceFailure})
			continue
		}

		result.Orders = append(result.Orders, &laborder.OrderDetail{Order: order, Item: item, Collection: collection})
	}

	if len(result.Orders) == 0 {
		return result, laborder.ErrNoOrdersCreated
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "lab_order",
		ResourceID: pres.PrescriptionID, IPAddress: ip,
		Changes: fmt.Sprintf(`{"created":%d,"skipped":%d}`, len(result.Orders), len(result.Skipped)),
	})

	return result, nil
}

// CreatePharmacyOrder creates the prescription's single aggregate
// pharmacy order with one line per medication. Unlike the lab fan-out it
// is all-or-nothing: a bad line fails the whole order.
func (s *FanoutService) CreatePharmacyOrder(
	ctx context.Context,
	prescriptionID uuid.UUID,
	cmd *CreatePharmacyOrderCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*pharmacyorder.OrderDetail, error) {
	if callerRole != string(domain.RoleDoctor) && callerRole != string(domain.RoleAdmin) {
		return nil, ErrForbidden
	}
	if len(cmd.Items) == 0 {
		return nil, pharmacyorder.ErrNoItems
	}
	priority := cmd.Priority
	if priority == "" {
		priority = domain.PriorityRoutine
	}
	if !priority.IsValid() {
		return nil, &ValidationError{Fields: []string{"priority: must be routine or urgent"}}
	}

	pres, err := s.presRepo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("verifying prescription: %w", err)
	}
	if !pres.IsActive() {
		return nil, prescription.ErrPrescriptionNotActive
	}

	if existing, err := s.pharmRepo.GetByPrescription(ctx, pres.ID); err == nil && existing != nil {
		return nil, pharmacyorder.ErrOrderExists
	} else if err != nil && !errors.Is(err, pharmacyorder.ErrOrderNotFound) {
		return nil, fmt.Errorf("checking existing pharmacy order: %w", err)
	}

	order := &pharmacyorder.PharmacyOrder{
		OrderID:        s.ids.Next(idgen.KindPharmacyOrder),
		PrescriptionID: pres.ID,
		PatientID:      pres.PatientID,
		DoctorID:       pres.DoctorID,
		Priority:       priority,
		Notes:          cmd.Notes,
		Status:         pharmacyorder.StatusOrdered,
		PaymentStatus:  domain.PaymentPending,
	}

	items := make([]*pharmacyorder.Item, 0, len(cmd.Items))
	var total float64
	for _, line := range cmd.Items {
		if line.Quantity <= 0 {
			return nil, pharmacyorder.ErrInvalidQuantity
		}
		catItem, err := s.catalog.GetPharmacyItem(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("looking up pharmacy item: %w", err)
		}

		unitPrice := catItem.SellingPrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		if unitPrice < 0 {
			return nil, &ValidationError{Fields: []string{"unitPrice: must not be negative"}}
		}
		lineTotal := float64(line.Quantity) * unitPrice

		items = append(items, &pharmacyorder.Item{
			ItemID:       catItem.ID,
			ItemName:     catItem.Name,
			ItemCode:     catItem.SKU,
			Quantity:     line.Quantity,
			UnitPrice:    unitPrice,
			TotalPrice:   lineTotal,
			Instructions: line.Instructions,
			Status:       pharmacyorder.StatusOrdered,
		})
		total += lineTotal
	}
	order.TotalAmount = total

	if err := s.pharmRepo.CreateWithItems(ctx, order, items); err != nil {
		s.log.Error("failed to create pharmacy order", zap.Error(err))
		return nil, fmt.Errorf("creating pharmacy order: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "pharmacy_order",
		ResourceID: order.OrderID, IPAddress: ip,
	})

	return &pharmacyorder.OrderDetail{Order: order, Items: items}, nil
}
