package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/prescription"
)

// PrescriptionComplete is the full downstream graph of one prescription:
// every lab order with its item and sample collection, the pharmacy
// order with its lines, and the bills referencing the prescription.
// Slices are always non-nil; a prescription with no orders reads as
// empty lists, not nulls.
type PrescriptionComplete struct {
	Prescription  *prescription.Prescription `json:"prescription"`
	LabOrders     []*laborder.OrderDetail    `json:"labOrders"`
	PharmacyOrder *pharmacyorder.OrderDetail `json:"pharmacyOrder,omitempty"`
	Bills         []*billing.Bill            `json:"bills"`
}

// ViewService is the read side across aggregates. It performs no writes
// and no role gating beyond authentication; every clinic role may read
// the order graph.
type ViewService struct {
	presRepo  prescription.Repository
	labRepo   laborder.Repository
	pharmRepo pharmacyorder.Repository
	billRepo  billing.Repository
	log       *zap.Logger
}

func NewViewService(
	presRepo prescription.Repository,
	labRepo laborder.Repository,
	pharmRepo pharmacyorder.Repository,
	billRepo billing.Repository,
	log *zap.Logger,
) *ViewService {
	return &ViewService{
		presRepo:  presRepo,
		labRepo:   labRepo,
		pharmRepo: pharmRepo,
		billRepo:  billRepo,
		log:       log,
	}
}

// GetPrescriptionComplete assembles the prescription's whole fan-out in
// one response. Reads are independent; a missing pharmacy order is a
// normal outcome, not an error.
func (s *ViewService) GetPrescriptionComplete(ctx context.Context, prescriptionID uuid.UUID) (*PrescriptionComplete, error) {
	pres, err := s.presRepo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}

	labOrders, err := s.labRepo.ListByPrescription(ctx, pres.ID)
	if err != nil {
		return nil, err
	}
	if labOrders == nil {
		labOrders = []*laborder.OrderDetail{}
	}

	pharm, err := s.pharmRepo.GetByPrescription(ctx, pres.ID)
	if err != nil && !errors.Is(err, pharmacyorder.ErrOrderNotFound) {
		return nil, err
	}

	bills, err := s.billRepo.GetByPrescription(ctx, pres.ID)
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []*billing.Bill{}
	}

	return &PrescriptionComplete{
		Prescription:  pres,
		LabOrders:     labOrders,
		PharmacyOrder: pharm,
		Bills:         bills,
	}, nil
}

func (s *ViewService) GetLabOrder(ctx context.Context, id uuid.UUID) (*laborder.OrderDetail, error) {
	return s.labRepo.GetDetail(ctx, id)
}

func (s *ViewService) ListLabOrders(ctx context.Context, q *laborder.ListQuery) (*laborder.PagedOrders, error) {
	return s.labRepo.List(ctx, q)
}

func (s *ViewService) GetPharmacyOrder(ctx context.Context, id uuid.UUID) (*pharmacyorder.OrderDetail, error) {
	return s.pharmRepo.GetDetail(ctx, id)
}

func (s *ViewService) ListPharmacyOrders(ctx context.Context, q *pharmacyorder.ListQuery) (*pharmacyorder.PagedOrders, error) {
	return s.pharmRepo.List(ctx, q)
}
