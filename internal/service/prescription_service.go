package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/prescription"
)

type PrescriptionService struct {
	presRepo prescription.Repository
	billRepo billing.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPrescriptionService(
	presRepo prescription.Repository,
	billRepo billing.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		presRepo: presRepo,
		billRepo: billRepo,
		auditSvc: auditSvc,
		log:      log,
	}
}

func (s *PrescriptionService) Get(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	return s.presRepo.GetByID(ctx, id)
}

func (s *PrescriptionService) List(ctx context.Context, q *prescription.ListQuery) (*prescription.PagedPrescriptions, error) {
	return s.presRepo.List(ctx, q)
}

// Cancel soft-cancels a prescription. A prescription with a paid bill is
// part of the financial record and stays; its orders and bills remain
// readable either way.
func (s *PrescriptionService) Cancel(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) error {
	switch domain.Role(callerRole) {
	case domain.RoleDoctor, domain.RoleAdmin:
	default:
		return ErrForbidden
	}

	pres, err := s.presRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !pres.IsActive() {
		return prescription.ErrPrescriptionNotActive
	}

	paid, err := s.billRepo.HasPaidByPrescription(ctx, pres.ID)
	if err != nil {
		return fmt.Errorf("checking paid bills: %w", err)
	}
	if paid {
		return prescription.ErrHasPaidBill
	}

	if err := s.presRepo.UpdateStatus(ctx, pres.ID, prescription.StatusCancelled); err != nil {
		return fmt.Errorf("cancelling prescription: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "delete", ResourceType: "prescription",
		ResourceID: pres.PrescriptionID, IPAddress: ip,
	})

	return nil
}
