package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/sample"
	"github.com/opdemr/orderflow/internal/idgen"
)

// StatusService drives the clinical state machines: lab order progress,
// pharmacy dispensing, and sample collection tracking. Payment state is
// out of its reach entirely; that belongs to BillingService.
type StatusService struct {
	labRepo    laborder.Repository
	pharmRepo  pharmacyorder.Repository
	sampleRepo sample.Repository
	ids        *idgen.Generator
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewStatusService(
	labRepo laborder.Repository,
	pharmRepo pharmacyorder.Repository,
	sampleRepo sample.Repository,
	ids *idgen.Generator,
	auditSvc *AuditService,
	log *zap.Logger,
) *StatusService {
	return &StatusService{
		labRepo:    labRepo,
		pharmRepo:  pharmRepo,
		sampleRepo: sampleRepo,
		ids:        ids,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// UpdateLabOrderStatus advances a lab order through its lifecycle.
// Completing an order also completes its sample collection in the same
// transaction.
func (s *StatusService) UpdateLabOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	target laborder.Status,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*laborder.LabOrder, error) {
	switch domain.Role(callerRole) {
	case domain.RoleLabTech, domain.RoleDoctor, domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	order, err := s.labRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	res, err := laborder.Transition(order.Status, target, order.PaymentStatus)
	if err != nil {
		s.log.Warn("rejected lab order transition",
			zap.String("order_id", order.OrderID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(target)),
			zap.Error(err),
		)
		return nil, err
	}

	cascade := false
	for _, e := range res.Effects {
		if e == laborder.EffectCompleteCollection {
			cascade = true
		}
	}

	if err := s.labRepo.UpdateStatus(ctx, order.ID, res.Next, cascade); err != nil {
		return nil, fmt.Errorf("updating lab order status: %w", err)
	}
	prev := order.Status
	order.Status = res.Next

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "lab_order",
		ResourceID: order.OrderID, IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":{"from":%q,"to":%q}}`, prev, res.Next),
	})

	return order, nil
}

// UpdatePharmacyOrderStatus marks a pharmacy order dispensed or
// cancelled.
func (s *StatusService) UpdatePharmacyOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	target pharmacyorder.Status,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*pharmacyorder.PharmacyOrder, error) {
	switch domain.Role(callerRole) {
	case domain.RolePharmacist, domain.RoleDoctor, domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	order, err := s.pharmRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := pharmacyorder.Transition(order.Status, target, order.PaymentStatus); err != nil {
		s.log.Warn("rejected pharmacy order transition",
			zap.String("order_id", order.OrderID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(target)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.pharmRepo.UpdateStatus(ctx, order.ID, target); err != nil {
		return nil, fmt.Errorf("updating pharmacy order status: %w", err)
	}
	prev := order.Status
	order.Status = target

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "pharmacy_order",
		ResourceID: order.OrderID, IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":{"from":%q,"to":%q}}`, prev, target),
	})

	return order, nil
}

type CreateCollectionCommand struct {
	CollectorName  string
	CollectorID    string
	SampleType     string
	SampleQuantity string
	Notes          string
}

// CreateCollection registers a sample collection for a lab order that
// does not have one yet. The fan-out normally seeds collections
// automatically; this exists for orders imported from outside the
// fan-out path.
func (s *StatusService) CreateCollection(
	ctx context.Context,
	orderID uuid.UUID,
	cmd *CreateCollectionCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*sample.Collection, error) {
	switch domain.Role(callerRole) {
	case domain.RoleLabTech, domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	order, err := s.labRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := s.sampleRepo.GetByOrder(ctx, order.ID); err == nil {
		return nil, sample.ErrCollectionExists
	} else if !errors.Is(err, sample.ErrCollectionNotFound) {
		return nil, fmt.Errorf("checking existing collection: %w", err)
	}

	c := &sample.Collection{
		CollectionID:   s.ids.Next(idgen.KindCollection),
		OrderID:        order.ID,
		PatientID:      order.PatientID,
		CollectorName:  cmd.CollectorName,
		CollectorID:    cmd.CollectorID,
		SampleType:     cmd.SampleType,
		SampleQuantity: cmd.SampleQuantity,
		Notes:          cmd.Notes,
		Status:         sample.StatusPending,
		Priority:       order.Priority,
	}
	if err := s.sampleRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating sample collection: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "sample_collection",
		ResourceID: c.CollectionID, IPAddress: ip,
	})

	return c, nil
}

// UpdateCollection applies field edits and an optional status change to
// a sample collection. Marking a collection completed by hand is only
// allowed once its lab order is completed; the usual path is the order
// completion cascade.
func (s *StatusService) UpdateCollection(
	ctx context.Context,
	collectionID uuid.UUID,
	cmd *sample.UpdateCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*sample.Collection, error) {
	switch domain.Role(callerRole) {
	case domain.RoleLabTech, domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	c, err := s.sampleRepo.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	// Field updates land first so the status check sees the values this
	// request supplies, not just what was already stored.
	if cmd.CollectorName != nil {
		c.CollectorName = *cmd.CollectorName
	}
	if cmd.CollectorID != nil {
		c.CollectorID = *cmd.CollectorID
	}
	if cmd.SampleType != nil {
		c.SampleType = *cmd.SampleType
	}
	if cmd.SampleQuantity != nil {
		c.SampleQuantity = *cmd.SampleQuantity
	}
	if cmd.Notes != nil {
		c.Notes = *cmd.Notes
	}

	if cmd.Status != nil && *cmd.Status != c.Status {
		target := *cmd.Status
		if err := sample.Transition(c.Status, target, c.CollectorName, c.SampleType); err != nil {
			return nil, err
		}
		if target == sample.StatusCompleted {
			order, err := s.labRepo.GetByID(ctx, c.OrderID)
			if err != nil {
				return nil, err
			}
			if order.Status != laborder.StatusCompleted {
				return nil, sample.ErrOrderNotCompleted
			}
		}
		if target == sample.StatusCollected && c.CollectedAt == nil {
			now := time.Now().UTC()
			c.CollectedAt = &now
		}
		c.Status = target
	}

	if err := s.sampleRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("updating sample collection: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "sample_collection",
		ResourceID: c.CollectionID, IPAddress: ip,
	})

	return c, nil
}

// GetCollection returns one collection by id.
func (s *StatusService) GetCollection(ctx context.Context, id uuid.UUID) (*sample.Collection, error) {
	return s.sampleRepo.GetByID(ctx, id)
}

// ListCollections pages through collections, optionally filtered by
// patient or status.
func (s *StatusService) ListCollections(ctx context.Context, q *sample.ListQuery) (*sample.PagedCollections, error) {
	return s.sampleRepo.List(ctx, q)
}
