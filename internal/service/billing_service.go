package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/idgen"
)

// BillingService owns all money state: bill records and the payment
// status mirrored onto orders. It never writes clinical status; a paid
// lab order still walks its own state machine through StatusService.
type BillingService struct {
	billRepo  billing.Repository
	labRepo   laborder.Repository
	pharmRepo pharmacyorder.Repository
	ids       *idgen.Generator
	auditSvc  *AuditService
	log       *zap.Logger
}

func NewBillingService(
	billRepo billing.Repository,
	labRepo laborder.Repository,
	pharmRepo pharmacyorder.Repository,
	ids *idgen.Generator,
	auditSvc *AuditService,
	log *zap.Logger,
) *BillingService {
	return &BillingService{
		billRepo:  billRepo,
		labRepo:   labRepo,
		pharmRepo: pharmRepo,
		ids:       ids,
		auditSvc:  auditSvc,
		log:       log,
	}
}

type RecordOrderPaymentCommand struct {
	Status        domain.PaymentStatus
	PaidAmount    float64
	PaymentMethod string
	Discount      float64
}

// RecordOrderPayment sets the payment status on a lab or pharmacy order.
// It refuses once any paid bill references the order's prescription:
// settled prescriptions are frozen across both order families.
func (s *BillingService) RecordOrderPayment(
	ctx context.Context,
	kind domain.OrderKind,
	orderID uuid.UUID,
	cmd *RecordOrderPaymentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) error {
	switch domain.Role(callerRole) {
	case domain.RoleBillingClerk, domain.RoleAdmin:
	default:
		return ErrForbidden
	}
	if !cmd.Status.IsValid() {
		return billing.ErrInvalidPaymentStatus
	}
	if cmd.PaidAmount < 0 {
		return &ValidationError{Fields: []string{"paidAmount: must not be negative"}}
	}
	if cmd.Discount < 0 {
		return &ValidationError{Fields: []string{"discount: must not be negative"}}
	}

	var (
		prescriptionID uuid.UUID
		totalAmount    float64
		businessID     string
		resourceType   string
	)
	switch kind {
	case domain.KindLab:
		order, err := s.labRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		prescriptionID, totalAmount = order.PrescriptionID, order.TotalAmount
		businessID, resourceType = order.OrderID, "lab_order"
	case domain.KindPharmacy:
		order, err := s.pharmRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		prescriptionID, totalAmount = order.PrescriptionID, order.TotalAmount
		businessID, resourceType = order.OrderID, "pharmacy_order"
	default:
		return &ValidationError{Fields: []string{"kind: must be lab or pharmacy"}}
	}

	frozen, err := s.billRepo.HasPaidByPrescription(ctx, prescriptionID)
	if err != nil {
		return fmt.Errorf("checking paid bills: %w", err)
	}
	if frozen {
		return billing.ErrBillAlreadyFinalized
	}

	paidAmount := cmd.PaidAmount
	if cmd.Status == domain.PaymentPaid && paidAmount == 0 {
		paidAmount = totalAmount
	}

	switch kind {
	case domain.KindLab:
		err = s.labRepo.UpdatePayment(ctx, orderID, laborder.PaymentUpdate{
			Status:     cmd.Status,
			PaidAmount: paidAmount,
			Method:     cmd.PaymentMethod,
			Discount:   cmd.Discount,
		})
	case domain.KindPharmacy:
		err = s.pharmRepo.UpdatePayment(ctx, orderID, pharmacyorder.PaymentUpdate{
			Status:     cmd.Status,
			PaidAmount: paidAmount,
			Method:     cmd.PaymentMethod,
			Discount:   cmd.Discount,
		})
	}
	if err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: resourceType,
		ResourceID: businessID, IPAddress: ip,
		Changes: fmt.Sprintf(`{"payment_status":%q,"paid_amount":%.2f,"payment_method":%q}`, cmd.Status, paidAmount, cmd.PaymentMethod),
	})

	return nil
}

type BillLine struct {
	ServiceName string
	ServiceType string
	Quantity    int
	UnitPrice   float64
}

type CreateBillCommand struct {
	PatientID      uuid.UUID
	PrescriptionID *uuid.UUID
	BillDate       time.Time
	Items          []BillLine
	Discount       float64
	Tax            float64
	Total          float64
	PaymentStatus  domain.PaymentStatus
	PaymentMethod  string
	Notes          string
}

// CreateBill records a bill with its line items. Line totals and the
// subtotal are computed server side; the caller's grand total must agree
// with subtotal - discount + tax within a cent.
func (s *BillingService) CreateBill(
	ctx context.Context,
	cmd *CreateBillCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*billing.BillDetail, error) {
	switch domain.Role(callerRole) {
	case domain.RoleBillingClerk, domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	if len(cmd.Items) == 0 {
		return nil, billing.ErrNoItems
	}
	status := cmd.PaymentStatus
	if status == "" {
		status = domain.PaymentPending
	}
	if !status.IsValid() {
		return nil, billing.ErrInvalidPaymentStatus
	}

	items := make([]*billing.BillItem, 0, len(cmd.Items))
	var subtotal float64
	for _, line := range cmd.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Fields: []string{"items: quantity must be positive"}}
		}
		if line.UnitPrice < 0 {
			return nil, &ValidationError{Fields: []string{"items: unitPrice must not be negative"}}
		}
		lineTotal := float64(line.Quantity) * line.UnitPrice
		items = append(items, &billing.BillItem{
			ServiceName: line.ServiceName,
			ServiceType: line.ServiceType,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  lineTotal,
		})
		subtotal += lineTotal
	}

	billDate := cmd.BillDate
	if billDate.IsZero() {
		billDate = time.Now().UTC()
	}

	bill := &billing.Bill{
		BillID:         s.ids.Next(idgen.KindBill),
		PatientID:      cmd.PatientID,
		PrescriptionID: cmd.PrescriptionID,
		BillDate:       billDate,
		Subtotal:       subtotal,
		Discount:       cmd.Discount,
		Tax:            cmd.Tax,
		Total:          cmd.Total,
		PaymentStatus:  status,
		PaymentMethod:  cmd.PaymentMethod,
		Notes:          cmd.Notes,
	}
	if err := bill.ValidateTotals(); err != nil {
		return nil, err
	}

	if err := s.billRepo.CreateWithItems(ctx, bill, items); err != nil {
		return nil, fmt.Errorf("creating bill: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "bill",
		ResourceID: bill.BillID, IPAddress: ip,
		Changes: fmt.Sprintf(`{"total":%.2f,"payment_status":%q}`, bill.Total, status),
	})

	return &billing.BillDetail{Bill: bill, Items: items}, nil
}

type UpdateBillPaymentCommand struct {
	Status        domain.PaymentStatus
	PaymentMethod string
	Notes         string
}

// BillPaymentResult reports the bill after the update plus whether the
// prescription's orders now stand fully reconciled against its bills.
// OrdersReconciled is always false for bills with no prescription link.
type BillPaymentResult struct {
	Bill             *billing.Bill `json:"bill"`
	OrdersReconciled bool          `json:"ordersReconciled"`
}

// UpdateBillPayment moves a bill's payment status. Paid bills are
// immutable; the only state they can ever reach was the one that froze
// them. A bill settling to paid marks the prescription's open orders paid
// in full. This touches payment fields only, never order clinical status.
func (s *BillingService) UpdateBillPayment(
	ctx context.Context,
	billID uuid.UUID,
	cmd *UpdateBillPaymentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*BillPaymentResult, error) {
	switch domain.Role(callerRole) {
	case domain.RoleBillingClerk, domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	if !cmd.Status.IsValid() {
		return nil, billing.ErrInvalidPaymentStatus
	}

	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := bill.CanMutate(); err != nil {
		return nil, err
	}

	if err := s.billRepo.UpdatePayment(ctx, bill.ID, cmd.Status, cmd.PaymentMethod, cmd.Notes); err != nil {
		return nil, fmt.Errorf("updating bill payment: %w", err)
	}
	prev := bill.PaymentStatus
	bill.PaymentStatus = cmd.Status
	if cmd.PaymentMethod != "" {
		bill.PaymentMethod = cmd.PaymentMethod
	}
	if cmd.Notes != "" {
		bill.Notes = cmd.Notes
	}

	result := &BillPaymentResult{Bill: bill}
	if bill.PrescriptionID != nil {
		reconciled, err := s.reconcileOrders(ctx, *bill.PrescriptionID, cmd.Status)
		if err != nil {
			return nil, fmt.Errorf("reconciling orders: %w", err)
		}
		result.OrdersReconciled = reconciled
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "bill",
		ResourceID: bill.BillID, IPAddress: ip,
		Changes: fmt.Sprintf(`{"payment_status":{"from":%q,"to":%q}}`, prev, cmd.Status),
	})

	return result, nil
}

// reconcileOrders settles the prescription's order payment state against
// its bill. When the bill is paid, every open non-cancelled order is
// marked paid in full; otherwise existing payment state is left alone.
// The returned flag reports whether all non-cancelled orders carry a
// paid payment status afterwards.
func (s *BillingService) reconcileOrders(ctx context.Context, prescriptionID uuid.UUID, billStatus domain.PaymentStatus) (bool, error) {
	reconciled := true

	labOrders, err := s.labRepo.ListByPrescription(ctx, prescriptionID)
	if err != nil {
		return false, err
	}
	for _, d := range labOrders {
		o := d.Order
		if o.Status == laborder.StatusCancelled || o.PaymentStatus == domain.PaymentPaid {
			continue
		}
		if billStatus != domain.PaymentPaid {
			reconciled = false
			continue
		}
		err := s.labRepo.UpdatePayment(ctx, o.ID, laborder.PaymentUpdate{
			Status:     domain.PaymentPaid,
			PaidAmount: o.TotalAmount,
		})
		if err != nil {
			return false, err
		}
	}

	pharm, err := s.pharmRepo.GetByPrescription(ctx, prescriptionID)
	switch {
	case errors.Is(err, pharmacyorder.ErrOrderNotFound):
	case err != nil:
		return false, err
	default:
		o := pharm.Order
		if o.Status != pharmacyorder.StatusCancelled && o.PaymentStatus != domain.PaymentPaid {
			if billStatus != domain.PaymentPaid {
				reconciled = false
			} else {
				err := s.pharmRepo.UpdatePayment(ctx, o.ID, pharmacyorder.PaymentUpdate{
					Status:     domain.PaymentPaid,
					PaidAmount: o.TotalAmount,
				})
				if err != nil {
					return false, err
				}
			}
		}
	}

	return reconciled, nil
}

func (s *BillingService) GetBill(ctx context.Context, id uuid.UUID) (*billing.BillDetail, error) {
	return s.billRepo.GetDetail(ctx, id)
}

func (s *BillingService) ListBills(ctx context.Context, q *billing.ListQuery) (*billing.PagedBills, error) {
	return s.billRepo.List(ctx, q)
}

func (s *BillingService) GetBillsByPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]*billing.Bill, error) {
	return s.billRepo.GetByPrescription(ctx, prescriptionID)
}
