package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/sample"
)

type billingFixture struct {
	svc   *BillingService
	bills *fakeBillRepo
	lab   *fakeLabRepo
	pharm *fakePharmRepo
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	billRepo := newFakeBillRepo()
	labRepo := newFakeLabRepo()
	pharmRepo := newFakePharmRepo()

	audit := NewAuditService(&fakeAuditRepo{}, zap.NewNop())
	t.Cleanup(audit.Shutdown)

	svc := NewBillingService(billRepo, labRepo, pharmRepo, testGenerator(), audit, zap.NewNop())
	return &billingFixture{svc: svc, bills: billRepo, lab: labRepo, pharm: pharmRepo}
}

func (f *billingFixture) seedLabOrder(t *testing.T, prescriptionID uuid.UUID, amount float64) *laborder.LabOrder {
	t.Helper()
	order := &laborder.LabOrder{
		OrderID:        "LAB-000002-BBB",
		PrescriptionID: prescriptionID,
		PatientID:      uuid.New(),
		TestID:         uuid.New(),
		TotalAmount:    amount,
		Status:         laborder.StatusOrdered,
		PaymentStatus:  domain.PaymentPending,
	}
	if err := f.lab.CreateWithCollection(context.Background(), order, &laborder.Item{}, &sample.Collection{Status: sample.StatusPending}); err != nil {
		t.Fatalf("seed lab order: %v", err)
	}
	return order
}

func (f *billingFixture) seedPaidBill(prescriptionID uuid.UUID) {
	id := prescriptionID
	bill := &billing.Bill{
		BillID:         "BILL-000009-ZZZ",
		PatientID:      uuid.New(),
		PrescriptionID: &id,
		Subtotal:       400,
		Total:          400,
		PaymentStatus:  domain.PaymentPaid,
	}
	_ = f.bills.CreateWithItems(context.Background(), bill, []*billing.BillItem{{ServiceName: "CBC", Quantity: 1, UnitPrice: 400, TotalPrice: 400}})
}

func TestRecordOrderPaymentWhitelist(t *testing.T) {
	f := newBillingFixture(t)
	order := f.seedLabOrder(t, uuid.New(), 300)

	for _, status := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentPartial, domain.PaymentPaid, domain.PaymentCancelled} {
		cmd := &RecordOrderPaymentCommand{Status: status, PaidAmount: 100}
		if err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, cmd, uuid.New(), "billing_clerk", ""); err != nil {
			t.Errorf("status %s: %v", status, err)
		}
	}

	cmd := &RecordOrderPaymentCommand{Status: domain.PaymentStatus("refunded")}
	err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, cmd, uuid.New(), "billing_clerk", "")
	if !errors.Is(err, billing.ErrInvalidPaymentStatus) {
		t.Fatalf("unknown status err = %v, want ErrInvalidPaymentStatus", err)
	}
}

func TestRecordOrderPaymentDefaultsPaidAmount(t *testing.T) {
	f := newBillingFixture(t)
	order := f.seedLabOrder(t, uuid.New(), 300)

	cmd := &RecordOrderPaymentCommand{Status: domain.PaymentPaid}
	if err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, cmd, uuid.New(), "billing_clerk", ""); err != nil {
		t.Fatalf("RecordOrderPayment: %v", err)
	}
	if order.PaidAmount != 300 {
		t.Fatalf("PaidAmount = %.2f, want order total 300", order.PaidAmount)
	}
}

func TestRecordOrderPaymentFrozenByPaidBill(t *testing.T) {
	f := newBillingFixture(t)
	prescriptionID := uuid.New()
	order := f.seedLabOrder(t, prescriptionID, 300)
	f.seedPaidBill(prescriptionID)

	cmd := &RecordOrderPaymentCommand{Status: domain.PaymentPartial, PaidAmount: 100}
	err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, cmd, uuid.New(), "billing_clerk", "")
	if !errors.Is(err, billing.ErrBillAlreadyFinalized) {
		t.Fatalf("err = %v, want ErrBillAlreadyFinalized", err)
	}
	if order.PaymentStatus != domain.PaymentPending || order.PaidAmount != 0 {
		t.Fatalf("frozen order mutated: %s %.2f", order.PaymentStatus, order.PaidAmount)
	}
}

func TestRecordOrderPaymentPharmacy(t *testing.T) {
	f := newBillingFixture(t)
	order := &pharmacyorder.PharmacyOrder{
		OrderID:        "PHARM-000002-BBB",
		PrescriptionID: uuid.New(),
		TotalAmount:    250,
		Status:         pharmacyorder.StatusOrdered,
		PaymentStatus:  domain.PaymentPending,
	}
	if err := f.pharm.CreateWithItems(context.Background(), order, []*pharmacyorder.Item{{ItemName: "Amoxicillin"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cmd := &RecordOrderPaymentCommand{Status: domain.PaymentPaid}
	if err := f.svc.RecordOrderPayment(context.Background(), domain.KindPharmacy, order.ID, cmd, uuid.New(), "billing_clerk", ""); err != nil {
		t.Fatalf("RecordOrderPayment: %v", err)
	}
	if order.PaymentStatus != domain.PaymentPaid || order.PaidAmount != 250 {
		t.Fatalf("order = %s %.2f", order.PaymentStatus, order.PaidAmount)
	}

	// Payment never drives clinical status.
	if order.Status != pharmacyorder.StatusOrdered {
		t.Fatalf("clinical status changed to %s", order.Status)
	}
}

func TestRecordOrderPaymentRoleGate(t *testing.T) {
	f := newBillingFixture(t)
	order := f.seedLabOrder(t, uuid.New(), 300)

	cmd := &RecordOrderPaymentCommand{Status: domain.PaymentPaid}
	err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, cmd, uuid.New(), "doctor", "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestRecordOrderPaymentCapturesMethodAndDiscount(t *testing.T) {
	f := newBillingFixture(t)
	order := f.seedLabOrder(t, uuid.New(), 300)

	cmd := &RecordOrderPaymentCommand{Status: domain.PaymentPaid, PaidAmount: 250, PaymentMethod: "card", Discount: 50}
	if err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, cmd, uuid.New(), "billing_clerk", ""); err != nil {
		t.Fatalf("RecordOrderPayment: %v", err)
	}
	if order.PaymentMethod != "card" {
		t.Fatalf("PaymentMethod = %q, want card", order.PaymentMethod)
	}
	if order.Discount != 50 {
		t.Fatalf("Discount = %.2f, want 50", order.Discount)
	}
	if order.PaidAmount != 250 {
		t.Fatalf("PaidAmount = %.2f, want 250", order.PaidAmount)
	}

	bad := &RecordOrderPaymentCommand{Status: domain.PaymentPaid, Discount: -5}
	err := f.svc.RecordOrderPayment(context.Background(), domain.KindLab, order.ID, bad, uuid.New(), "billing_clerk", "")
	var validErr *ValidationError
	if !errors.As(err, &validErr) {
		t.Fatalf("negative discount err = %v, want ValidationError", err)
	}
}

func TestCreateBillComputesAndValidates(t *testing.T) {
	f := newBillingFixture(t)

	cmd := &CreateBillCommand{
		PatientID: uuid.New(),
		Items: []BillLine{
			{ServiceName: "CBC", ServiceType: "lab", Quantity: 1, UnitPrice: 300},
			{ServiceName: "Lipid Profile", ServiceType: "lab", Quantity: 1, UnitPrice: 500},
		},
		Discount: 80,
		Tax:      40,
		Total:    760,
	}
	detail, err := f.svc.CreateBill(context.Background(), cmd, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if detail.Bill.Subtotal != 800 {
		t.Fatalf("Subtotal = %.2f, want 800", detail.Bill.Subtotal)
	}
	if !strings.HasPrefix(detail.Bill.BillID, "BILL-") {
		t.Fatalf("bill id = %q", detail.Bill.BillID)
	}
	if detail.Bill.PaymentStatus != domain.PaymentPending {
		t.Fatalf("payment status = %s, want pending", detail.Bill.PaymentStatus)
	}

	cmd.Total = 700
	if _, err := f.svc.CreateBill(context.Background(), cmd, uuid.New(), "billing_clerk", ""); !errors.Is(err, billing.ErrTotalMismatch) {
		t.Fatalf("bad total err = %v, want ErrTotalMismatch", err)
	}

	cmd.Items = nil
	if _, err := f.svc.CreateBill(context.Background(), cmd, uuid.New(), "billing_clerk", ""); !errors.Is(err, billing.ErrNoItems) {
		t.Fatalf("no items err = %v, want ErrNoItems", err)
	}
}

func TestUpdateBillPaymentPaidIsImmutable(t *testing.T) {
	f := newBillingFixture(t)
	prescriptionID := uuid.New()
	f.seedPaidBill(prescriptionID)

	var billID uuid.UUID
	for id := range f.bills.bills {
		billID = id
	}

	cmd := &UpdateBillPaymentCommand{Status: domain.PaymentPending, PaymentMethod: "cash", Notes: "reopened"}
	_, err := f.svc.UpdateBillPayment(context.Background(), billID, cmd, uuid.New(), "billing_clerk", "")
	if !errors.Is(err, billing.ErrBillAlreadyFinalized) {
		t.Fatalf("err = %v, want ErrBillAlreadyFinalized", err)
	}

	stored := f.bills.bills[billID]
	if stored.PaymentStatus != domain.PaymentPaid || stored.PaymentMethod != "" || stored.Notes != "" {
		t.Fatalf("paid bill mutated: %+v", stored)
	}
}

func TestUpdateBillPaymentProgression(t *testing.T) {
	f := newBillingFixture(t)

	cmd := &CreateBillCommand{
		PatientID: uuid.New(),
		Items:     []BillLine{{ServiceName: "CBC", Quantity: 1, UnitPrice: 300}},
		Total:     300,
	}
	detail, err := f.svc.CreateBill(context.Background(), cmd, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	for _, status := range []domain.PaymentStatus{domain.PaymentPartial, domain.PaymentPaid} {
		result, err := f.svc.UpdateBillPayment(context.Background(), detail.Bill.ID, &UpdateBillPaymentCommand{Status: status, PaymentMethod: "upi"}, uuid.New(), "billing_clerk", "")
		if err != nil {
			t.Fatalf("update to %s: %v", status, err)
		}
		if result.Bill.PaymentStatus != status {
			t.Fatalf("status = %s, want %s", result.Bill.PaymentStatus, status)
		}
	}

	// And now it is frozen.
	_, err = f.svc.UpdateBillPayment(context.Background(), detail.Bill.ID, &UpdateBillPaymentCommand{Status: domain.PaymentCancelled}, uuid.New(), "billing_clerk", "")
	if !errors.Is(err, billing.ErrBillAlreadyFinalized) {
		t.Fatalf("post-paid update err = %v, want ErrBillAlreadyFinalized", err)
	}
}

func TestUpdateBillPaymentReconcilesOrders(t *testing.T) {
	f := newBillingFixture(t)
	prescriptionID := uuid.New()
	labOrder := f.seedLabOrder(t, prescriptionID, 300)

	pharmOrder := &pharmacyorder.PharmacyOrder{
		OrderID:        "PHARM-000004-DDD",
		PrescriptionID: prescriptionID,
		TotalAmount:    125,
		Status:         pharmacyorder.StatusOrdered,
		PaymentStatus:  domain.PaymentPending,
	}
	if err := f.pharm.CreateWithItems(context.Background(), pharmOrder, []*pharmacyorder.Item{{ItemName: "Amoxicillin"}}); err != nil {
		t.Fatalf("seed pharmacy order: %v", err)
	}

	cmd := &CreateBillCommand{
		PatientID:      uuid.New(),
		PrescriptionID: &prescriptionID,
		Items:          []BillLine{{ServiceName: "CBC", Quantity: 1, UnitPrice: 425}},
		Total:          425,
	}
	detail, err := f.svc.CreateBill(context.Background(), cmd, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	// A partial payment settles nothing on the orders.
	result, err := f.svc.UpdateBillPayment(context.Background(), detail.Bill.ID, &UpdateBillPaymentCommand{Status: domain.PaymentPartial}, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if result.OrdersReconciled {
		t.Fatal("OrdersReconciled = true after partial payment")
	}
	if labOrder.PaymentStatus != domain.PaymentPending || pharmOrder.PaymentStatus != domain.PaymentPending {
		t.Fatalf("partial bill payment touched orders: %s / %s", labOrder.PaymentStatus, pharmOrder.PaymentStatus)
	}

	// Settling the bill marks every open order paid in full.
	result, err = f.svc.UpdateBillPayment(context.Background(), detail.Bill.ID, &UpdateBillPaymentCommand{Status: domain.PaymentPaid, PaymentMethod: "upi"}, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("paid update: %v", err)
	}
	if !result.OrdersReconciled {
		t.Fatal("OrdersReconciled = false after bill settled")
	}
	if labOrder.PaymentStatus != domain.PaymentPaid || labOrder.PaidAmount != 300 {
		t.Fatalf("lab order payment = %s %.2f, want paid 300", labOrder.PaymentStatus, labOrder.PaidAmount)
	}
	if pharmOrder.PaymentStatus != domain.PaymentPaid || pharmOrder.PaidAmount != 125 {
		t.Fatalf("pharmacy order payment = %s %.2f, want paid 125", pharmOrder.PaymentStatus, pharmOrder.PaidAmount)
	}

	// Clinical status stays where it was.
	if labOrder.Status != laborder.StatusOrdered || pharmOrder.Status != pharmacyorder.StatusOrdered {
		t.Fatalf("reconcile touched clinical status: %s / %s", labOrder.Status, pharmOrder.Status)
	}
}

func TestUpdateBillPaymentSkipsCancelledOrders(t *testing.T) {
	f := newBillingFixture(t)
	prescriptionID := uuid.New()
	cancelled := f.seedLabOrder(t, prescriptionID, 300)
	cancelled.Status = laborder.StatusCancelled

	cmd := &CreateBillCommand{
		PatientID:      uuid.New(),
		PrescriptionID: &prescriptionID,
		Items:          []BillLine{{ServiceName: "Consult", Quantity: 1, UnitPrice: 200}},
		Total:          200,
	}
	detail, err := f.svc.CreateBill(context.Background(), cmd, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	result, err := f.svc.UpdateBillPayment(context.Background(), detail.Bill.ID, &UpdateBillPaymentCommand{Status: domain.PaymentPaid}, uuid.New(), "billing_clerk", "")
	if err != nil {
		t.Fatalf("paid update: %v", err)
	}
	if !result.OrdersReconciled {
		t.Fatal("cancelled order blocked reconciliation")
	}
	if cancelled.PaymentStatus != domain.PaymentPending {
		t.Fatalf("cancelled order payment rewritten to %s", cancelled.PaymentStatus)
	}
}
