package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/service"
	"github.com/opdemr/orderflow/pkg/metrics"
)

type BillingHandler struct {
	billing   *service.BillingService
	collector *metrics.Collector
}

func NewBillingHandler(billingSvc *service.BillingService, collector *metrics.Collector) *BillingHandler {
	return &BillingHandler{billing: billingSvc, collector: collector}
}

type billLineRequest struct {
	ServiceName string  `json:"serviceName" binding:"required"`
	ServiceType string  `json:"serviceType"`
	Quantity    int     `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unitPrice"`
}

type createBillRequest struct {
	PatientID      uuid.UUID         `json:"patientId" binding:"required"`
	PrescriptionID *uuid.UUID        `json:"prescriptionId"`
	BillDate       *time.Time        `json:"billDate"`
	Items          []billLineRequest `json:"items" binding:"required,min=1"`
	Discount       float64           `json:"discount"`
	Tax            float64           `json:"tax"`
	Total          float64           `json:"total" binding:"required"`
	PaymentStatus  string            `json:"paymentStatus"`
	PaymentMethod  string            `json:"paymentMethod"`
	Notes          string            `json:"notes"`
}

func (h *BillingHandler) Create(c *gin.Context) {
	var req createBillRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.CreateBillCommand{
		PatientID:      req.PatientID,
		PrescriptionID: req.PrescriptionID,
		Discount:       req.Discount,
		Tax:            req.Tax,
		Total:          req.Total,
		PaymentStatus:  domain.PaymentStatus(req.PaymentStatus),
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	}
	if req.BillDate != nil {
		cmd.BillDate = *req.BillDate
	}
	for _, line := range req.Items {
		cmd.Items = append(cmd.Items, service.BillLine{
			ServiceName: line.ServiceName,
			ServiceType: line.ServiceType,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	claims := callerClaims(c)
	detail, err := h.billing.CreateBill(c.Request.Context(), cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if detail.Bill.IsFinalized() {
		h.collector.BillsFinalized.Inc()
	}
	respondCreated(c, detail)
}

func (h *BillingHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.billing.GetBill(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, detail)
}

func (h *BillingHandler) List(c *gin.Context) {
	q := &billing.ListQuery{
		PatientID: parseQueryUUID(c, "patientId"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 20),
	}
	if raw := c.Query("paymentStatus"); raw != "" {
		status := domain.PaymentStatus(raw)
		q.PaymentStatus = &status
	}

	result, err := h.billing.ListBills(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

type updateBillPaymentRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
	Notes         string `json:"notes"`
}

func (h *BillingHandler) UpdatePayment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateBillPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	cmd := &service.UpdateBillPaymentCommand{
		Status:        domain.PaymentStatus(req.PaymentStatus),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	result, err := h.billing.UpdateBillPayment(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.Bill.IsFinalized() {
		h.collector.BillsFinalized.Inc()
	}
	respondOK(c, result)
}
