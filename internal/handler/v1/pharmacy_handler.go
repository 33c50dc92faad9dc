package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/service"
	"github.com/opdemr/orderflow/pkg/metrics"
)

type PharmacyHandler struct {
	fanout    *service.FanoutService
	status    *service.StatusService
	billing   *service.BillingService
	views     *service.ViewService
	collector *metrics.Collector
}

func NewPharmacyHandler(
	fanout *service.FanoutService,
	status *service.StatusService,
	billing *service.BillingService,
	views *service.ViewService,
	collector *metrics.Collector,
) *PharmacyHandler {
	return &PharmacyHandler{
		fanout:    fanout,
		status:    status,
		billing:   billing,
		views:     views,
		collector: collector,
	}
}

type pharmacyLineRequest struct {
	ItemID       uuid.UUID `json:"itemId" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required"`
	UnitPrice    *float64  `json:"unitPrice"`
	Instructions string    `json:"instructions"`
}

type createPharmacyOrderRequest struct {
	Items    []pharmacyLineRequest `json:"items" binding:"required,min=1"`
	Notes    string                `json:"notes"`
	Priority string                `json:"priority"`
}

func (h *PharmacyHandler) Create(c *gin.Context) {
	prescriptionID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req createPharmacyOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.CreatePharmacyOrderCommand{
		Notes:    req.Notes,
		Priority: domain.Priority(req.Priority),
	}
	for _, line := range req.Items {
		cmd.Items = append(cmd.Items, service.PharmacyLine{
			ItemID:       line.ItemID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Instructions: line.Instructions,
		})
	}

	claims := callerClaims(c)
	detail, err := h.fanout.CreatePharmacyOrder(c.Request.Context(), prescriptionID, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PharmacyOrdersTotal.Inc()
	respondCreated(c, detail)
}

func (h *PharmacyHandler) List(c *gin.Context) {
	q := &pharmacyorder.ListQuery{
		PatientID: parseQueryUUID(c, "patientId"),
		DoctorID:  parseQueryUUID(c, "doctorId"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := pharmacyorder.Status(raw)
		q.Status = &status
	}

	result, err := h.views.ListPharmacyOrders(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *PharmacyHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.views.GetPharmacyOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, detail)
}

func (h *PharmacyHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	order, err := h.status.UpdatePharmacyOrderStatus(c.Request.Context(), id, pharmacyorder.Status(req.Status), claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		h.collector.RejectedTransitions.WithLabelValues("pharmacy").Inc()
		respondServiceError(c, err)
		return
	}

	h.collector.OrderTransitions.WithLabelValues("pharmacy", req.Status).Inc()
	respondOK(c, order)
}

func (h *PharmacyHandler) UpdateBilling(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateBillingRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	cmd := &service.RecordOrderPaymentCommand{
		Status:        domain.PaymentStatus(req.PaymentStatus),
		PaidAmount:    req.PaidAmount,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount,
	}
	err := h.billing.RecordOrderPayment(c.Request.Context(), domain.KindPharmacy, id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PaymentsRecorded.WithLabelValues(req.PaymentStatus).Inc()
	respondOK(c, gin.H{"id": id, "paymentStatus": req.PaymentStatus})
}
