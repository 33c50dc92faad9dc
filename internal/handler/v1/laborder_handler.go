package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/service"
	"github.com/opdemr/orderflow/pkg/metrics"
)

type LabOrderHandler struct {
	fanout    *service.FanoutService
	status    *service.StatusService
	billing   *service.BillingService
	views     *service.ViewService
	collector *metrics.Collector
}

func NewLabOrderHandler(
	fanout *service.FanoutService,
	status *service.StatusService,
	billing *service.BillingService,
	views *service.ViewService,
	collector *metrics.Collector,
) *LabOrderHandler {
	return &LabOrderHandler{
		fanout:    fanout,
		status:    status,
		billing:   billing,
		views:     views,
		collector: collector,
	}
}

type labSelectionRequest struct {
	TestID        uuid.UUID `json:"testId" binding:"required"`
	ClinicalNotes string    `json:"clinicalNotes"`
	Instructions  string    `json:"instructions"`
}

type createLabOrdersRequest struct {
	Tests    []labSelectionRequest `json:"tests" binding:"required,min=1"`
	Priority string                `json:"priority"`
}

// CreateBatch fans the requested tests out into one lab order each.
// Responds 201 even when some selections were skipped; the body carries
// the skip list. 400 only when nothing at all was created.
func (h *LabOrderHandler) CreateBatch(c *gin.Context) {
	prescriptionID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req createLabOrdersRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.CreateLabOrdersCommand{Priority: domain.Priority(req.Priority)}
	for _, t := range req.Tests {
		cmd.Selections = append(cmd.Selections, service.LabSelection{
			TestID:        t.TestID,
			ClinicalNotes: t.ClinicalNotes,
			Instructions:  t.Instructions,
		})
	}

	claims := callerClaims(c)
	result, err := h.fanout.CreateLabOrders(c.Request.Context(), prescriptionID, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		// Nothing was created, but the caller still needs to know why
		// each selection failed to correct the request.
		if errors.Is(err, laborder.ErrNoOrdersCreated) && result != nil {
			for _, s := range result.Skipped {
				h.collector.SelectionsSkipped.WithLabelValues(string(s.Reason)).Inc()
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   err.Error(),
				"skipped": result.Skipped,
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	h.collector.LabOrdersCreated.Add(float64(len(result.Orders)))
	for _, s := range result.Skipped {
		h.collector.SelectionsSkipped.WithLabelValues(string(s.Reason)).Inc()
	}

	respondCreated(c, gin.H{
		"orderCount": result.OrderCount(),
		"orders":     result.Orders,
		"skipped":    result.Skipped,
	})
}

func (h *LabOrderHandler) List(c *gin.Context) {
	q := &laborder.ListQuery{
		PrescriptionID: parseQueryUUID(c, "prescriptionId"),
		PatientID:      parseQueryUUID(c, "patientId"),
		DoctorID:       parseQueryUUID(c, "doctorId"),
		Page:           parseQueryInt(c, "page", 1),
		PageSize:       parseQueryInt(c, "pageSize", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := laborder.Status(raw)
		q.Status = &status
	}

	result, err := h.views.ListLabOrders(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *LabOrderHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.views.GetLabOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, detail)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *LabOrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	order, err := h.status.UpdateLabOrderStatus(c.Request.Context(), id, laborder.Status(req.Status), claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		h.collector.RejectedTransitions.WithLabelValues("lab").Inc()
		respondServiceError(c, err)
		return
	}

	h.collector.OrderTransitions.WithLabelValues("lab", req.Status).Inc()
	respondOK(c, order)
}

type updateBillingRequest struct {
	PaymentStatus string  `json:"paymentStatus" binding:"required"`
	PaidAmount    float64 `json:"paidAmount"`
	PaymentMethod string  `json:"paymentMethod"`
	Discount      float64 `json:"discount"`
}

// UpdateBilling records a payment against the lab order. Clinical status
// is untouched; only payment fields change.
func (h *LabOrderHandler) UpdateBilling(c *gin.Context) {
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
	err := h.billing.RecordOrderPayment(c.Request.Context(), domain.KindLab, id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PaymentsRecorded.WithLabelValues(req.PaymentStatus).Inc()
	respondOK(c, gin.H{"id": id, "paymentStatus": req.PaymentStatus})
}
