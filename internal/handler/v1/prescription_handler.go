package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/opdemr/orderflow/internal/domain/prescription"
	"github.com/opdemr/orderflow/internal/service"
)

type PrescriptionHandler struct {
	prescriptions *service.PrescriptionService
	views         *service.ViewService
}

func NewPrescriptionHandler(prescriptions *service.PrescriptionService, views *service.ViewService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptions: prescriptions, views: views}
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	q := &prescription.ListQuery{
		PatientID: parseQueryUUID(c, "patientId"),
		DoctorID:  parseQueryUUID(c, "doctorId"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := prescription.Status(raw)
		q.Status = &status
	}

	result, err := h.prescriptions.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	pres, err := h.prescriptions.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pres)
}

// GetComplete returns the prescription with its entire downstream order
// graph in one response.
func (h *PrescriptionHandler) GetComplete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	view, err := h.views.GetPrescriptionComplete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, view)
}

func (h *PrescriptionHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	claims := callerClaims(c)

	err := h.prescriptions.Cancel(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"id": id, "status": prescription.StatusCancelled})
}
