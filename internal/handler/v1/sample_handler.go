package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/opdemr/orderflow/internal/domain/sample"
	"github.com/opdemr/orderflow/internal/service"
)

type SampleHandler struct {
	status *service.StatusService
}

func NewSampleHandler(status *service.StatusService) *SampleHandler {
	return &SampleHandler{status: status}
}

type createCollectionRequest struct {
	CollectorName  string `json:"collectorName"`
	CollectorID    string `json:"collectorId"`
	SampleType     string `json:"sampleType"`
	SampleQuantity string `json:"sampleQuantity"`
	Notes          string `json:"notes"`
}

// Create registers a collection for a lab order that has none. The
// fan-out seeds one automatically for every order it creates, so this
// is the exception path.
func (h *SampleHandler) Create(c *gin.Context) {
	orderID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req createCollectionRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	cmd := &service.CreateCollectionCommand{
		CollectorName:  req.CollectorName,
		CollectorID:    req.CollectorID,
		SampleType:     req.SampleType,
		SampleQuantity: req.SampleQuantity,
		Notes:          req.Notes,
	}
	collection, err := h.status.CreateCollection(c.Request.Context(), orderID, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, collection)
}

type updateCollectionRequest struct {
	Status         *string `json:"status"`
	CollectorName  *string `json:"collectorName"`
	CollectorID    *string `json:"collectorId"`
	SampleType     *string `json:"sampleType"`
	SampleQuantity *string `json:"sampleQuantity"`
	Notes          *string `json:"notes"`
}

func (h *SampleHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateCollectionRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &sample.UpdateCommand{
		CollectorName:  req.CollectorName,
		CollectorID:    req.CollectorID,
		SampleType:     req.SampleType,
		SampleQuantity: req.SampleQuantity,
		Notes:          req.Notes,
	}
	if req.Status != nil {
		status := sample.Status(*req.Status)
		cmd.Status = &status
	}

	claims := callerClaims(c)
	collection, err := h.status.UpdateCollection(c.Request.Context(), id, cmd, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, collection)
}

func (h *SampleHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	collection, err := h.status.GetCollection(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, collection)
}

func (h *SampleHandler) List(c *gin.Context) {
	q := &sample.ListQuery{
		PatientID: parseQueryUUID(c, "patientId"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := sample.Status(raw)
		q.Status = &status
	}

	result, err := h.status.ListCollections(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
