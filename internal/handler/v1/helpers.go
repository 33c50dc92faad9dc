package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/catalog"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/prescription"
	"github.com/opdemr/orderflow/internal/domain/sample"
	"github.com/opdemr/orderflow/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, prescription.ErrPrescriptionNotFound),
		errors.Is(err, laborder.ErrOrderNotFound),
		errors.Is(err, pharmacyorder.ErrOrderNotFound),
		errors.Is(err, sample.ErrCollectionNotFound),
		errors.Is(err, billing.ErrBillNotFound),
		errors.Is(err, catalog.ErrLabTestNotFound),
		errors.Is(err, catalog.ErrPharmacyItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, pharmacyorder.ErrOrderExists),
		errors.Is(err, sample.ErrCollectionExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, billing.ErrBillAlreadyFinalized),
		errors.Is(err, laborder.ErrCancelPaidOrder),
		errors.Is(err, pharmacyorder.ErrCancelPaidOrder),
		errors.Is(err, prescription.ErrHasPaidBill):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "PAYMENT_FINALIZED",
		})

	case errors.Is(err, prescription.ErrPrescriptionNotActive),
		errors.Is(err, laborder.ErrInvalidStatus),
		errors.Is(err, laborder.ErrInvalidTransition),
		errors.Is(err, laborder.ErrNoOrdersCreated),
		errors.Is(err, pharmacyorder.ErrInvalidStatus),
		errors.Is(err, pharmacyorder.ErrInvalidTransition),
		errors.Is(err, pharmacyorder.ErrNoItems),
		errors.Is(err, pharmacyorder.ErrInvalidQuantity),
		errors.Is(err, sample.ErrInvalidStatus),
		errors.Is(err, sample.ErrInvalidTransition),
		errors.Is(err, sample.ErrCollectorRequired),
		errors.Is(err, sample.ErrOrderNotCompleted),
		errors.Is(err, billing.ErrInvalidPaymentStatus),
		errors.Is(err, billing.ErrTotalMismatch),
		errors.Is(err, billing.ErrNoItems):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func parseQueryUUID(c *gin.Context, key string) *uuid.UUID {
	if raw := c.Query(key); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return &id
		}
	}
	return nil
}
