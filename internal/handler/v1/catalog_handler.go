package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/opdemr/orderflow/internal/domain/catalog"
	"github.com/opdemr/orderflow/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalogSvc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogSvc}
}

func (h *CatalogHandler) ListLabTests(c *gin.Context) {
	q := &catalog.ListLabTestsQuery{
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Search:      c.Query("search"),
		Page:        parseQueryInt(c, "page", 1),
		PageSize:    parseQueryInt(c, "pageSize", 20),
	}

	tests, total, err := h.catalog.ListLabTests(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"tests": tests, "totalCount": total})
}

func (h *CatalogHandler) GetLabTest(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	test, err := h.catalog.GetLabTest(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, test)
}

func (h *CatalogHandler) LabTestCategories(c *gin.Context) {
	categories, err := h.catalog.LabTestCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, categories)
}

func (h *CatalogHandler) ListPharmacyItems(c *gin.Context) {
	q := &catalog.ListPharmacyItemsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 20),
	}

	items, total, err := h.catalog.ListPharmacyItems(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"items": items, "totalCount": total})
}

func (h *CatalogHandler) GetPharmacyItem(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.catalog.GetPharmacyItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, item)
}
