package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/service"
	"github.com/opdemr/orderflow/pkg/auth"
	"github.com/opdemr/orderflow/pkg/metrics"
)

type RouterDeps struct {
	Prescriptions *service.PrescriptionService
	Fanout        *service.FanoutService
	Status        *service.StatusService
	Billing       *service.BillingService
	Views         *service.ViewService
	Catalog       *service.CatalogService

	Verifier  *auth.Verifier
	Collector *metrics.Collector
	Logger    *zap.Logger
}

// RegisterRoutes mounts the versioned API. Everything under /api/v1
// requires a valid access token.
func RegisterRoutes(engine *gin.Engine, deps RouterDeps) {
	engine.Use(
		RequestID(),
		RequestLogger(deps.Logger),
		Metrics(deps.Collector),
		gin.Recovery(),
	)

	prescriptionHandler := NewPrescriptionHandler(deps.Prescriptions, deps.Views)
	labHandler := NewLabOrderHandler(deps.Fanout, deps.Status, deps.Billing, deps.Views, deps.Collector)
	pharmacyHandler := NewPharmacyHandler(deps.Fanout, deps.Status, deps.Billing, deps.Views, deps.Collector)
	sampleHandler := NewSampleHandler(deps.Status)
	billingHandler := NewBillingHandler(deps.Billing, deps.Collector)
	catalogHandler := NewCatalogHandler(deps.Catalog)

	api := engine.Group("/api/v1", Authenticate(deps.Verifier))

	prescriptions := api.Group("/prescriptions")
	{
		prescriptions.GET("", prescriptionHandler.List)
		prescriptions.GET("/:id", prescriptionHandler.Get)
		prescriptions.GET("/:id/complete", prescriptionHandler.GetComplete)
		prescriptions.DELETE("/:id", prescriptionHandler.Cancel)

		prescriptions.POST("/:id/lab-orders", labHandler.CreateBatch)
		prescriptions.POST("/:id/pharmacy-order", pharmacyHandler.Create)
	}

	labOrders := api.Group("/lab-orders")
	{
		labOrders.GET("", labHandler.List)
		labOrders.GET("/:id", labHandler.Get)
		labOrders.PUT("/:id/status", labHandler.UpdateStatus)
		labOrders.PUT("/:id/billing", labHandler.UpdateBilling)
		labOrders.POST("/:id/sample-collection", sampleHandler.Create)
	}

	pharmacyOrders := api.Group("/pharmacy-orders")
	{
		pharmacyOrders.GET("", pharmacyHandler.List)
		pharmacyOrders.GET("/:id", pharmacyHandler.Get)
		pharmacyOrders.PUT("/:id/status", pharmacyHandler.UpdateStatus)
		pharmacyOrders.PUT("/:id/billing", pharmacyHandler.UpdateBilling)
	}

	samples := api.Group("/sample-collections")
	{
		samples.GET("", sampleHandler.List)
		samples.GET("/:id", sampleHandler.Get)
		samples.PUT("/:id", sampleHandler.Update)
	}

	bills := api.Group("/bills")
	{
		bills.POST("", billingHandler.Create)
		bills.GET("", billingHandler.List)
		bills.GET("/:id", billingHandler.Get)
		bills.PUT("/:id/payment", billingHandler.UpdatePayment)
	}

	catalogGroup := api.Group("/catalog")
	{
		catalogGroup.GET("/lab-tests", catalogHandler.ListLabTests)
		catalogGroup.GET("/lab-tests/categories", catalogHandler.LabTestCategories)
		catalogGroup.GET("/lab-tests/:id", catalogHandler.GetLabTest)
		catalogGroup.GET("/pharmacy-items", catalogHandler.ListPharmacyItems)
		catalogGroup.GET("/pharmacy-items/:id", catalogHandler.GetPharmacyItem)
	}
}
