package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/server/handlers"
)

// Handlers groups every HTTP adapter the router wires.
type Handlers struct {
	Herd        *handlers.HerdHandler
	Import      *handlers.ImportHandler
	Export      *handlers.ExportHandler
	Order       *handlers.OrderHandler
	Vaccination *handlers.VaccinationHandler
	Insurance   *handlers.InsuranceHandler
	Report      *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api/v1")

	units := api.Group("/units")
	units.POST("", h.Herd.Create)
	units.GET("/:id", h.Herd.Get)
	units.POST("/:id/identify", h.Herd.Identify)
	units.POST("/:id/sick", h.Herd.MarkSick)
	units.POST("/:id/recover", h.Herd.MarkRecovered)
	units.POST("/:id/dead", h.Herd.MarkDead)
	units.POST("/eligible", h.Herd.FindEligible)

	imports := api.Group("/import-batches")
	imports.POST("", h.Import.CreateBatch)
	imports.POST("/:id/units", h.Import.AssignUnit)
	imports.DELETE("/:id/units/:unitId", h.Import.RemoveUnit)
	imports.POST("/:id/units/:unitId/confirm", h.Import.ConfirmUnit)
	imports.POST("/:id/confirm", h.Import.Confirm)
	imports.POST("/:id/cancel", h.Import.Cancel)

	packages := api.Group("/packages")
	packages.POST("", h.Export.CreatePackage)
	packages.POST("/:id/advance", h.Export.AdvancePackage)
	packages.POST("/:id/cancel", h.Export.CancelPackage)
	packages.POST("/:id/details", h.Export.AddDetail)
	packages.POST("/:id/export-batches", h.Export.CreateBatch)

	exports := api.Group("/export-batches")
	exports.POST("/:id/units", h.Export.AssignUnit)
	exports.DELETE("/:id/units/:unitId", h.Export.RemoveUnit)

	api.POST("/export-details/:detailId/handover", h.Export.ConfirmHandover)

	orders := api.Group("/orders")
	orders.POST("", h.Order.Create)
	orders.DELETE("/:id/units/:unitId", h.Order.RemoveUnit)

	api.POST("/order-requirements/:requirementId/units", h.Order.AssignUnit)
	api.POST("/order-details/:detailId/deliver", h.Order.ConfirmDelivery)

	vaccinations := api.Group("/vaccinations")
	vaccinations.POST("/batches", h.Vaccination.RecordBatch)
	vaccinations.POST("/batches/:id/complete", h.Vaccination.CompleteBatch)
	vaccinations.POST("/units/:unitId/singles", h.Vaccination.RecordSingle)
	vaccinations.POST("/units/:unitId/coverage", h.Vaccination.Coverage)

	claims := api.Group("/insurance-requests")
	claims.POST("", h.Insurance.Request)
	claims.POST("/:id/approve", h.Insurance.Approve)
	claims.POST("/:id/replacement", h.Insurance.AssignReplacement)
	claims.POST("/:id/complete", h.Insurance.Complete)
	claims.POST("/:id/reject", h.Insurance.Reject)
	claims.POST("/:id/cancel", h.Insurance.Cancel)

	reports := api.Group("/reports")
	reports.GET("/daily-summary", h.Report.DailySummary)
	reports.POST("/daily-summary/publish", h.Report.PublishDailySummary)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
