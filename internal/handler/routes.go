package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler for route registration
type Handlers struct {
	Readings *ReadingHandler
	Analysis *AnalysisHandler
	Reports  *ReportHandler
	Health   *HealthHandler
}

// RegisterRoutes mounts the API on r
func RegisterRoutes(r gin.IRouter, h Handlers) {
	r.GET("/health", h.Health.GetHealth)

	v1 := r.Group("/api/v1")
	{
		readings := v1.Group("/readings")
		readings.POST("", h.Readings.CreateReading)
		readings.GET("", h.Readings.ListReadings)
		readings.DELETE("", h.Readings.ClearReadings)
		readings.POST("/import", h.Readings.ImportReadings)
		readings.GET("/export", h.Readings.ExportReadings)
		readings.GET("/:id", h.Readings.GetReading)
		readings.PUT("/:id", h.Readings.UpdateReading)
		readings.DELETE("/:id", h.Readings.DeleteReading)

		v1.GET("/classify", h.Analysis.Classify)
		v1.GET("/analysis/summary", h.Analysis.Summary)

		v1.POST("/reports", h.Reports.GenerateReport)
		v1.GET("/reports", h.Reports.ListReports)
		v1.GET("/reports/:id", h.Reports.DownloadReport)
	}
}
