package routes

import (
	"github.com/gin-gonic/gin"

	"school_transport/internal/middleware"
)

func APIRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")
	{
		api.POST("/tardiness/report", middleware.RateLimit(d.Counter, "tardiness", d.ScanLimit, d.ScanWindow), d.Tardiness.Report)
		api.POST("/audit", d.Auth.RequireAuth(), d.AuditLog.Record)
	}
}
