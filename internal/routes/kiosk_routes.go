package routes

import (
	"github.com/gin-gonic/gin"

	"school_transport/internal/middleware"
)

// KioskRoutes is the unauthenticated driver surface; the QR token is the
// credential.
func KioskRoutes(r *gin.Engine, d Deps) {
	k := r.Group("/kiosk")
	{
		k.POST("/scan", middleware.RateLimit(d.Counter, "scan", d.ScanLimit, d.ScanWindow), d.Kiosk.Scan)
		k.GET("/previews/:handle", d.Kiosk.Preview)

		ws := k.Group("/:ws")
		ws.GET("", d.Kiosk.Show)
		ws.DELETE("", d.Kiosk.Close)
		ws.POST("/session", d.Kiosk.ChooseSession)

		pc := ws.Group("/precheck")
		pc.GET("", d.Kiosk.PreCheck)
		pc.POST("/toggle", d.Kiosk.Toggle)
		pc.POST("/notes", d.Kiosk.Notes)
		pc.POST("/recording/start", d.Kiosk.StartRecording)
		pc.POST("/recording/chunk", d.Kiosk.RecordingChunk)
		pc.POST("/recording/stop", d.Kiosk.StopRecording)
		pc.POST("/media", d.Kiosk.AddMedia)
		pc.DELETE("/media/:index", d.Kiosk.RemoveMedia)
		pc.POST("/submit", d.Kiosk.SubmitPreCheck)
		pc.POST("/cancel", d.Kiosk.CancelPreCheck)

		ws.POST("/sessions/:id/end", d.Kiosk.EndSession)
		ws.POST("/sessions/:id/breakdown", d.Kiosk.ReportBreakdown)
	}
}
