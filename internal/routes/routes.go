package routes

import (
	"io"
	"net/http"
	"time"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/controllers"
	"school_transport/internal/middleware"
)

// Deps is everything the router hands out to handlers.
type Deps struct {
	Auth       *middleware.Auth
	Counter    middleware.Counter
	ScanLimit  int
	ScanWindow time.Duration
	LogWriter  io.Writer

	Users      *controllers.AuthController
	Drivers    *controllers.DriverController
	Assistants *controllers.AssistantController
	Vehicles   *controllers.VehicleController
	Schools    *controllers.SchoolController
	Routes     *controllers.RouteController
	Documents  *controllers.DocumentController
	Compliance *controllers.ComplianceController
	Kiosk      *controllers.KioskController
	Tardiness  *controllers.TardinessController
	AuditLog   *controllers.AuditController
	Live       *controllers.LiveController
	Files      *controllers.FileController
}

func SetupRouter(d Deps) *gin.Engine {
	if err := controllers.RegisterValidators(); err != nil {
		logrus.WithError(err).Fatal("register validators")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if d.LogWriter != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.LogWriter),
			ginlog.WithSkipPath([]string{"/healthz"}),
			ginlog.WithUTC(true),
		))
	}
	r.Use(middleware.CORS())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	AuthRoutes(r, d)
	AdminRoutes(r, d)
	KioskRoutes(r, d)
	APIRoutes(r, d)
	WebSocketRoutes(r, d)
	if d.Files != nil {
		r.GET("/files/:bucket/*key", d.Files.Serve)
	}
	return r
}
