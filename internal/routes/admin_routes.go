package routes

import (
	"github.com/gin-gonic/gin"

	"school_transport/internal/documents"
	"school_transport/internal/middleware"
)

func AdminRoutes(r *gin.Engine, d Deps) {
	admin := r.Group("/admin")
	admin.Use(d.Auth.RequireRole(middleware.RoleAdmin, middleware.RoleCoordinator))
	{
		admin.GET("/users", d.Auth.RequireRole(middleware.RoleAdmin), d.Users.ListUsers)
		admin.POST("/users", d.Auth.RequireRole(middleware.RoleAdmin), d.Users.CreateUser)

		admin.GET("/drivers", d.Drivers.List)
		admin.POST("/drivers", d.Drivers.Create)
		admin.GET("/drivers/:id", d.Drivers.Get)
		admin.PUT("/drivers/:id", d.Drivers.Update)
		admin.DELETE("/drivers/:id", d.Drivers.Delete)
		admin.POST("/drivers/:id/qr-token", d.Drivers.RotateQRToken)
		admin.GET("/drivers/:id/documents", d.Documents.List(documents.Drivers))
		admin.POST("/drivers/:id/documents", d.Documents.Upload(documents.Drivers))

		admin.GET("/assistants", d.Assistants.List)
		admin.POST("/assistants", d.Assistants.Create)
		admin.GET("/assistants/:id", d.Assistants.Get)
		admin.PUT("/assistants/:id", d.Assistants.Update)
		admin.DELETE("/assistants/:id", d.Assistants.Delete)
		admin.GET("/assistants/:id/documents", d.Documents.List(documents.Assistants))
		admin.POST("/assistants/:id/documents", d.Documents.Upload(documents.Assistants))

		admin.GET("/vehicles", d.Vehicles.List)
		admin.POST("/vehicles", d.Vehicles.Create)
		admin.GET("/vehicles/:id", d.Vehicles.Get)
		admin.PUT("/vehicles/:id", d.Vehicles.Update)
		admin.PATCH("/vehicles/:id/service", d.Vehicles.SetServiceStatus)
		admin.DELETE("/vehicles/:id", d.Vehicles.Delete)
		admin.GET("/vehicles/:id/documents", d.Documents.List(documents.Vehicles))
		admin.POST("/vehicles/:id/documents", d.Documents.Upload(documents.Vehicles))

		admin.GET("/schools", d.Schools.List)
		admin.POST("/schools", d.Schools.Create)
		admin.GET("/schools/:id", d.Schools.Get)
		admin.PUT("/schools/:id", d.Schools.Update)
		admin.DELETE("/schools/:id", d.Schools.Delete)

		admin.GET("/routes", d.Routes.List)
		admin.POST("/routes", d.Routes.Create)
		admin.GET("/routes/:id", d.Routes.Get)
		admin.PUT("/routes/:id", d.Routes.Update)
		admin.PUT("/routes/:id/stops", d.Routes.ReplaceStops)
		admin.DELETE("/routes/:id", d.Routes.Delete)

		admin.GET("/compliance", d.Compliance.Overview)
	}
}
