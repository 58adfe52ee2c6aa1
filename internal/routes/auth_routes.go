package routes

import (
	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine, d Deps) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", d.Users.Signup)
		auth.POST("/login", d.Users.Login)
	}
}
