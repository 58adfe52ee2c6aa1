package routes

import (
	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	r.GET("/ws/sessions", d.Live.Sessions)
}
