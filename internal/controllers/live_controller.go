package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"school_transport/internal/live"
	"school_transport/internal/middleware"
)

// LiveController upgrades dashboard clients onto the session board. Browsers
// cannot set headers on a websocket handshake, so the JWT rides in ?token=.
type LiveController struct {
	hub  *live.Hub
	auth *middleware.Auth
}

func NewLiveController(hub *live.Hub, auth *middleware.Auth) *LiveController {
	return &LiveController{hub: hub, auth: auth}
}

func (lc *LiveController) Sessions(c *gin.Context) {
	claims, err := lc.auth.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	if claims.Role != middleware.RoleAdmin && claims.Role != middleware.RoleCoordinator {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	conn, err := live.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("live websocket upgrade failed")
		return
	}
	lc.hub.Register(conn)
}
