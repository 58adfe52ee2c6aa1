package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school_transport/internal/audit"
	"school_transport/internal/middleware"
	"school_transport/internal/tardiness"
)

type TardinessController struct {
	reporter *tardiness.Reporter
}

func NewTardinessController(r *tardiness.Reporter) *TardinessController {
	return &TardinessController{reporter: r}
}

// Report files a lateness notice and answers {ok:true} or {error}.
func (tc *TardinessController) Report(c *gin.Context) {
	var rep tardiness.Report
	if err := c.ShouldBindJSON(&rep); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if _, err := tc.reporter.Report(c.Request.Context(), rep); err != nil {
		switch {
		case errors.Is(err, tardiness.ErrReasonRequired),
			errors.Is(err, tardiness.ErrInvalidReason),
			errors.Is(err, tardiness.ErrInvalidReport):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type AuditController struct {
	audit Auditor
}

func NewAuditController(a Auditor) *AuditController {
	return &AuditController{audit: a}
}

// Record accepts an audit entry and returns before it is written.
func (ac *AuditController) Record(c *gin.Context) {
	var e audit.Entry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if e.ActorID == nil {
		e.ActorID = middleware.ActorID(c)
	}
	ac.audit.Record(e)
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}
