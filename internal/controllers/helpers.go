package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"school_transport/internal/audit"
	"school_transport/internal/middleware"
	"school_transport/internal/repository"
)

// Auditor takes audit entries without blocking.
type Auditor interface {
	Record(audit.Entry)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// storeError maps a gorm error onto the response.
func storeError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case repository.IsUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	default:
		logrus.WithError(err).WithField("entity", what).Error("database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
	}
}

func recordAudit(a Auditor, c *gin.Context, table string, id uint, action audit.Action) {
	if a == nil {
		return
	}
	a.Record(audit.Entry{
		TableName: table,
		RecordID:  strconv.FormatUint(uint64(id), 10),
		Action:    action,
		ActorID:   middleware.ActorID(c),
		At:        time.Now(),
	})
}

// parseDate accepts YYYY-MM-DD; empty means unset.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var errSignupClosed = errors.New("signup closed")

var timeNow = time.Now

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// setDate applies a YYYY-MM-DD value; an empty string clears the date.
func setDate(dst **time.Time, v *string) error {
	if v == nil {
		return nil
	}
	t, err := parseDate(*v)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

var errNotLineString = errors.New("geometry must be a LineString")

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
