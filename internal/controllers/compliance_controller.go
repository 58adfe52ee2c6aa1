package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school_transport/internal/compliance"
)

type ComplianceController struct {
	source compliance.Source
}

func NewComplianceController(src compliance.Source) *ComplianceController {
	return &ComplianceController{source: src}
}

// Overview lists every dated item. ?status=EXPIRED,CRITICAL filters.
func (cc *ComplianceController) Overview(c *gin.Context) {
	ov, err := compliance.Load(c.Request.Context(), cc.source, timeNow())
	if err != nil {
		storeError(c, "compliance items", err)
		return
	}
	if f := c.QueryArray("status"); len(f) > 0 {
		ov.Items = filterStatus(ov.Items, f)
	}
	c.JSON(http.StatusOK, ov)
}

func filterStatus(items []compliance.Item, kinds []string) []compliance.Item {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		for _, part := range splitComma(k) {
			want[part] = true
		}
	}
	out := make([]compliance.Item, 0, len(items))
	for _, it := range items {
		if want[string(it.Kind)] {
			out = append(out, it)
		}
	}
	return out
}
