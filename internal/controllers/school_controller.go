package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"school_transport/internal/audit"
	"school_transport/internal/models"
)

type SchoolController struct {
	db    *gorm.DB
	audit Auditor
}

func NewSchoolController(db *gorm.DB, a Auditor) *SchoolController {
	return &SchoolController{db: db, audit: a}
}

type schoolInput struct {
	Name        string   `json:"name" binding:"required"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	ContactName string   `json:"contact_name"`
	YearGroups  []string `json:"year_groups"`
}

func (sc *SchoolController) List(c *gin.Context) {
	var schools []models.School
	if err := sc.db.Order("name").Find(&schools).Error; err != nil {
		storeError(c, "schools", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schools})
}

func (sc *SchoolController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var s models.School
	if err := sc.db.Preload("Routes").First(&s, id).Error; err != nil {
		storeError(c, "school", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s})
}

func (sc *SchoolController) Create(c *gin.Context) {
	var input schoolInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := models.School{
		Name:        input.Name,
		Address:     input.Address,
		Phone:       input.Phone,
		ContactName: input.ContactName,
		YearGroups:  pq.StringArray(input.YearGroups),
	}
	if err := sc.db.Create(&s).Error; err != nil {
		storeError(c, "school", err)
		return
	}
	recordAudit(sc.audit, c, "schools", s.ID, audit.Create)
	c.JSON(http.StatusCreated, gin.H{"data": s})
}

func (sc *SchoolController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input schoolInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var s models.School
	if err := sc.db.First(&s, id).Error; err != nil {
		storeError(c, "school", err)
		return
	}
	s.Name, s.Address, s.Phone, s.ContactName = input.Name, input.Address, input.Phone, input.ContactName
	s.YearGroups = pq.StringArray(input.YearGroups)
	if err := sc.db.Save(&s).Error; err != nil {
		storeError(c, "school", err)
		return
	}
	recordAudit(sc.audit, c, "schools", s.ID, audit.Update)
	c.JSON(http.StatusOK, gin.H{"data": s})
}

func (sc *SchoolController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := sc.db.Delete(&models.School{}, id)
	if res.Error != nil {
		storeError(c, "school", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "school not found"})
		return
	}
	recordAudit(sc.audit, c, "schools", id, audit.Delete)
	c.Status(http.StatusNoContent)
}
