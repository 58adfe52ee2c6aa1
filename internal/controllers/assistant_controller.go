package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"school_transport/internal/audit"
	"school_transport/internal/expiry"
	"school_transport/internal/models"
)

type AssistantController struct {
	db    *gorm.DB
	audit Auditor
}

func NewAssistantController(db *gorm.DB, a Auditor) *AssistantController {
	return &AssistantController{db: db, audit: a}
}

type assistantInput struct {
	EmployeeID      *string   `json:"employee_id"`
	FirstName       *string   `json:"first_name"`
	Surname         *string   `json:"surname"`
	Phone           *string   `json:"phone"`
	DBSNumber       *string   `json:"dbs_number"`
	DBSExpiry       *string   `json:"dbs_expiry"`
	FirstAidExpiry  *string   `json:"first_aid_expiry"`
	Certifications  *[]string `json:"certifications"`
	AssignedRouteID *uint     `json:"assigned_route_id"`
}

func (in assistantInput) apply(a *models.PassengerAssistant) error {
	setString(&a.EmployeeID, in.EmployeeID)
	setString(&a.FirstName, in.FirstName)
	setString(&a.Surname, in.Surname)
	setString(&a.Phone, in.Phone)
	setString(&a.DBSNumber, in.DBSNumber)
	if err := setDate(&a.DBSExpiry, in.DBSExpiry); err != nil {
		return err
	}
	if err := setDate(&a.FirstAidExpiry, in.FirstAidExpiry); err != nil {
		return err
	}
	if in.Certifications != nil {
		a.Certifications = pq.StringArray(*in.Certifications)
	}
	if in.AssignedRouteID != nil {
		if *in.AssignedRouteID == 0 {
			a.AssignedRouteID = nil
		} else {
			a.AssignedRouteID = in.AssignedRouteID
		}
	}
	return nil
}

type assistantView struct {
	models.PassengerAssistant
	DBSStatus      expiry.Status `json:"dbs_status"`
	FirstAidStatus expiry.Status `json:"first_aid_status"`
}

func viewAssistant(a models.PassengerAssistant) assistantView {
	now := timeNow()
	return assistantView{
		PassengerAssistant: a,
		DBSStatus:          expiry.Classify(a.DBSExpiry, now),
		FirstAidStatus:     expiry.Classify(a.FirstAidExpiry, now),
	}
}

func (ac *AssistantController) List(c *gin.Context) {
	var rows []models.PassengerAssistant
	if err := ac.db.Order("surname, first_name").Find(&rows).Error; err != nil {
		storeError(c, "assistants", err)
		return
	}
	out := make([]assistantView, 0, len(rows))
	for _, a := range rows {
		out = append(out, viewAssistant(a))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (ac *AssistantController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var a models.PassengerAssistant
	if err := ac.db.Preload("Documents").First(&a, id).Error; err != nil {
		storeError(c, "assistant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": viewAssistant(a)})
}

func (ac *AssistantController) Create(c *gin.Context) {
	var input assistantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.EmployeeID == nil || *input.EmployeeID == "" || input.FirstName == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id and first_name are required"})
		return
	}
	var a models.PassengerAssistant
	if err := input.apply(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}
	if err := ac.db.Create(&a).Error; err != nil {
		storeError(c, "assistant", err)
		return
	}
	recordAudit(ac.audit, c, "passenger_assistants", a.ID, audit.Create)
	c.JSON(http.StatusCreated, gin.H{"data": viewAssistant(a)})
}

func (ac *AssistantController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input assistantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var a models.PassengerAssistant
	if err := ac.db.First(&a, id).Error; err != nil {
		storeError(c, "assistant", err)
		return
	}
	if err := input.apply(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}
	if err := ac.db.Save(&a).Error; err != nil {
		storeError(c, "assistant", err)
		return
	}
	recordAudit(ac.audit, c, "passenger_assistants", a.ID, audit.Update)
	c.JSON(http.StatusOK, gin.H{"data": viewAssistant(a)})
}

func (ac *AssistantController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := ac.db.Delete(&models.PassengerAssistant{}, id)
	if res.Error != nil {
		storeError(c, "assistant", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "assistant not found"})
		return
	}
	recordAudit(ac.audit, c, "passenger_assistants", id, audit.Delete)
	c.Status(http.StatusNoContent)
}
