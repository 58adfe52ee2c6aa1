package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"school_transport/internal/audit"
	"school_transport/internal/expiry"
	"school_transport/internal/models"
)

type VehicleController struct {
	db    *gorm.DB
	audit Auditor
}

func NewVehicleController(db *gorm.DB, a Auditor) *VehicleController {
	return &VehicleController{db: db, audit: a}
}

type vehicleInput struct {
	Registration    *string `json:"registration"`
	FleetNumber     *string `json:"fleet_number"`
	Make            *string `json:"make"`
	Model           *string `json:"model"`
	Seats           *int    `json:"seats" binding:"omitempty,min=1"`
	WheelchairSeats *int    `json:"wheelchair_seats" binding:"omitempty,min=0"`
	MOTExpiry       *string `json:"mot_expiry"`
	InsuranceExpiry *string `json:"insurance_expiry"`
	TaxExpiry       *string `json:"tax_expiry"`
	InService       *bool   `json:"in_service"`
}

func (in vehicleInput) apply(v *models.Vehicle) error {
	setString(&v.Registration, in.Registration)
	setString(&v.FleetNumber, in.FleetNumber)
	setString(&v.Make, in.Make)
	setString(&v.VehicleModel, in.Model)
	if in.Seats != nil {
		v.Seats = *in.Seats
	}
	if in.WheelchairSeats != nil {
		v.WheelchairSeats = *in.WheelchairSeats
	}
	for _, d := range []struct {
		dst **time.Time
		v   *string
	}{{&v.MOTExpiry, in.MOTExpiry}, {&v.InsuranceExpiry, in.InsuranceExpiry}, {&v.TaxExpiry, in.TaxExpiry}} {
		if err := setDate(d.dst, d.v); err != nil {
			return err
		}
	}
	if in.InService != nil {
		v.InService = *in.InService
	}
	return nil
}

type vehicleView struct {
	models.Vehicle
	MOTStatus       expiry.Status `json:"mot_status"`
	InsuranceStatus expiry.Status `json:"insurance_status"`
	TaxStatus       expiry.Status `json:"tax_status"`
}

func viewVehicle(v models.Vehicle) vehicleView {
	now := timeNow()
	return vehicleView{
		Vehicle:         v,
		MOTStatus:       expiry.Classify(v.MOTExpiry, now),
		InsuranceStatus: expiry.Classify(v.InsuranceExpiry, now),
		TaxStatus:       expiry.Classify(v.TaxExpiry, now),
	}
}

func (vc *VehicleController) List(c *gin.Context) {
	var rows []models.Vehicle
	q := vc.db.Order("registration")
	if c.Query("in_service") == "true" {
		q = q.Where("in_service")
	}
	if err := q.Find(&rows).Error; err != nil {
		storeError(c, "vehicles", err)
		return
	}
	out := make([]vehicleView, 0, len(rows))
	for _, v := range rows {
		out = append(out, viewVehicle(v))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (vc *VehicleController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var v models.Vehicle
	if err := vc.db.Preload("Documents").First(&v, id).Error; err != nil {
		storeError(c, "vehicle", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": viewVehicle(v)})
}

func (vc *VehicleController) Create(c *gin.Context) {
	var input vehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Registration == nil || *input.Registration == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "registration is required"})
		return
	}
	// New vehicles go straight into service unless in_service is sent as false.
	v := models.Vehicle{InService: true}
	if err := input.apply(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}
	if err := vc.db.Create(&v).Error; err != nil {
		storeError(c, "vehicle", err)
		return
	}
	recordAudit(vc.audit, c, "vehicles", v.ID, audit.Create)
	c.JSON(http.StatusCreated, gin.H{"data": viewVehicle(v)})
}

func (vc *VehicleController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input vehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var v models.Vehicle
	if err := vc.db.First(&v, id).Error; err != nil {
		storeError(c, "vehicle", err)
		return
	}
	if err := input.apply(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}
	if err := vc.db.Save(&v).Error; err != nil {
		storeError(c, "vehicle", err)
		return
	}
	recordAudit(vc.audit, c, "vehicles", v.ID, audit.Update)
	c.JSON(http.StatusOK, gin.H{"data": viewVehicle(v)})
}

// SetServiceStatus flips in_service, e.g. after a breakdown is fixed.
func (vc *VehicleController) SetServiceStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		InService *bool `json:"in_service" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	// Only in_service is written.
	res := vc.db.Model(&models.Vehicle{}).Where("id = ?", id).Update("in_service", *payload.InService)
	if res.Error != nil {
		storeError(c, "vehicle", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	recordAudit(vc.audit, c, "vehicles", id, audit.Update)
	c.JSON(http.StatusOK, gin.H{"in_service": *payload.InService})
}

func (vc *VehicleController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := vc.db.Delete(&models.Vehicle{}, id)
	if res.Error != nil {
		storeError(c, "vehicle", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	recordAudit(vc.audit, c, "vehicles", id, audit.Delete)
	c.Status(http.StatusNoContent)
}
