package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"school_transport/internal/audit"
	"school_transport/internal/expiry"
	"school_transport/internal/models"
)

type DriverController struct {
	db    *gorm.DB
	audit Auditor
}

func NewDriverController(db *gorm.DB, a Auditor) *DriverController {
	return &DriverController{db: db, audit: a}
}

// driverInput is shared by create and update; update only applies the
// fields that are present.
type driverInput struct {
	EmployeeID      *string `json:"employee_id"`
	FirstName       *string `json:"first_name"`
	Surname         *string `json:"surname"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	LicenseNumber   *string `json:"license_number"`
	LicenseExpiry   *string `json:"license_expiry"`
	DBSNumber       *string `json:"dbs_number"`
	DBSExpiry       *string `json:"dbs_expiry"`
	AssignedRouteID *uint   `json:"assigned_route_id"`
	Active          *bool   `json:"active"`
}

func (in driverInput) apply(d *models.Driver) error {
	setString(&d.EmployeeID, in.EmployeeID)
	setString(&d.FirstName, in.FirstName)
	setString(&d.Surname, in.Surname)
	setString(&d.Phone, in.Phone)
	setString(&d.Email, in.Email)
	setString(&d.LicenseNumber, in.LicenseNumber)
	setString(&d.DBSNumber, in.DBSNumber)
	if err := setDate(&d.LicenseExpiry, in.LicenseExpiry); err != nil {
		return err
	}
	if err := setDate(&d.DBSExpiry, in.DBSExpiry); err != nil {
		return err
	}
	if in.AssignedRouteID != nil {
		if *in.AssignedRouteID == 0 {
			d.AssignedRouteID = nil
		} else {
			d.AssignedRouteID = in.AssignedRouteID
		}
	}
	if in.Active != nil {
		d.Active = *in.Active
	}
	return nil
}

// driverView adds expiry badges to the stored driver.
type driverView struct {
	models.Driver
	LicenseStatus expiry.Status `json:"license_status"`
	DBSStatus     expiry.Status `json:"dbs_status"`
}

func viewDriver(d models.Driver) driverView {
	now := timeNow()
	return driverView{
		Driver:        d,
		LicenseStatus: expiry.Classify(d.LicenseExpiry, now),
		DBSStatus:     expiry.Classify(d.DBSExpiry, now),
	}
}

func (dc *DriverController) List(c *gin.Context) {
	var drivers []models.Driver
	q := dc.db.Preload("AssignedRoute").Order("surname, first_name")
	if c.Query("active") == "true" {
		q = q.Where("active")
	}
	if err := q.Find(&drivers).Error; err != nil {
		storeError(c, "drivers", err)
		return
	}
	out := make([]driverView, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, viewDriver(d))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (dc *DriverController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var d models.Driver
	if err := dc.db.Preload("AssignedRoute.Vehicle").Preload("Documents").First(&d, id).Error; err != nil {
		storeError(c, "driver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": viewDriver(d)})
}

func (dc *DriverController) Create(c *gin.Context) {
	// 1) Bind the payload. Pointer fields let us tell "missing" from "empty".
	var input driverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.EmployeeID == nil || *input.EmployeeID == "" || input.FirstName == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id and first_name are required"})
		return
	}

	// 2) New drivers start active with a fresh QR token unless the payload says otherwise.
	d := models.Driver{Active: true, QRToken: uuid.NewString()}
	if err := input.apply(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}
	// 3) Persist. A duplicate employee_id or token comes back as 409.
	if err := dc.db.Create(&d).Error; err != nil {
		storeError(c, "driver", err)
		return
	}
	recordAudit(dc.audit, c, "drivers", d.ID, audit.Create)
	c.JSON(http.StatusCreated, gin.H{"data": viewDriver(d)})
}

func (dc *DriverController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input driverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Load the current row, then overlay only the fields that were sent.
	var d models.Driver
	if err := dc.db.First(&d, id).Error; err != nil {
		storeError(c, "driver", err)
		return
	}
	if err := input.apply(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}
	if err := dc.db.Save(&d).Error; err != nil {
		storeError(c, "driver", err)
		return
	}
	recordAudit(dc.audit, c, "drivers", d.ID, audit.Update)
	c.JSON(http.StatusOK, gin.H{"data": viewDriver(d)})
}

func (dc *DriverController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := dc.db.Delete(&models.Driver{}, id)
	if res.Error != nil {
		storeError(c, "driver", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "driver not found"})
		return
	}
	recordAudit(dc.audit, c, "drivers", id, audit.Delete)
	c.Status(http.StatusNoContent)
}

// RotateQRToken issues a fresh token; the old one stops resolving at once.
func (dc *DriverController) RotateQRToken(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	// Overwrite in place; the kiosk looks tokens up fresh on every scan.
	token := uuid.NewString()
	res := dc.db.Model(&models.Driver{}).Where("id = ?", id).Update("qr_token", token)
	if res.Error != nil {
		storeError(c, "driver", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "driver not found"})
		return
	}
	logrus.WithField("driver_id", id).Info("qr token rotated")
	recordAudit(dc.audit, c, "drivers", id, audit.Rotate)
	c.JSON(http.StatusOK, gin.H{"qr_token": token})
}
