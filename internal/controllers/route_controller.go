package controllers

import (
	"encoding/binary"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"school_transport/internal/audit"
	"school_transport/internal/models"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

type RouteController struct {
	db    *gorm.DB
	audit Auditor
}

func NewRouteController(db *gorm.DB, a Auditor) *RouteController {
	return &RouteController{db: db, audit: a}
}

// RouteResponse mirrors models.Route with the geometry as GeoJSON.
type RouteResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	SchoolID    *uint              `json:"school_id"`
	School      *models.School     `json:"school,omitempty"`
	VehicleID   *uint              `json:"vehicle_id"`
	Vehicle     *models.Vehicle    `json:"vehicle,omitempty"`
	Geometry    string             `json:"geometry,omitempty"`
	Stops       []models.RouteStop `json:"stops"`
}

func toRouteResponse(route models.Route) RouteResponse {
	jsonGeom, err := convertWKBToGeoJSON(route.Geometry)
	if err != nil {
		logrus.WithError(err).WithField("route_id", route.ID).Warn("stored route geometry is not valid WKB")
	}
	stops := route.Stops
	if stops == nil {
		stops = []models.RouteStop{}
	}
	return RouteResponse{
		ID:          route.ID,
		CreatedAt:   route.CreatedAt,
		UpdatedAt:   route.UpdatedAt,
		Name:        route.Name,
		Description: route.Description,
		SchoolID:    route.SchoolID,
		School:      route.School,
		VehicleID:   route.VehicleID,
		Vehicle:     route.Vehicle,
		Geometry:    jsonGeom,
		Stops:       stops,
	}
}

// parseAndConvertGeometry parses a GeoJSON LineString and returns WKB bytes.
func parseAndConvertGeometry(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	if _, ok := g.(*geom.LineString); !ok {
		return nil, errNotLineString
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type stopInput struct {
	Name     string  `json:"name" binding:"required"`
	Seq      int     `json:"seq" binding:"required"`
	Lat      float64 `json:"lat" binding:"required"`
	Lng      float64 `json:"lng" binding:"required"`
	PickupAM string  `json:"pickup_am"`
	DropPM   string  `json:"drop_pm"`
}

type routeInput struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	SchoolID    *uint       `json:"school_id"`
	VehicleID   *uint       `json:"vehicle_id"`
	Geometry    string      `json:"geometry"`
	Stops       []stopInput `json:"stops" binding:"dive"`
}

func (rc *RouteController) load(id uint) (models.Route, error) {
	var route models.Route
	err := rc.db.
		Preload("School").
		Preload("Vehicle").
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		First(&route, id).Error
	return route, err
}

func (rc *RouteController) Create(c *gin.Context) {
	var input routeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	// 1) GeoJSON in, WKB stored.
	wkbGeom, err := parseAndConvertGeometry(input.Geometry)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid geometry: " + err.Error()})
		return
	}

	// 2) Route and its stops are written together or not at all.
	route := models.Route{
		Name:        input.Name,
		Description: input.Description,
		SchoolID:    input.SchoolID,
		VehicleID:   input.VehicleID,
		Geometry:    wkbGeom,
	}
	err = rc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&route).Error; err != nil {
			return err
		}
		return replaceStops(tx, route.ID, input.Stops)
	})
	if err != nil {
		storeError(c, "route", err)
		return
	}

	// 3) Reload with School, Vehicle and Stops for the response.
	recordAudit(rc.audit, c, "routes", route.ID, audit.Create)
	route, _ = rc.load(route.ID)
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(route)})
}

func (rc *RouteController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input routeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	wkbGeom, err := parseAndConvertGeometry(input.Geometry)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid geometry: " + err.Error()})
		return
	}

	var route models.Route
	if err := rc.db.First(&route, id).Error; err != nil {
		storeError(c, "route", err)
		return
	}
	route.Name = input.Name
	route.Description = input.Description
	route.SchoolID = input.SchoolID
	route.VehicleID = input.VehicleID
	if wkbGeom != nil {
		route.Geometry = wkbGeom
	}
	err = rc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&route).Error; err != nil {
			return err
		}
		if input.Stops == nil {
			return nil
		}
		return replaceStops(tx, route.ID, input.Stops)
	})
	if err != nil {
		storeError(c, "route", err)
		return
	}

	recordAudit(rc.audit, c, "routes", route.ID, audit.Update)
	route, _ = rc.load(route.ID)
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// ReplaceStops swaps the whole stop list of a route.
func (rc *RouteController) ReplaceStops(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Stops []stopInput `json:"stops" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := rc.load(id); err != nil {
		storeError(c, "route", err)
		return
	}
	if err := rc.db.Transaction(func(tx *gorm.DB) error {
		return replaceStops(tx, id, input.Stops)
	}); err != nil {
		storeError(c, "route stops", err)
		return
	}
	recordAudit(rc.audit, c, "routes", id, audit.Update)
	route, _ := rc.load(id)
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

func replaceStops(tx *gorm.DB, routeID uint, in []stopInput) error {
	if err := tx.Unscoped().Where("route_id = ?", routeID).Delete(&models.RouteStop{}).Error; err != nil {
		return err
	}
	if len(in) == 0 {
		return nil
	}
	stops := make([]models.RouteStop, 0, len(in))
	for _, s := range in {
		stops = append(stops, models.RouteStop{
			Name: s.Name, Seq: s.Seq, Lat: s.Lat, Lng: s.Lng,
			PickupAM: s.PickupAM, DropPM: s.DropPM, RouteID: routeID,
		})
	}
	return tx.Create(&stops).Error
}

func (rc *RouteController) List(c *gin.Context) {
	var routes []models.Route
	q := rc.db.Preload("School").Preload("Vehicle").
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Order("name")
	if sid := c.Query("school_id"); sid != "" {
		q = q.Where("school_id = ?", sid)
	}
	if err := q.Find(&routes).Error; err != nil {
		storeError(c, "routes", err)
		return
	}
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

func (rc *RouteController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, err := rc.load(id)
	if err != nil {
		storeError(c, "route", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

func (rc *RouteController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := rc.db.Delete(&models.Route{}, id)
	if res.Error != nil {
		storeError(c, "route", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return
	}
	recordAudit(rc.audit, c, "routes", id, audit.Delete)
	c.Status(http.StatusNoContent)
}
