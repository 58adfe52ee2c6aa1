package models

import (
	"gorm.io/gorm"
)

// RouteStop is a pickup or drop-off point along a route, ordered by Seq.
type RouteStop struct {
	gorm.Model

	Name     string  `json:"name" binding:"required"`
	Seq      int     `json:"seq" binding:"required"`
	Lat      float64 `json:"lat" binding:"required"`
	Lng      float64 `json:"lng" binding:"required"`
	PickupAM string  `json:"pickup_am"`
	DropPM   string  `json:"drop_pm"`

	RouteID uint `json:"route_id" gorm:"index"`
}
