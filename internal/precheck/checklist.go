// Package precheck implements the AM vehicle safety checklist a driver
// completes before a route session may start.
package precheck

import "fmt"

// Field names one checklist item. Values match the vehicle_pre_checks columns.
type Field string

const (
	TyresOK            Field = "tyres_ok"
	LightsOK           Field = "lights_ok"
	IndicatorsOK       Field = "indicators_ok"
	BrakesOK           Field = "brakes_ok"
	MirrorsOK          Field = "mirrors_ok"
	WindscreenOK       Field = "windscreen_ok"
	WipersOK           Field = "wipers_ok"
	HornOK             Field = "horn_ok"
	SeatbeltsOK        Field = "seatbelts_ok"
	DoorsOK            Field = "doors_ok"
	EmergencyExitsOK   Field = "emergency_exits_ok"
	FirstAidKitOK      Field = "first_aid_kit_ok"
	FireExtinguisherOK Field = "fire_extinguisher_ok"
	FuelLevelOK        Field = "fuel_level_ok"
	OilLevelOK         Field = "oil_level_ok"
	CoolantOK          Field = "coolant_ok"
	WheelchairLiftOK   Field = "wheelchair_lift_ok"
	InteriorCleanOK    Field = "interior_clean_ok"
)

// Fields lists every checklist item in display order.
var Fields = []Field{
	TyresOK, LightsOK, IndicatorsOK, BrakesOK, MirrorsOK, WindscreenOK,
	WipersOK, HornOK, SeatbeltsOK, DoorsOK, EmergencyExitsOK, FirstAidKitOK,
	FireExtinguisherOK, FuelLevelOK, OilLevelOK, CoolantOK, WheelchairLiftOK,
	InteriorCleanOK,
}

// Checklist is the boolean half of a pre-check.
type Checklist struct {
	TyresOK            bool `json:"tyres_ok"`
	LightsOK           bool `json:"lights_ok"`
	IndicatorsOK       bool `json:"indicators_ok"`
	BrakesOK           bool `json:"brakes_ok"`
	MirrorsOK          bool `json:"mirrors_ok"`
	WindscreenOK       bool `json:"windscreen_ok"`
	WipersOK           bool `json:"wipers_ok"`
	HornOK             bool `json:"horn_ok"`
	SeatbeltsOK        bool `json:"seatbelts_ok"`
	DoorsOK            bool `json:"doors_ok"`
	EmergencyExitsOK   bool `json:"emergency_exits_ok"`
	FirstAidKitOK      bool `json:"first_aid_kit_ok"`
	FireExtinguisherOK bool `json:"fire_extinguisher_ok"`
	FuelLevelOK        bool `json:"fuel_level_ok"`
	OilLevelOK         bool `json:"oil_level_ok"`
	CoolantOK          bool `json:"coolant_ok"`
	WheelchairLiftOK   bool `json:"wheelchair_lift_ok"`
	InteriorCleanOK    bool `json:"interior_clean_ok"`
}

func (c *Checklist) ptr(f Field) (*bool, error) {
	switch f {
	case TyresOK:
		return &c.TyresOK, nil
	case LightsOK:
		return &c.LightsOK, nil
	case IndicatorsOK:
		return &c.IndicatorsOK, nil
	case BrakesOK:
		return &c.BrakesOK, nil
	case MirrorsOK:
		return &c.MirrorsOK, nil
	case WindscreenOK:
		return &c.WindscreenOK, nil
	case WipersOK:
		return &c.WipersOK, nil
	case HornOK:
		return &c.HornOK, nil
	case SeatbeltsOK:
		return &c.SeatbeltsOK, nil
	case DoorsOK:
		return &c.DoorsOK, nil
	case EmergencyExitsOK:
		return &c.EmergencyExitsOK, nil
	case FirstAidKitOK:
		return &c.FirstAidKitOK, nil
	case FireExtinguisherOK:
		return &c.FireExtinguisherOK, nil
	case FuelLevelOK:
		return &c.FuelLevelOK, nil
	case OilLevelOK:
		return &c.OilLevelOK, nil
	case CoolantOK:
		return &c.CoolantOK, nil
	case WheelchairLiftOK:
		return &c.WheelchairLiftOK, nil
	case InteriorCleanOK:
		return &c.InteriorCleanOK, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// Get returns the value of one item.
func (c Checklist) Get(f Field) (bool, error) {
	p, err := c.ptr(f)
	if err != nil {
		return false, err
	}
	return *p, nil
}

// Set assigns one item.
func (c *Checklist) Set(f Field, v bool) error {
	p, err := c.ptr(f)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Complete is the submit gate: every item must be ticked.
func (c Checklist) Complete() bool {
	for _, f := range Fields {
		if v, _ := c.Get(f); !v {
			return false
		}
	}
	return true
}

// Missing lists the unticked items in display order.
func (c Checklist) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if v, _ := c.Get(f); !v {
			out = append(out, f)
		}
	}
	return out
}
