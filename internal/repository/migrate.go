package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"school_transport/internal/models"
)

const activeSessionIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_route_sessions_one_active
ON route_sessions (driver_id, session_type)
WHERE ended_at IS NULL`

const startRouteSessionFn = `
CREATE OR REPLACE FUNCTION start_route_session(p_token text, p_session_type text)
RETURNS json LANGUAGE plpgsql AS $$
DECLARE
	v_type       text := upper(trim(p_session_type));
	v_driver_id  bigint;
	v_route_id   bigint;
	v_vehicle_id bigint;
	v_session_id bigint;
BEGIN
	IF v_type NOT IN ('AM', 'PM') THEN
		RETURN json_build_object('success', false, 'error', 'Invalid session type');
	END IF;

	SELECT id, assigned_route_id INTO v_driver_id, v_route_id
	FROM drivers
	WHERE qr_token = p_token AND deleted_at IS NULL AND active;
	IF NOT FOUND THEN
		RETURN json_build_object('success', false, 'error', 'Invalid QR token');
	END IF;

	IF EXISTS (
		SELECT 1 FROM route_sessions
		WHERE driver_id = v_driver_id AND session_type = v_type AND ended_at IS NULL
	) THEN
		RETURN json_build_object('success', false, 'error',
			format('An active %s session already exists', v_type));
	END IF;

	IF v_route_id IS NOT NULL THEN
		SELECT vehicle_id INTO v_vehicle_id FROM routes WHERE id = v_route_id;
	END IF;

	INSERT INTO route_sessions (driver_id, route_id, vehicle_id, session_type, session_date, started_at, created_at)
	VALUES (v_driver_id, v_route_id, v_vehicle_id, v_type, current_date, now(), now())
	RETURNING id INTO v_session_id;

	RETURN json_build_object('success', true, 'session_id', v_session_id,
		'message', format('%s session started', v_type));
EXCEPTION WHEN unique_violation THEN
	RETURN json_build_object('success', false, 'error',
		format('An active %s session already exists', v_type));
END;
$$`

const reportBreakdownFn = `
CREATE OR REPLACE FUNCTION report_vehicle_breakdown(p_session_id bigint, p_description text, p_location text)
RETURNS json LANGUAGE plpgsql AS $$
DECLARE
	v_vehicle_id   bigint;
	v_ended_at     timestamptz;
	v_breakdown_id bigint;
BEGIN
	SELECT vehicle_id, ended_at INTO v_vehicle_id, v_ended_at
	FROM route_sessions WHERE id = p_session_id;
	IF NOT FOUND THEN
		RETURN json_build_object('success', false, 'error', 'Route session not found');
	END IF;
	IF v_ended_at IS NOT NULL THEN
		RETURN json_build_object('success', false, 'error', 'Route session has already ended');
	END IF;

	INSERT INTO vehicle_breakdowns (route_session_id, vehicle_id, description, location, created_at)
	VALUES (p_session_id, v_vehicle_id, p_description, p_location, now())
	RETURNING id INTO v_breakdown_id;

	IF v_vehicle_id IS NOT NULL THEN
		UPDATE vehicles SET in_service = false, updated_at = now() WHERE id = v_vehicle_id;
	END IF;

	RETURN json_build_object('success', true, 'breakdown_id', v_breakdown_id);
END;
$$`

// Migrate creates the tables, then the partial index and SQL functions that
// AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.School{},
		&models.Vehicle{},
		&models.Route{},
		&models.RouteStop{},
		&models.Driver{},
		&models.PassengerAssistant{},
		&models.Document{},
		&models.DriverDocument{},
		&models.AssistantDocument{},
		&models.VehicleDocument{},
		&models.RouteSession{},
		&models.VehiclePreCheck{},
		&models.TardinessReport{},
		&models.VehicleBreakdown{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for name, stmt := range map[string]string{
		"idx_route_sessions_one_active": activeSessionIndex,
		"start_route_session":           startRouteSessionFn,
		"report_vehicle_breakdown":      reportBreakdownFn,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
		logrus.WithField("object", name).Debug("installed")
	}
	return nil
}
