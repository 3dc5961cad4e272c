package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	intdb "schoolbus/internal/db"
)

// CoreTables are the tables the schedule endpoints read and write.
var CoreTables = []string{"drivers", "buses", "routes", "stops", "route_stops", "students", "trips", "trip_attendance"}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		username VARCHAR(60) NOT NULL UNIQUE,
		phone VARCHAR(30) NULL,
		password_hash VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS buses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		plate_number VARCHAR(20) NOT NULL,
		label VARCHAR(60) NULL
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stops (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		address VARCHAR(255) NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL
	)`,
	`CREATE TABLE IF NOT EXISTS route_stops (
		route_id BIGINT NOT NULL,
		stop_id BIGINT NOT NULL,
		stop_order INT NOT NULL,
		PRIMARY KEY (route_id, stop_id),
		UNIQUE KEY uq_route_stop_order (route_id, stop_order)
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		pickup_stop_id BIGINT NOT NULL,
		dropoff_stop_id BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		driver_id BIGINT NOT NULL,
		route_id BIGINT NULL,
		bus_id BIGINT NULL,
		trip_date DATE NOT NULL,
		session VARCHAR(16) NOT NULL,
		direction VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'scheduled',
		actual_start DATETIME NULL,
		actual_end DATETIME NULL,
		UNIQUE KEY uq_trip_shift (driver_id, trip_date, session, direction)
	)`,
	`CREATE TABLE IF NOT EXISTS trip_attendance (
		trip_id BIGINT NOT NULL,
		student_id BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		attended_at DATETIME NULL,
		PRIMARY KEY (trip_id, student_id),
		KEY idx_attendance_status (trip_id, status)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		phone TEXT NULL,
		password_hash TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS buses (
		id BIGSERIAL PRIMARY KEY,
		plate_number TEXT NOT NULL,
		label TEXT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stops (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NULL,
		latitude DOUBLE PRECISION NULL,
		longitude DOUBLE PRECISION NULL
	)`,
	`CREATE TABLE IF NOT EXISTS route_stops (
		route_id BIGINT NOT NULL,
		stop_id BIGINT NOT NULL,
		stop_order INT NOT NULL,
		PRIMARY KEY (route_id, stop_id),
		UNIQUE (route_id, stop_order)
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		pickup_stop_id BIGINT NOT NULL,
		dropoff_stop_id BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id BIGSERIAL PRIMARY KEY,
		driver_id BIGINT NOT NULL,
		route_id BIGINT NULL,
		bus_id BIGINT NULL,
		trip_date DATE NOT NULL,
		session TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		actual_start TIMESTAMPTZ NULL,
		actual_end TIMESTAMPTZ NULL,
		UNIQUE (driver_id, trip_date, session, direction)
	)`,
	`CREATE TABLE IF NOT EXISTS trip_attendance (
		trip_id BIGINT NOT NULL,
		student_id BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attended_at TIMESTAMPTZ NULL,
		PRIMARY KEY (trip_id, student_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_status ON trip_attendance (trip_id, status)`,
}

// InitSchema creates the core tables when they are missing.
func InitSchema(db *sql.DB, dialect intdb.Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	statements := mysqlSchema
	if dialect == intdb.Postgres {
		statements = postgresSchema
	}

	// MySQL commits DDL implicitly, so statements run one by one.
	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}
	return nil
}
