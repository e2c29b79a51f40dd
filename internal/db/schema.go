package db

import "database/sql"

// Core tables with the uniqueness keys the services depend on:
//   - uniq_route_pair guards reverse-route lookup-or-create
//   - uniq_trip_departure is the trip generation idempotence key
//   - uniq_trip_seat_hold backs the at-most-one-owner-per-seat guarantee
var coreDDL = map[string]string{
	"users": `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	username VARCHAR(100) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(100) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(50) NOT NULL DEFAULT 'staff',
	status VARCHAR(50) NOT NULL DEFAULT 'active',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_email (email),
	UNIQUE KEY uniq_username (username)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"routes": `
CREATE TABLE IF NOT EXISTS routes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	origin VARCHAR(255) NOT NULL,
	destination VARCHAR(255) NOT NULL,
	distance_km DOUBLE NOT NULL DEFAULT 0,
	estimated_minutes INT NOT NULL DEFAULT 0,
	base_fare BIGINT NOT NULL DEFAULT 0,
	origin_lat DOUBLE NULL,
	origin_lng DOUBLE NULL,
	dest_lat DOUBLE NULL,
	dest_lng DOUBLE NULL,
	waypoints TEXT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_route_pair (origin, destination)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"buses": `
CREATE TABLE IF NOT EXISTS buses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	code VARCHAR(100) NOT NULL,
	capacity INT NOT NULL,
	has_toilet TINYINT(1) NOT NULL DEFAULT 0,
	amenities TEXT NULL,
	rating DOUBLE NOT NULL DEFAULT 0,
	driver_id BIGINT NULL,
	UNIQUE KEY uniq_bus_code (code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"daily_templates": `
CREATE TABLE IF NOT EXISTS daily_templates (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	route_id BIGINT NOT NULL,
	departure_time VARCHAR(5) NOT NULL,
	price BIGINT NOT NULL,
	active TINYINT(1) NOT NULL DEFAULT 1,
	is_return_trip TINYINT(1) NOT NULL DEFAULT 0,
	return_template_id BIGINT NULL,
	KEY idx_template_bus (bus_id),
	KEY idx_template_route (route_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"trip_instances": `
CREATE TABLE IF NOT EXISTS trip_instances (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	route_id BIGINT NOT NULL,
	departure_at DATETIME NOT NULL,
	arrival_at DATETIME NOT NULL,
	price BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
	delay_minutes INT NOT NULL DEFAULT 0,
	return_trip_id BIGINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_trip_departure (bus_id, route_id, departure_at),
	KEY idx_trip_departure (departure_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"trip_seats": `
CREATE TABLE IF NOT EXISTS trip_seats (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	seat_code VARCHAR(10) NOT NULL,
	seat_row INT NOT NULL,
	seat_col VARCHAR(5) NOT NULL,
	position VARCHAR(10) NOT NULL,
	UNIQUE KEY uniq_trip_seat (trip_id, seat_code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"bookings": `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	code VARCHAR(64) NOT NULL,
	trip_id BIGINT NOT NULL,
	passenger_id BIGINT NOT NULL,
	passenger_name VARCHAR(255) NOT NULL DEFAULT '',
	passenger_phone VARCHAR(100) NOT NULL DEFAULT '',
	total BIGINT NOT NULL,
	discount BIGINT NOT NULL DEFAULT 0,
	points_used BIGINT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	free_cancel TINYINT(1) NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_booking_code (code),
	KEY idx_booking_trip (trip_id),
	KEY idx_booking_passenger (passenger_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"seat_holds": `
CREATE TABLE IF NOT EXISTS seat_holds (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	seat_code VARCHAR(10) NOT NULL,
	booking_id BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_trip_seat_hold (trip_id, seat_code),
	KEY idx_hold_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"pricing_rules": `
CREATE TABLE IF NOT EXISTS pricing_rules (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	rule_type VARCHAR(20) NOT NULL,
	multiplier DOUBLE NOT NULL,
	min_days_before INT NULL,
	min_hours_before INT NULL,
	start_date DATE NULL,
	end_date DATE NULL,
	route_id BIGINT NULL,
	active TINYINT(1) NOT NULL DEFAULT 1
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"loyalty_accounts": `
CREATE TABLE IF NOT EXISTS loyalty_accounts (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	passenger_id BIGINT NOT NULL,
	points BIGINT NOT NULL DEFAULT 0,
	tier VARCHAR(10) NOT NULL DEFAULT 'BRONZE',
	total_earned BIGINT NOT NULL DEFAULT 0,
	UNIQUE KEY uniq_loyalty_passenger (passenger_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	"loyalty_transactions": `
CREATE TABLE IF NOT EXISTS loyalty_transactions (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	account_id BIGINT NOT NULL,
	kind VARCHAR(10) NOT NULL,
	points BIGINT NOT NULL,
	description VARCHAR(255) NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_loyalty_account (account_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
}

// EnsureCoreTables creates any missing table. Safe to call on every start.
func EnsureCoreTables(dbc *sql.DB) error {
	for table, ddl := range coreDDL {
		if HasTable(dbc, table) {
			continue
		}
		if _, err := dbc.Exec(ddl); err != nil {
			return err
		}
	}

	// installs that predate the delay workflow miss the flag column
	if !HasColumn(dbc, "bookings", "free_cancel") {
		if _, err := dbc.Exec(`ALTER TABLE bookings ADD COLUMN free_cancel TINYINT(1) NOT NULL DEFAULT 0`); err != nil {
			return err
		}
	}
	return nil
}
