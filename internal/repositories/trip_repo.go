package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type TripRepo struct {
	DB *sql.DB
}

func (r TripRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, bus_id, route_id, departure_at, arrival_at, price, status, delay_minutes, return_trip_id`

func scanTrip(row interface{ Scan(...any) error }) (models.TripInstance, error) {
	var t models.TripInstance
	var status string
	err := row.Scan(&t.ID, &t.BusID, &t.RouteID, &t.DepartureAt, &t.ArrivalAt,
		&t.Price, &status, &t.DelayMinutes, &t.ReturnTripID)
	t.Status = domain.TripStatus(status)
	return t, err
}

func (r TripRepo) GetByID(id int64) (models.TripInstance, error) {
	if id <= 0 {
		return models.TripInstance{}, domain.ValidationError{Field: "trip_id", Msg: "id tidak valid"}
	}
	t, err := scanTrip(r.db().QueryRow(`SELECT `+tripColumns+` FROM trip_instances WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "trip", Err: err}
	}
	return t, err
}

// Create persists a trip instance together with its full seat map in one
// transaction: a trip row without its seats never becomes visible. The
// uniq_trip_departure key is the generation idempotence guard; a
// duplicate-key error becomes ConflictError so callers can treat it as
// "already generated".
func (r TripRepo) Create(t models.TripInstance, seats []models.Seat) (models.TripInstance, error) {
	tx, err := r.db().Begin()
	if err != nil {
		return t, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO trip_instances (bus_id, route_id, departure_at, arrival_at, price, status, delay_minutes)
		VALUES (?,?,?,?,?,?,0)`,
		t.BusID, t.RouteID, t.DepartureAt, t.ArrivalAt, t.Price, string(t.Status),
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return t, domain.ConflictError{Resource: "trip", Msg: "trip sudah ada untuk jadwal tersebut", Err: err}
		}
		return t, err
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return t, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO trip_seats (trip_id, seat_code, seat_row, seat_col, position)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		return t, err
	}
	defer stmt.Close()
	for _, s := range seats {
		if _, err := stmt.Exec(t.ID, s.Code, s.Row, s.Column, string(s.Position)); err != nil {
			return t, err
		}
	}
	return t, tx.Commit()
}

func (r TripRepo) ListSeats(tripID int64) ([]models.Seat, error) {
	rows, err := r.db().Query(`
		SELECT id, trip_id, seat_code, seat_row, seat_col, position
		FROM trip_seats WHERE trip_id=? ORDER BY id ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Seat{}
	for rows.Next() {
		var s models.Seat
		var pos string
		if err := rows.Scan(&s.ID, &s.TripID, &s.Code, &s.Row, &s.Column, &pos); err != nil {
			return out, err
		}
		s.Position = domain.SeatPosition(pos)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r TripRepo) ListUpcoming(limit int) ([]models.TripInstance, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db().Query(`
		SELECT `+tripColumns+` FROM trip_instances
		WHERE departure_at >= ? AND status IN ('SCHEDULED','IN_PROGRESS')
		ORDER BY departure_at ASC LIMIT ?`, time.Now(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TripInstance{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LinkReturnTrips sets both sides of a trip pair atomically; a half-linked
// pair never becomes visible.
func (r TripRepo) LinkReturnTrips(tripID, returnTripID int64) error {
	tx, err := r.db().Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE trip_instances SET return_trip_id=? WHERE id=?`, returnTripID, tripID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE trip_instances SET return_trip_id=? WHERE id=?`, tripID, returnTripID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r TripRepo) UpdateDelay(id int64, departureAt, arrivalAt time.Time, totalDelayMinutes int) error {
	res, err := r.db().Exec(`
		UPDATE trip_instances SET departure_at=?, arrival_at=?, delay_minutes=?
		WHERE id=?`, departureAt, arrivalAt, totalDelayMinutes, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

func (r TripRepo) UpdateStatus(id int64, status domain.TripStatus) error {
	res, err := r.db().Exec(`UPDATE trip_instances SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}
