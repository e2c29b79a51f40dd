package repositories

import (
	"database/sql"
	"errors"
	"strings"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `id, code, trip_id, passenger_id, passenger_name, passenger_phone,
	total, discount, points_used, status, free_cancel, created_at`

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(&b.ID, &b.Code, &b.TripID, &b.PassengerID, &b.PassengerName,
		&b.PassengerPhone, &b.Total, &b.Discount, &b.PointsUsed, &status,
		&b.FreeCancel, &b.CreatedAt)
	b.Status = domain.BookingStatus(status)
	return b, err
}

func (r BookingRepo) GetByID(id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "booking_id", Msg: "id tidak valid"}
	}
	b, err := scanBooking(r.db().QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return b, err
	}
	b.Seats, err = r.heldByBooking(b.ID)
	return b, err
}

func (r BookingRepo) heldByBooking(bookingID int64) ([]string, error) {
	rows, err := r.db().Query(`SELECT seat_code FROM seat_holds WHERE booking_id=? ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return out, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// HeldSeats lists the seat codes currently claimed on a trip. Holds exist
// only for live bookings; release removes them.
func (r BookingRepo) HeldSeats(tripID int64) ([]string, error) {
	rows, err := r.db().Query(`SELECT seat_code FROM seat_holds WHERE trip_id=? ORDER BY seat_code ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return out, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// Reserve writes the booking row and one hold per seat in a single
// transaction: either every seat is claimed or none is. Losing the
// uniq_trip_seat_hold race rolls everything back and surfaces
// SeatUnavailableError.
func (r BookingRepo) Reserve(b models.Booking) (models.Booking, error) {
	tx, err := r.db().Begin()
	if err != nil {
		return b, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO bookings (code, trip_id, passenger_id, passenger_name, passenger_phone,
			total, discount, points_used, status)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		b.Code, b.TripID, b.PassengerID,
		strings.TrimSpace(b.PassengerName), strings.TrimSpace(b.PassengerPhone),
		b.Total, b.Discount, b.PointsUsed, string(b.Status),
	)
	if err != nil {
		return b, err
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return b, err
	}

	for _, seat := range b.Seats {
		if _, err := tx.Exec(`
			INSERT INTO seat_holds (trip_id, seat_code, booking_id) VALUES (?,?,?)`,
			b.TripID, seat, b.ID,
		); err != nil {
			if intdb.IsDuplicateKey(err) {
				return b, domain.SeatUnavailableError{TripID: b.TripID, Seats: []string{seat}, Err: err}
			}
			return b, err
		}
	}

	if err := tx.Commit(); err != nil {
		return b, err
	}
	return b, nil
}

// Release cancels a booking and frees its seats. The booking row stays as
// history; only the holds are removed.
func (r BookingRepo) Release(bookingID int64) error {
	tx, err := r.db().Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE bookings SET status=? WHERE id=? AND status IN ('PENDING','CONFIRMED')`,
		string(domain.BookingCancelled), bookingID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.guardedUpdateMiss(bookingID)
	}
	if _, err := tx.Exec(`DELETE FROM seat_holds WHERE booking_id=?`, bookingID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r BookingRepo) UpdateStatus(bookingID int64, from, to domain.BookingStatus) error {
	res, err := r.db().Exec(`UPDATE bookings SET status=? WHERE id=? AND status=?`,
		string(to), bookingID, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.guardedUpdateMiss(bookingID)
	}
	return nil
}

// guardedUpdateMiss explains a status-guarded UPDATE that touched no rows:
// the booking either does not exist (404) or sits in a state the guard
// excludes (conflict).
func (r BookingRepo) guardedUpdateMiss(bookingID int64) error {
	var status string
	err := r.db().QueryRow(`SELECT status FROM bookings WHERE id=?`, bookingID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return err
	}
	return domain.ConflictError{Resource: "booking", Msg: "status " + status + " tidak bisa diubah"}
}

// MarkFreeCancelByTrip flags every confirmed booking on a delayed trip as
// eligible for free cancellation. The cancellation workflow itself is
// external; this only sets the flag it consumes.
func (r BookingRepo) MarkFreeCancelByTrip(tripID int64) (int64, error) {
	res, err := r.db().Exec(`
		UPDATE bookings SET free_cancel=1 WHERE trip_id=? AND status=?`,
		tripID, string(domain.BookingConfirmed))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CompleteByTrip moves confirmed bookings to COMPLETED when their trip ends.
func (r BookingRepo) CompleteByTrip(tripID int64) error {
	_, err := r.db().Exec(`
		UPDATE bookings SET status=? WHERE trip_id=? AND status=?`,
		string(domain.BookingCompleted), tripID, string(domain.BookingConfirmed))
	return err
}

func (r BookingRepo) ListByTrip(tripID int64) ([]models.Booking, error) {
	rows, err := r.db().Query(`SELECT `+bookingColumns+` FROM bookings WHERE trip_id=? ORDER BY id ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
