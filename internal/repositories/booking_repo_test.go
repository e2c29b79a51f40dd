package repositories

import (
	"errors"
	"testing"

	"busline/internal/domain"
	"busline/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestReserveClaimsAllSeatsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO seat_holds").
		WithArgs(int64(3), "1A", int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO seat_holds").
		WithArgs(int64(3), "1B", int64(7)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := BookingRepo{DB: db}
	b, err := repo.Reserve(models.Booking{
		Code:        "bk-test",
		TripID:      3,
		PassengerID: 11,
		Seats:       []string{"1A", "1B"},
		Total:       200000,
		Status:      domain.BookingConfirmed,
	})
	if err != nil {
		t.Fatalf("reserve error: %v", err)
	}
	if b.ID != 7 {
		t.Fatalf("booking id not set, got %d", b.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveRollsBackOnSeatConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("INSERT INTO seat_holds").
		WithArgs(int64(3), "2C", int64(8)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	repo := BookingRepo{DB: db}
	_, err = repo.Reserve(models.Booking{
		Code:        "bk-test2",
		TripID:      3,
		PassengerID: 12,
		Seats:       []string{"2C"},
		Status:      domain.BookingConfirmed,
	})
	var suErr domain.SeatUnavailableError
	if !errors.As(err, &suErr) {
		t.Fatalf("expected SeatUnavailableError, got %v", err)
	}
	if len(suErr.Seats) != 1 || suErr.Seats[0] != "2C" {
		t.Fatalf("conflicting seat not reported, got %v", suErr.Seats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseKeepsBookingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM seat_holds").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	repo := BookingRepo{DB: db}
	if err := repo.Release(9); err != nil {
		t.Fatalf("release error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseTerminalBookingConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// the row exists but already sits in a terminal state
	mock.ExpectQuery("SELECT status FROM bookings WHERE id=\\?").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("CANCELLED"))
	mock.ExpectRollback()

	repo := BookingRepo{DB: db}
	err = repo.Release(10)
	if !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseMissingBookingNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM bookings WHERE id=\\?").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	repo := BookingRepo{DB: db}
	err = repo.Release(404)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusMissingBookingNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM bookings WHERE id=\\?").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	repo := BookingRepo{DB: db}
	err = repo.UpdateStatus(404, domain.BookingPending, domain.BookingConfirmed)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
