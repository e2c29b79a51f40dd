package repositories

import (
	"testing"
	"time"

	"busline/internal/domain"
	"busline/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestCreateDuplicateDepartureIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trip_instances").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	repo := TripRepo{DB: db}
	_, err = repo.Create(models.TripInstance{
		BusID:       1,
		RouteID:     2,
		DepartureAt: time.Date(2026, 4, 1, 7, 30, 0, 0, time.Local),
		ArrivalAt:   time.Date(2026, 4, 1, 11, 30, 0, 0, time.Local),
		Price:       150000,
		Status:      domain.TripScheduled,
	}, nil)
	if !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRollsBackWhenSeatInsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trip_instances").
		WillReturnResult(sqlmock.NewResult(7, 1))
	seatInsert := mock.ExpectPrepare("INSERT INTO trip_seats")
	seatInsert.ExpectExec().WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()

	repo := TripRepo{DB: db}
	_, err = repo.Create(models.TripInstance{
		BusID:       1,
		RouteID:     2,
		DepartureAt: time.Date(2026, 4, 1, 7, 30, 0, 0, time.Local),
		ArrivalAt:   time.Date(2026, 4, 1, 11, 30, 0, 0, time.Local),
		Price:       150000,
		Status:      domain.TripScheduled,
	}, []models.Seat{{Code: "1A", Row: 1, Column: "A", Position: domain.SeatRegular}})
	if err == nil {
		t.Fatalf("expected seat insert error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindOrCreateReverseLosesRaceAndRefetches(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "origin", "destination", "distance_km", "estimated_minutes", "base_fare",
		"origin_lat", "origin_lng", "dest_lat", "dest_lng", "waypoints"}

	// first lookup: reverse route does not exist yet
	mock.ExpectQuery("SELECT (.+) FROM routes WHERE origin").
		WithArgs("Pekanbaru", "Pasirpengaraian").
		WillReturnRows(sqlmock.NewRows(cols))
	// create loses the race on uniq_route_pair
	mock.ExpectExec("INSERT INTO routes").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	// conflict-as-success: re-fetch what the winner created
	mock.ExpectQuery("SELECT (.+) FROM routes WHERE origin").
		WithArgs("Pekanbaru", "Pasirpengaraian").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, "Pekanbaru", "Pasirpengaraian", 180.0, 240, 150000, nil, nil, nil, nil, ""))

	repo := RouteRepo{DB: db}
	got, err := repo.FindOrCreateReverse(models.Route{
		ID:               1,
		Origin:           "Pasirpengaraian",
		Destination:      "Pekanbaru",
		DistanceKM:       180,
		EstimatedMinutes: 240,
		BaseFare:         150000,
	})
	if err != nil {
		t.Fatalf("expected conflict-as-success, got %v", err)
	}
	if got.ID != 9 || got.Origin != "Pekanbaru" {
		t.Fatalf("wrong route returned: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
