package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/repositories"
)

func TestLegalTripTransitions(t *testing.T) {
	cases := []struct {
		from, to domain.TripStatus
		ok       bool
	}{
		{domain.TripScheduled, domain.TripInProgress, true},
		{domain.TripScheduled, domain.TripCancelled, true},
		{domain.TripScheduled, domain.TripCompleted, false},
		{domain.TripInProgress, domain.TripCompleted, true},
		{domain.TripInProgress, domain.TripCancelled, true},
		{domain.TripInProgress, domain.TripScheduled, false},
		{domain.TripCompleted, domain.TripCancelled, false},
		{domain.TripCancelled, domain.TripScheduled, false},
	}
	for _, c := range cases {
		if got := legalTripTransition(c.from, c.to); got != c.ok {
			t.Fatalf("transition %s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func tripRow(id int64, dep, arr time.Time, status domain.TripStatus, delay int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "bus_id", "route_id", "departure_at", "arrival_at", "price", "status", "delay_minutes", "return_trip_id",
	}).AddRow(id, 1, 2, dep, arr, 150000, string(status), delay, nil)
}

func TestDelayAccumulatesAndFlagsFreeCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	arr := dep.Add(5 * time.Hour)

	// 90 accumulated + 40 new = 130, past the 120 minute threshold
	mock.ExpectQuery("SELECT .+ FROM trip_instances WHERE id=\\?").
		WithArgs(int64(7)).
		WillReturnRows(tripRow(7, dep, arr, domain.TripScheduled, 90))
	mock.ExpectExec("UPDATE trip_instances SET departure_at=\\?, arrival_at=\\?, delay_minutes=\\?").
		WithArgs(dep.Add(40*time.Minute), arr.Add(40*time.Minute), 130, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET free_cancel=1").
		WithArgs(int64(7), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 3))

	svc := TripService{
		TripRepo:    repositories.TripRepo{DB: db},
		BookingRepo: repositories.BookingRepo{DB: db},
		Env:         config.Env{DelayMaxMinutes: 360, FreeCancelMinutes: 120},
		DB:          db,
	}
	trip, err := svc.Delay(7, 40, "ban bocor")
	if err != nil {
		t.Fatalf("delay error: %v", err)
	}
	if trip.DelayMinutes != 130 {
		t.Fatalf("expected total delay 130, got %d", trip.DelayMinutes)
	}
	if !trip.DepartureAt.Equal(dep.Add(40 * time.Minute)) {
		t.Fatalf("departure not shifted: %s", trip.DepartureAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelayBelowThresholdLeavesBookingsAlone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	arr := dep.Add(5 * time.Hour)

	// 30 accumulated + 40 new = 70, still under the 120 minute threshold:
	// no free_cancel write may run
	mock.ExpectQuery("SELECT .+ FROM trip_instances WHERE id=\\?").
		WithArgs(int64(7)).
		WillReturnRows(tripRow(7, dep, arr, domain.TripScheduled, 30))
	mock.ExpectExec("UPDATE trip_instances SET departure_at=\\?, arrival_at=\\?, delay_minutes=\\?").
		WithArgs(dep.Add(40*time.Minute), arr.Add(40*time.Minute), 70, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := TripService{
		TripRepo:    repositories.TripRepo{DB: db},
		BookingRepo: repositories.BookingRepo{DB: db},
		Env:         config.Env{DelayMaxMinutes: 360, FreeCancelMinutes: 120},
		DB:          db,
	}
	trip, err := svc.Delay(7, 40, "macet")
	if err != nil {
		t.Fatalf("delay error: %v", err)
	}
	if trip.DelayMinutes != 70 {
		t.Fatalf("expected total delay 70, got %d", trip.DelayMinutes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelayRejectsOutOfRangeAndNonScheduled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	svc := TripService{
		TripRepo: repositories.TripRepo{DB: db},
		Env:      config.Env{DelayMaxMinutes: 360, FreeCancelMinutes: 120},
		DB:       db,
	}

	if _, err := svc.Delay(7, 0, ""); !domain.IsValidation(err) {
		t.Fatalf("zero minutes should be rejected, got %v", err)
	}
	if _, err := svc.Delay(7, 361, ""); !domain.IsValidation(err) {
		t.Fatalf("over-cap minutes should be rejected, got %v", err)
	}

	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM trip_instances WHERE id=\\?").
		WithArgs(int64(7)).
		WillReturnRows(tripRow(7, dep, dep.Add(time.Hour), domain.TripInProgress, 0))

	if _, err := svc.Delay(7, 30, ""); !domain.IsConflict(err) {
		t.Fatalf("delaying a running trip should conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusCompletedCompletesBookings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM trip_instances WHERE id=\\?").
		WithArgs(int64(7)).
		WillReturnRows(tripRow(7, dep, dep.Add(time.Hour), domain.TripInProgress, 0))
	mock.ExpectExec("UPDATE trip_instances SET status=\\?").
		WithArgs("COMPLETED", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status=\\?").
		WithArgs("COMPLETED", int64(7), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 2))

	svc := TripService{
		TripRepo:    repositories.TripRepo{DB: db},
		BookingRepo: repositories.BookingRepo{DB: db},
		DB:          db,
	}
	trip, err := svc.UpdateStatus(7, domain.TripCompleted)
	if err != nil {
		t.Fatalf("update status error: %v", err)
	}
	if trip.Status != domain.TripCompleted {
		t.Fatalf("expected COMPLETED, got %s", trip.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGenerateTreatsDuplicateDepartureAsAlreadyDone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM daily_templates WHERE id=\\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "route_id", "departure_time", "price", "active", "is_return_trip", "return_template_id",
		}).AddRow(5, 1, 2, "00:00", 150000, true, false, nil))
	mock.ExpectQuery("SELECT .+ FROM buses WHERE id=\\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "capacity", "has_toilet", "amenities", "rating", "driver_id",
		}).AddRow(1, "BL-01", 4, false, "", 4.5, nil))
	mock.ExpectQuery("SELECT .+ FROM routes WHERE id=\\?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "origin", "destination", "distance_km", "estimated_minutes", "base_fare",
			"origin_lat", "origin_lng", "dest_lat", "dest_lng", "waypoints",
		}).AddRow(2, "Pasirpengaraian", "Pekanbaru", 180.0, 240, 150000, nil, nil, nil, nil, ""))

	// midnight today is already past, so only the two future days are tried;
	// both lose to the uniq_trip_departure key and are skipped, not failed
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO trip_instances").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
		mock.ExpectRollback()
	}

	svc := TripService{
		TemplateRepo: repositories.TemplateRepo{DB: db},
		BusRepo:      repositories.BusRepo{DB: db},
		RouteRepo:    repositories.RouteRepo{DB: db},
		TripRepo:     repositories.TripRepo{DB: db},
		DB:           db,
	}
	created, err := svc.GenerateForTemplate(5, 3)
	if err != nil {
		t.Fatalf("re-run must not fail on existing trips: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no new trips, got %d", len(created))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTripArrivalFromRouteDuration(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	dep := time.Date(2026, 9, 10, 22, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM buses WHERE id=\\?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "capacity", "has_toilet", "amenities", "rating", "driver_id",
		}).AddRow(1, "BL-01", 8, false, "", 4.5, nil))
	// 26 hour leg crosses a full day; arrival must still be departure+duration
	mock.ExpectQuery("SELECT .+ FROM routes WHERE id=\\?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "origin", "destination", "distance_km", "estimated_minutes", "base_fare",
			"origin_lat", "origin_lng", "dest_lat", "dest_lng", "waypoints",
		}).AddRow(2, "Pekanbaru", "Jakarta", 1300.0, 26*60, 450000, nil, nil, nil, nil, ""))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trip_instances").
		WithArgs(int64(1), int64(2), dep, dep.Add(26*time.Hour), int64(450000), "SCHEDULED").
		WillReturnResult(sqlmock.NewResult(7, 1))
	seatInsert := mock.ExpectPrepare("INSERT INTO trip_seats")
	for i := 0; i < 8; i++ {
		seatInsert.ExpectExec().WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()

	svc := TripService{
		BusRepo:   repositories.BusRepo{DB: db},
		RouteRepo: repositories.RouteRepo{DB: db},
		TripRepo:  repositories.TripRepo{DB: db},
		DB:        db,
	}
	trips, err := svc.CreateTrip(1, 2, dep, 0, false)
	if err != nil {
		t.Fatalf("create trip error: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected one trip, got %d", len(trips))
	}
	if !trips[0].ArrivalAt.Equal(dep.Add(26 * time.Hour)) {
		t.Fatalf("arrival not departure+duration: %s", trips[0].ArrivalAt)
	}
	if trips[0].Price != 450000 {
		t.Fatalf("zero price must fall back to route base fare, got %d", trips[0].Price)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
