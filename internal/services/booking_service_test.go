package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/fare"
	"busline/internal/seatmap"
)

type seatLedger struct {
	mu     sync.Mutex
	held   map[string]bool
	nextID int64
	saved  []models.Booking
}

func newSeatLedger() *seatLedger {
	return &seatLedger{held: map[string]bool{}}
}

func (l *seatLedger) persist(b models.Booking) (models.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, code := range b.Seats {
		if l.held[code] {
			return models.Booking{}, domain.SeatUnavailableError{TripID: b.TripID, Seats: []string{code}}
		}
	}
	for _, code := range b.Seats {
		l.held[code] = true
	}
	l.nextID++
	b.ID = l.nextID
	l.saved = append(l.saved, b)
	return b, nil
}

func (l *seatLedger) heldSeats(int64) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.held))
	for code := range l.held {
		out = append(out, code)
	}
	return out, nil
}

func stubBookingService(trip models.TripInstance, seats []models.Seat, ledger *seatLedger) BookingService {
	return BookingService{
		Env: config.Env{},
		FetchTrip: func(int64) (models.TripInstance, error) {
			return trip, nil
		},
		FetchSeats: func(int64) ([]models.Seat, error) {
			return seats, nil
		},
		FetchHeld: ledger.heldSeats,
		Persist:   ledger.persist,
		Quote: func(tr models.TripInstance, seatCount int, _, _ int64, _ time.Time) (fare.Breakdown, error) {
			base := tr.Price * int64(seatCount)
			return fare.Breakdown{BasePrice: base, FinalPrice: base}, nil
		},
		Settle: func(*models.Booking) error { return nil },
	}
}

func testTrip() models.TripInstance {
	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	return models.TripInstance{
		ID:          7,
		BusID:       1,
		RouteID:     2,
		DepartureAt: dep,
		ArrivalAt:   dep.Add(5 * time.Hour),
		Price:       150000,
		Status:      domain.TripScheduled,
	}
}

func TestReserveConcurrentSameSeatOneWinner(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(40, false)
	ledger := newSeatLedger()
	svc := stubBookingService(trip, seats, ledger)
	now := trip.DepartureAt.Add(-24 * time.Hour)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Reserve(ReserveInput{
				TripID:        trip.ID,
				PassengerID:   int64(i + 1),
				PassengerName: "Penumpang",
				Seats:         []string{"1A", "1B"},
			}, now)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var suErr domain.SeatUnavailableError
		if !errors.As(err, &suErr) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if len(ledger.saved) != 1 {
		t.Fatalf("expected one persisted booking, got %d", len(ledger.saved))
	}
	if !ledger.held["1A"] || !ledger.held["1B"] {
		t.Fatalf("winner's seats not held: %v", ledger.held)
	}
}

func TestReserveAllOrNothingOnOverlap(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(40, false)
	ledger := newSeatLedger()
	svc := stubBookingService(trip, seats, ledger)
	now := trip.DepartureAt.Add(-24 * time.Hour)

	if _, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"2C"},
	}, now); err != nil {
		t.Fatalf("seed reserve error: %v", err)
	}

	_, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 2, PassengerName: "B", Seats: []string{"2B", "2C", "2D"},
	}, now)
	var suErr domain.SeatUnavailableError
	if !errors.As(err, &suErr) {
		t.Fatalf("expected seat conflict, got %v", err)
	}
	if ledger.held["2B"] || ledger.held["2D"] {
		t.Fatalf("losing request must hold nothing: %v", ledger.held)
	}
}

func TestReserveRejectsToiletAndUnknownSeat(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(40, true)
	ledger := newSeatLedger()
	svc := stubBookingService(trip, seats, ledger)
	now := trip.DepartureAt.Add(-time.Hour)

	if _, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"WC"},
	}, now); !domain.IsValidation(err) {
		t.Fatalf("toilet slot should be rejected, got %v", err)
	}
	if _, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"99Z"},
	}, now); !domain.IsValidation(err) {
		t.Fatalf("unknown seat should be rejected, got %v", err)
	}
}

func TestReserveRejectsDepartedAndNonScheduledTrip(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(40, false)
	svc := stubBookingService(trip, seats, newSeatLedger())

	_, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"1A"},
	}, trip.DepartureAt.Add(time.Minute))
	if !domain.IsConflict(err) {
		t.Fatalf("past departure should conflict, got %v", err)
	}

	cancelled := trip
	cancelled.Status = domain.TripCancelled
	svc2 := stubBookingService(cancelled, seats, newSeatLedger())
	_, _, err = svc2.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"1A"},
	}, trip.DepartureAt.Add(-time.Hour))
	if !domain.IsConflict(err) {
		t.Fatalf("cancelled trip should conflict, got %v", err)
	}
}

func TestReservePendingWhenPaymentRequired(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(40, false)
	ledger := newSeatLedger()
	svc := stubBookingService(trip, seats, ledger)
	svc.Env.PaymentRequired = true
	settled := false
	svc.Settle = func(*models.Booking) error {
		settled = true
		return nil
	}

	booking, bd, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"3A"},
	}, trip.DepartureAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("reserve error: %v", err)
	}
	if booking.Status != domain.BookingPending {
		t.Fatalf("expected PENDING, got %s", booking.Status)
	}
	if settled {
		t.Fatalf("loyalty must not settle before confirmation")
	}
	if booking.Code == "" {
		t.Fatalf("booking code must be set")
	}
	if bd.FinalPrice != trip.Price {
		t.Fatalf("expected final %d, got %d", trip.Price, bd.FinalPrice)
	}
}

func TestReserveDiscountNeverNegativeUnderSurge(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(40, false)
	ledger := newSeatLedger()
	svc := stubBookingService(trip, seats, ledger)
	svc.Quote = func(tr models.TripInstance, seatCount int, _, _ int64, _ time.Time) (fare.Breakdown, error) {
		base := tr.Price * int64(seatCount)
		// surge pushes the final above base while tier and points still apply
		return fare.Breakdown{
			BasePrice:      base,
			TierDiscount:   7500,
			PointsUsed:     200,
			PointsDiscount: 2000,
			FinalPrice:     base + base/4 - 9500,
		}, nil
	}

	booking, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"4A"},
	}, trip.DepartureAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("reserve error: %v", err)
	}
	if booking.Discount != 9500 {
		t.Fatalf("discount must be tier+points (9500), got %d", booking.Discount)
	}
	if booking.Discount < 0 {
		t.Fatalf("discount went negative: %d", booking.Discount)
	}
}

func TestConfirmRevertsToPendingWhenSettleFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("CONFIRMED", int64(7), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id=\\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "trip_id", "passenger_id", "passenger_name", "passenger_phone",
			"total", "discount", "points_used", "status", "free_cancel", "created_at",
		}).AddRow(7, "bk-7", 3, 11, "A", "", 100000, 2000, 200, "CONFIRMED", false, created))
	mock.ExpectQuery("SELECT seat_code FROM seat_holds WHERE booking_id=\\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_code"}).AddRow("4A"))
	// settle failed, the flip must be undone
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("PENDING", int64(7), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := BookingService{
		DB: db,
		Settle: func(*models.Booking) error {
			return domain.InsufficientPointsError{AccountID: 11, Requested: 200, Balance: 50}
		},
	}
	booking, err := svc.Confirm(7)
	if !domain.IsInsufficientPoints(err) {
		t.Fatalf("expected insufficient points error, got %v", err)
	}
	if booking.Status != domain.BookingPending {
		t.Fatalf("booking must drop back to PENDING, got %s", booking.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAvailabilityMarksHeldAndToilet(t *testing.T) {
	trip := testTrip()
	seats := seatmap.Build(24, true)
	ledger := newSeatLedger()
	svc := stubBookingService(trip, seats, ledger)

	if _, _, err := svc.Reserve(ReserveInput{
		TripID: trip.ID, PassengerID: 1, PassengerName: "A", Seats: []string{"2A", "2B"},
	}, trip.DepartureAt.Add(-time.Hour)); err != nil {
		t.Fatalf("seed reserve error: %v", err)
	}

	avail, err := svc.Availability(trip.ID)
	if err != nil {
		t.Fatalf("availability error: %v", err)
	}
	if len(avail) != len(seats) {
		t.Fatalf("expected %d entries, got %d", len(seats), len(avail))
	}
	free := 0
	for _, sa := range avail {
		switch {
		case sa.Code == "2A" || sa.Code == "2B" || sa.Position == domain.SeatToilet:
			if sa.Available {
				t.Fatalf("seat %s should be unavailable", sa.Code)
			}
		default:
			if !sa.Available {
				t.Fatalf("seat %s should be available", sa.Code)
			}
			free++
		}
	}
	if free != 24-2 {
		t.Fatalf("expected %d free seats, got %d", 24-2, free)
	}
}
