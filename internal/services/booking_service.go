package services

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/fare"
	"busline/internal/repositories"
	"busline/internal/utils"
)

// BookingService claims seats on a trip. All claims for one trip run under
// the same in-process lock, and the seat_holds unique key catches anything
// that slips past it (another instance, a crashed request).
type BookingService struct {
	BookingRepo repositories.BookingRepo
	TripRepo    repositories.TripRepo
	Fares       FareService
	Loyalty     LoyaltyService
	Env         config.Env
	DB          *sql.DB
	RequestID   string

	// Test hooks; nil means hit the repos.
	FetchTrip  func(tripID int64) (models.TripInstance, error)
	FetchSeats func(tripID int64) ([]models.Seat, error)
	FetchHeld  func(tripID int64) ([]string, error)
	Persist    func(b models.Booking) (models.Booking, error)
	Quote      func(trip models.TripInstance, seatCount int, passengerID, pointsRequested int64, now time.Time) (fare.Breakdown, error)
	Settle     func(b *models.Booking) error
}

func (s BookingService) bookings() repositories.BookingRepo {
	if s.BookingRepo.DB != nil {
		return s.BookingRepo
	}
	return repositories.BookingRepo{DB: s.DB}
}

func (s BookingService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.DB}
}

func (s BookingService) fetchTrip(tripID int64) (models.TripInstance, error) {
	if s.FetchTrip != nil {
		return s.FetchTrip(tripID)
	}
	return s.trips().GetByID(tripID)
}

func (s BookingService) fetchSeats(tripID int64) ([]models.Seat, error) {
	if s.FetchSeats != nil {
		return s.FetchSeats(tripID)
	}
	return s.trips().ListSeats(tripID)
}

func (s BookingService) fetchHeld(tripID int64) ([]string, error) {
	if s.FetchHeld != nil {
		return s.FetchHeld(tripID)
	}
	return s.bookings().HeldSeats(tripID)
}

func (s BookingService) persist(b models.Booking) (models.Booking, error) {
	if s.Persist != nil {
		return s.Persist(b)
	}
	return s.bookings().Reserve(b)
}

func (s BookingService) quote(trip models.TripInstance, seatCount int, passengerID, pointsRequested int64, now time.Time) (fare.Breakdown, error) {
	if s.Quote != nil {
		return s.Quote(trip, seatCount, passengerID, pointsRequested, now)
	}
	f := s.Fares
	if f.DB == nil {
		f.DB = s.DB
	}
	if f.Pricing == (config.Pricing{}) {
		f.Pricing = s.Env.Pricing
	}
	f.RequestID = s.RequestID
	return f.QuoteTrip(trip, seatCount, passengerID, pointsRequested, now)
}

func (s BookingService) loyalty() LoyaltyService {
	l := s.Loyalty
	if l.DB == nil {
		l.DB = s.DB
	}
	if l.Pricing == (config.Pricing{}) {
		l.Pricing = s.Env.Pricing
	}
	l.RequestID = s.RequestID
	return l
}

// ReserveInput is what a passenger submits to claim seats.
type ReserveInput struct {
	TripID          int64    `json:"tripId"`
	PassengerID     int64    `json:"passengerId"`
	PassengerName   string   `json:"passengerName"`
	PassengerPhone  string   `json:"passengerPhone"`
	Seats           []string `json:"seats"`
	PointsRequested int64    `json:"pointsRequested"`
}

// Reserve claims the requested seats atomically: either every seat is held
// by the new booking or none is. Overlap with an existing hold fails the
// whole request with the offending seats named.
func (s BookingService) Reserve(in ReserveInput, now time.Time) (models.Booking, fare.Breakdown, error) {
	seats := utils.NormalizeSeats(in.Seats)
	if len(seats) == 0 {
		return models.Booking{}, fare.Breakdown{}, domain.ValidationError{Field: "seats", Msg: "kursi tidak boleh kosong"}
	}
	if in.PassengerID <= 0 {
		return models.Booking{}, fare.Breakdown{}, domain.ValidationError{Field: "passengerId", Msg: "penumpang tidak valid"}
	}
	if utils.TrimOrEmpty(in.PassengerName) == "" {
		return models.Booking{}, fare.Breakdown{}, domain.ValidationError{Field: "passengerName", Msg: "nama penumpang wajib diisi"}
	}

	trip, err := s.fetchTrip(in.TripID)
	if err != nil {
		return models.Booking{}, fare.Breakdown{}, err
	}
	if trip.Status != domain.TripScheduled {
		return models.Booking{}, fare.Breakdown{}, domain.ConflictError{Msg: "trip tidak menerima pemesanan"}
	}
	if !trip.DepartureAt.After(now) {
		return models.Booking{}, fare.Breakdown{}, domain.ConflictError{Msg: "trip sudah berangkat"}
	}

	unlock := tripLocks.Lock(strconv.FormatInt(trip.ID, 10))
	defer unlock()

	if err := s.checkSeats(trip.ID, seats); err != nil {
		return models.Booking{}, fare.Breakdown{}, err
	}

	bd, err := s.quote(trip, len(seats), in.PassengerID, in.PointsRequested, now)
	if err != nil {
		return models.Booking{}, fare.Breakdown{}, err
	}

	status := domain.BookingConfirmed
	if s.Env.PaymentRequired {
		status = domain.BookingPending
	}
	booking := models.Booking{
		Code:           uuid.NewString(),
		TripID:         trip.ID,
		PassengerID:    in.PassengerID,
		PassengerName:  utils.NormalizeSpace(in.PassengerName),
		PassengerPhone: utils.TrimOrEmpty(in.PassengerPhone),
		Seats:          seats,
		Total:          bd.FinalPrice,
		Discount:       bd.TierDiscount + bd.PointsDiscount,
		PointsUsed:     bd.PointsUsed,
		Status:         status,
		CreatedAt:      now,
	}

	booking, err = s.persist(booking)
	if err != nil {
		return models.Booking{}, fare.Breakdown{}, err
	}
	utils.LogEvent(s.RequestID, "booking", "reserved",
		fmt.Sprintf("code=%s trip_id=%d seats=%s total=%d", booking.Code, trip.ID, utils.JoinList(seats), booking.Total))

	// Loyalty settles only once the booking is confirmed. A redeem failure
	// here (balance drained since the quote) releases the fresh booking.
	if booking.Status == domain.BookingConfirmed {
		if err := s.settleLoyalty(&booking); err != nil {
			_ = s.bookings().Release(booking.ID)
			return models.Booking{}, fare.Breakdown{}, err
		}
	}
	return booking, bd, nil
}

// checkSeats validates the request against the trip's seat map and current
// holds. Caller must hold the trip lock.
func (s BookingService) checkSeats(tripID int64, seats []string) error {
	all, err := s.fetchSeats(tripID)
	if err != nil {
		return err
	}
	valid := make(map[string]domain.SeatPosition, len(all))
	for _, st := range all {
		valid[st.Code] = st.Position
	}
	for _, code := range seats {
		pos, ok := valid[code]
		if !ok {
			return domain.ValidationError{Field: "seats", Msg: "kursi " + code + " tidak ada di trip ini"}
		}
		if pos == domain.SeatToilet {
			return domain.ValidationError{Field: "seats", Msg: "kursi " + code + " tidak dapat dipesan"}
		}
	}

	held, err := s.fetchHeld(tripID)
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(held))
	for _, code := range held {
		taken[code] = true
	}
	var conflicts []string
	for _, code := range seats {
		if taken[code] {
			conflicts = append(conflicts, code)
		}
	}
	if len(conflicts) > 0 {
		return domain.SeatUnavailableError{TripID: tripID, Seats: conflicts}
	}
	return nil
}

func (s BookingService) settleLoyalty(b *models.Booking) error {
	if s.Settle != nil {
		return s.Settle(b)
	}
	l := s.loyalty()
	if b.PointsUsed > 0 {
		if _, _, err := l.Redeem(b.PassengerID, b.PointsUsed, "tukar poin booking "+b.Code); err != nil {
			return err
		}
	}
	if _, _, err := l.AwardForAmount(b.PassengerID, b.Total, "poin booking "+b.Code); err != nil {
		// The seats are held and paid for; a failed award is logged, not fatal.
		utils.LogEvent(s.RequestID, "booking", "award_failed",
			fmt.Sprintf("code=%s err=%v", b.Code, err))
	}
	return nil
}

// Confirm moves a PENDING booking to CONFIRMED (payment arrived) and settles
// its loyalty side effects.
func (s BookingService) Confirm(bookingID int64) (models.Booking, error) {
	if err := s.bookings().UpdateStatus(bookingID, domain.BookingPending, domain.BookingConfirmed); err != nil {
		return models.Booking{}, err
	}
	booking, err := s.bookings().GetByID(bookingID)
	if err != nil {
		return booking, err
	}
	if err := s.settleLoyalty(&booking); err != nil {
		// Payment side effects failed; the booking must not stay CONFIRMED
		// with its points discount unpaid. Flip it back to PENDING.
		if revertErr := s.bookings().UpdateStatus(bookingID, domain.BookingConfirmed, domain.BookingPending); revertErr != nil {
			utils.LogEvent(s.RequestID, "booking", "confirm_revert_failed",
				fmt.Sprintf("code=%s err=%v", booking.Code, revertErr))
		} else {
			booking.Status = domain.BookingPending
		}
		return booking, err
	}
	utils.LogEvent(s.RequestID, "booking", "confirmed", "code="+booking.Code)
	return booking, nil
}

// Release cancels a booking and frees its seats. The record stays, only the
// holds go. Points already redeemed come back as a fresh award.
func (s BookingService) Release(bookingID int64) (models.Booking, error) {
	booking, err := s.bookings().GetByID(bookingID)
	if err != nil {
		return booking, err
	}
	settled := booking.Status == domain.BookingConfirmed

	unlock := tripLocks.Lock(strconv.FormatInt(booking.TripID, 10))
	defer unlock()

	if err := s.bookings().Release(booking.ID); err != nil {
		return booking, err
	}
	booking.Status = domain.BookingCancelled

	if settled && booking.PointsUsed > 0 {
		l := s.loyalty()
		acct, err := l.repo().GetOrCreate(booking.PassengerID)
		if err == nil {
			_, err = l.repo().Award(acct.ID, booking.PointsUsed, "pengembalian poin booking "+booking.Code, l.TierFor)
		}
		if err != nil {
			utils.LogEvent(s.RequestID, "booking", "refund_points_failed",
				fmt.Sprintf("code=%s err=%v", booking.Code, err))
		}
	}
	utils.LogEvent(s.RequestID, "booking", "released", "code="+booking.Code)
	return booking, nil
}

// Availability returns the trip's full seat map annotated with hold state.
func (s BookingService) Availability(tripID int64) ([]models.SeatAvailability, error) {
	seats, err := s.fetchSeats(tripID)
	if err != nil {
		return nil, err
	}
	held, err := s.fetchHeld(tripID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(held))
	for _, code := range held {
		taken[code] = true
	}
	out := make([]models.SeatAvailability, 0, len(seats))
	for _, st := range seats {
		out = append(out, models.SeatAvailability{
			Seat:      st,
			Available: st.Position != domain.SeatToilet && !taken[st.Code],
		})
	}
	return out, nil
}
