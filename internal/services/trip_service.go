package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/repositories"
	"busline/internal/seatmap"
	"busline/internal/utils"
)

// TripService owns the trip inventory: one-off creation (optionally with a
// linked return trip), horizon expansion from daily templates, delays and
// status transitions.
type TripService struct {
	RouteRepo    repositories.RouteRepo
	BusRepo      repositories.BusRepo
	TemplateRepo repositories.TemplateRepo
	TripRepo     repositories.TripRepo
	BookingRepo  repositories.BookingRepo
	Env          config.Env
	DB           *sql.DB
	RequestID    string
}

func (s TripService) routes() repositories.RouteRepo {
	if s.RouteRepo.DB != nil {
		return s.RouteRepo
	}
	return repositories.RouteRepo{DB: s.DB}
}

func (s TripService) buses() repositories.BusRepo {
	if s.BusRepo.DB != nil {
		return s.BusRepo
	}
	return repositories.BusRepo{DB: s.DB}
}

func (s TripService) templates() repositories.TemplateRepo {
	if s.TemplateRepo.DB != nil {
		return s.TemplateRepo
	}
	return repositories.TemplateRepo{DB: s.DB}
}

func (s TripService) trips() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.DB}
}

func (s TripService) bookings() repositories.BookingRepo {
	if s.BookingRepo.DB != nil {
		return s.BookingRepo
	}
	return repositories.BookingRepo{DB: s.DB}
}

// CreateTrip builds one dated trip instance, and with linkReturn also the
// opposite-direction instance departing at the outbound arrival; the two end
// up pointing at each other by ID.
func (s TripService) CreateTrip(busID, routeID int64, departure time.Time, price int64, linkReturn bool) ([]models.TripInstance, error) {
	if price < 0 {
		return nil, domain.ValidationError{Field: "price", Msg: "harga tidak boleh negatif"}
	}
	if departure.IsZero() {
		return nil, domain.ValidationError{Field: "departure", Msg: "jadwal wajib diisi"}
	}

	bus, err := s.buses().GetByID(busID)
	if err != nil {
		return nil, err
	}
	route, err := s.routes().GetByID(routeID)
	if err != nil {
		return nil, err
	}
	if price == 0 {
		price = route.BaseFare
	}

	outbound, err := s.createInstance(bus, route, departure, price)
	if err != nil {
		return nil, err
	}
	utils.LogEvent(s.RequestID, "trip", "create",
		fmt.Sprintf("trip_id=%d bus_id=%d route_id=%d departure=%s", outbound.ID, busID, routeID, utils.FormatDateTime(departure)))

	if !linkReturn {
		return []models.TripInstance{outbound}, nil
	}

	// Reverse-route lookup-or-create is one logical step; the pair lock plus
	// the uniq_route_pair key keep concurrent requests from minting
	// duplicate reverse routes.
	unlock := routePairLocks.Lock(pairKey(route.Destination, route.Origin))
	reverse, err := s.routes().FindOrCreateReverse(route)
	unlock()
	if err != nil {
		return nil, err
	}

	ret, err := s.createInstance(bus, reverse, outbound.ArrivalAt, price)
	if err != nil {
		return nil, err
	}
	if err := s.trips().LinkReturnTrips(outbound.ID, ret.ID); err != nil {
		return nil, err
	}
	outbound.ReturnTripID = &ret.ID
	ret.ReturnTripID = &outbound.ID

	return []models.TripInstance{outbound, ret}, nil
}

// createInstance persists a trip plus its seat map. Arrival is a plain
// duration addition; inferring day rollover from hour comparison breaks on
// legs longer than a day.
func (s TripService) createInstance(bus models.Bus, route models.Route, departure time.Time, price int64) (models.TripInstance, error) {
	if bus.Capacity <= 0 {
		return models.TripInstance{}, domain.ValidationError{Field: "capacity", Msg: "kapasitas bus tidak valid"}
	}

	trip := models.TripInstance{
		BusID:       bus.ID,
		RouteID:     route.ID,
		DepartureAt: departure,
		ArrivalAt:   departure.Add(route.EstimatedTime()),
		Price:       price,
		Status:      domain.TripScheduled,
	}
	trip, err := s.trips().Create(trip, seatmap.Build(bus.Capacity, bus.HasToilet))
	if err != nil {
		return trip, err
	}
	return trip, nil
}

// GenerateAll expands every active template over the horizon. Safe to re-run:
// the (bus, route, departure) key makes creation idempotent.
func (s TripService) GenerateAll(horizonDays int) ([]models.TripInstance, error) {
	templates, err := s.templates().ListActive()
	if err != nil {
		return nil, err
	}
	created := []models.TripInstance{}
	for _, tmpl := range templates {
		out, err := s.generate(tmpl, horizonDays)
		if err != nil {
			return created, err
		}
		created = append(created, out...)
	}
	return created, nil
}

// GenerateForTemplate expands a single template over the horizon.
func (s TripService) GenerateForTemplate(templateID int64, horizonDays int) ([]models.TripInstance, error) {
	tmpl, err := s.templates().GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.Active {
		return nil, domain.ValidationError{Field: "template_id", Msg: "template tidak aktif"}
	}
	return s.generate(tmpl, horizonDays)
}

func (s TripService) generate(tmpl models.DailyTemplate, horizonDays int) ([]models.TripInstance, error) {
	if horizonDays <= 0 {
		horizonDays = s.Env.HorizonDays
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}

	bus, err := s.buses().GetByID(tmpl.BusID)
	if err != nil {
		return nil, err
	}
	route, err := s.routes().GetByID(tmpl.RouteID)
	if err != nil {
		return nil, err
	}
	price := tmpl.Price
	if price == 0 {
		price = route.BaseFare
	}

	now := time.Now()
	created := []models.TripInstance{}
	for day := 0; day < horizonDays; day++ {
		departure, err := utils.CombineDateTime(now.AddDate(0, 0, day), tmpl.DepartureTime)
		if err != nil {
			return created, domain.ValidationError{Field: "departure_time", Msg: "format jam template tidak valid", Err: err}
		}
		if departure.Before(now) {
			continue
		}
		trip, err := s.createInstance(bus, route, departure, price)
		if err != nil {
			if domain.IsConflict(err) {
				// already generated on an earlier run
				continue
			}
			return created, err
		}
		created = append(created, trip)
	}

	utils.LogEvent(s.RequestID, "trip", "generate",
		fmt.Sprintf("template_id=%d horizon_days=%d created=%d", tmpl.ID, horizonDays, len(created)))
	return created, nil
}

// Delay shifts a trip forward and accumulates its delay. Once the total
// reaches the free-cancel threshold, every confirmed booking on the trip is
// flagged for the external cancellation workflow.
func (s TripService) Delay(tripID int64, minutes int, reason string) (models.TripInstance, error) {
	var out models.TripInstance
	maxDelay := s.Env.DelayMaxMinutes
	if maxDelay <= 0 {
		maxDelay = 360
	}
	if minutes <= 0 || minutes > maxDelay {
		return out, domain.ValidationError{Field: "minutes",
			Msg: fmt.Sprintf("delay harus 1..%d menit", maxDelay)}
	}

	trip, err := s.trips().GetByID(tripID)
	if err != nil {
		return out, err
	}
	if trip.Status != domain.TripScheduled {
		return out, domain.ConflictError{Resource: "trip", Msg: "hanya trip SCHEDULED yang bisa di-delay"}
	}

	shift := time.Duration(minutes) * time.Minute
	trip.DepartureAt = trip.DepartureAt.Add(shift)
	trip.ArrivalAt = trip.ArrivalAt.Add(shift)
	trip.DelayMinutes += minutes

	if err := s.trips().UpdateDelay(trip.ID, trip.DepartureAt, trip.ArrivalAt, trip.DelayMinutes); err != nil {
		return out, err
	}

	threshold := s.Env.FreeCancelMinutes
	if threshold <= 0 {
		threshold = 120
	}
	if trip.DelayMinutes >= threshold {
		flagged, err := s.bookings().MarkFreeCancelByTrip(trip.ID)
		if err != nil {
			return out, domain.InternalError{Msg: "gagal menandai free cancel", Err: err}
		}
		utils.LogEvent(s.RequestID, "trip", "free_cancel_flagged",
			fmt.Sprintf("trip_id=%d total_delay=%d bookings=%d", trip.ID, trip.DelayMinutes, flagged))
	}

	// consumed by the external notifier
	utils.LogEvent(s.RequestID, "trip", "delayed",
		fmt.Sprintf("trip_id=%d minutes=%d total=%d reason=%s", trip.ID, minutes, trip.DelayMinutes, strings.TrimSpace(reason)))
	return trip, nil
}

// UpdateStatus applies an operator transition. Completing a trip also
// completes its confirmed bookings.
func (s TripService) UpdateStatus(tripID int64, to domain.TripStatus) (models.TripInstance, error) {
	trip, err := s.trips().GetByID(tripID)
	if err != nil {
		return trip, err
	}
	if !legalTripTransition(trip.Status, to) {
		return trip, domain.ConflictError{Resource: "trip",
			Msg: fmt.Sprintf("transisi %s -> %s tidak diizinkan", trip.Status, to)}
	}
	if err := s.trips().UpdateStatus(tripID, to); err != nil {
		return trip, err
	}
	trip.Status = to

	if to == domain.TripCompleted {
		if err := s.bookings().CompleteByTrip(tripID); err != nil {
			return trip, domain.InternalError{Msg: "gagal menyelesaikan booking", Err: err}
		}
	}
	utils.LogEvent(s.RequestID, "trip", "status", fmt.Sprintf("trip_id=%d status=%s", tripID, to))
	return trip, nil
}

func legalTripTransition(from, to domain.TripStatus) bool {
	switch from {
	case domain.TripScheduled:
		return to == domain.TripInProgress || to == domain.TripCancelled
	case domain.TripInProgress:
		return to == domain.TripCompleted || to == domain.TripCancelled
	default:
		return false
	}
}

func pairKey(origin, destination string) string {
	return strings.ToLower(strings.TrimSpace(origin)) + "|" + strings.ToLower(strings.TrimSpace(destination))
}
