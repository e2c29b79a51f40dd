package services

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"busline/internal/repositories"
	"busline/internal/utils"
)

// DocsService menghasilkan PDF e-ticket per booking.
type DocsService struct {
	BookingRepo repositories.BookingRepo
	TripRepo    repositories.TripRepo
	RouteRepo   repositories.RouteRepo
	DB          *sql.DB
	RequestID   string
	Loader      func(bookingID int64) (ticketDocData, error)
}

type ticketDocData struct {
	BookingID      int64
	BookingCode    string
	PassengerName  string
	PassengerPhone string
	Seats          []string
	Origin         string
	Destination    string
	DepartureAt    string
	ArrivalAt      string
	Total          int64
	PointsUsed     int64
	Status         string
}

func (s DocsService) GenerateETicket(bookingID int64) ([]byte, string, error) {
	data, err := s.loadTicketDocData(bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("booking_id=%d", bookingID))
	return buildETicketPDF(data)
}

func (s DocsService) loadTicketDocData(bookingID int64) (ticketDocData, error) {
	if s.Loader != nil {
		return s.Loader(bookingID)
	}
	var out ticketDocData
	b, err := s.bookingRepo().GetByID(bookingID)
	if err != nil {
		return out, err
	}
	out.BookingID = b.ID
	out.BookingCode = b.Code
	out.PassengerName = b.PassengerName
	out.PassengerPhone = b.PassengerPhone
	out.Seats = b.Seats
	out.Total = b.Total
	out.PointsUsed = b.PointsUsed
	out.Status = string(b.Status)

	trip, err := s.tripRepo().GetByID(b.TripID)
	if err != nil {
		return out, err
	}
	out.DepartureAt = utils.FormatDateTime(trip.DepartureAt)
	out.ArrivalAt = utils.FormatDateTime(trip.ArrivalAt)

	if route, err := s.routeRepo().GetByID(trip.RouteID); err == nil {
		out.Origin = route.Origin
		out.Destination = route.Destination
	}
	return out, nil
}

func (s DocsService) bookingRepo() repositories.BookingRepo {
	if s.BookingRepo.DB != nil {
		return s.BookingRepo
	}
	return repositories.BookingRepo{DB: s.DB}
}

func (s DocsService) tripRepo() repositories.TripRepo {
	if s.TripRepo.DB != nil {
		return s.TripRepo
	}
	return repositories.TripRepo{DB: s.DB}
}

func (s DocsService) routeRepo() repositories.RouteRepo {
	if s.RouteRepo.DB != nil {
		return s.RouteRepo
	}
	return repositories.RouteRepo{DB: s.DB}
}

func buildETicketPDF(d ticketDocData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Nama Penumpang : %s", safe(d.PassengerName, "-")),
		fmt.Sprintf("No HP          : %s", safe(d.PassengerPhone, "-")),
		fmt.Sprintf("Kursi          : %s", safe(strings.Join(d.Seats, ", "), "-")),
		fmt.Sprintf("Rute           : %s -> %s", safe(d.Origin, "-"), safe(d.Destination, "-")),
		fmt.Sprintf("Berangkat      : %s", safe(d.DepartureAt, "-")),
		fmt.Sprintf("Tiba           : %s", safe(d.ArrivalAt, "-")),
		fmt.Sprintf("Total          : %s", utils.FormatRupiah(d.Total)),
		fmt.Sprintf("Poin Dipakai   : %d", d.PointsUsed),
		fmt.Sprintf("Status         : %s", safe(d.Status, "-")),
		fmt.Sprintf("Kode Booking   : %s", safe(d.BookingCode, "-")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Catatan: Harap tunjukkan e-ticket ini saat keberangkatan.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s.pdf", safeFilenamePart(d.BookingCode))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
