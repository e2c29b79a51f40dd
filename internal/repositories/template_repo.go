package repositories

import (
	"database/sql"
	"errors"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
)

type TemplateRepo struct {
	DB *sql.DB
}

func (r TemplateRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const templateColumns = `id, bus_id, route_id, departure_time, price, active, is_return_trip, return_template_id`

func (r TemplateRepo) GetByID(id int64) (models.DailyTemplate, error) {
	var out models.DailyTemplate
	if id <= 0 {
		return out, domain.ValidationError{Field: "template_id", Msg: "id tidak valid"}
	}
	err := r.db().QueryRow(`SELECT `+templateColumns+` FROM daily_templates WHERE id=?`, id).Scan(
		&out.ID, &out.BusID, &out.RouteID, &out.DepartureTime,
		&out.Price, &out.Active, &out.IsReturnTrip, &out.ReturnTemplateID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return out, domain.NotFoundError{Resource: "template", Err: err}
	}
	return out, err
}

// ListActive returns the templates the generator expands, in a stable order
// so repeated runs visit them identically.
func (r TemplateRepo) ListActive() ([]models.DailyTemplate, error) {
	rows, err := r.db().Query(`SELECT ` + templateColumns + ` FROM daily_templates WHERE active=1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailyTemplate{}
	for rows.Next() {
		var t models.DailyTemplate
		if err := rows.Scan(&t.ID, &t.BusID, &t.RouteID, &t.DepartureTime,
			&t.Price, &t.Active, &t.IsReturnTrip, &t.ReturnTemplateID); err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
