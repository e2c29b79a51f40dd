package repositories

import (
	"database/sql"
	"errors"

	intconfig "busline/internal/config"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/utils"
)

type BusRepo struct {
	DB *sql.DB
}

func (r BusRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BusRepo) GetByID(id int64) (models.Bus, error) {
	var out models.Bus
	if id <= 0 {
		return out, domain.ValidationError{Field: "bus_id", Msg: "id tidak valid"}
	}
	var amenities string
	err := r.db().QueryRow(`
		SELECT id, code, capacity, has_toilet, COALESCE(amenities,''), rating, driver_id
		FROM buses WHERE id=?`, id).Scan(
		&out.ID,
		&out.Code,
		&out.Capacity,
		&out.HasToilet,
		&amenities,
		&out.Rating,
		&out.DriverID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return out, domain.NotFoundError{Resource: "bus", Err: err}
	}
	if err != nil {
		return out, err
	}
	out.Amenities = utils.SplitList(amenities)
	return out, nil
}

func (r BusRepo) List() ([]models.Bus, error) {
	rows, err := r.db().Query(`
		SELECT id, code, capacity, has_toilet, COALESCE(amenities,''), rating, driver_id
		FROM buses ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Bus{}
	for rows.Next() {
		var b models.Bus
		var amenities string
		if err := rows.Scan(&b.ID, &b.Code, &b.Capacity, &b.HasToilet, &amenities, &b.Rating, &b.DriverID); err != nil {
			return out, err
		}
		b.Amenities = utils.SplitList(amenities)
		out = append(out, b)
	}
	return out, rows.Err()
}
