package repositories

import (
	"database/sql"
	"errors"
	"strings"

	intconfig "busline/internal/config"
	intdb "busline/internal/db"
	"busline/internal/domain"
	"busline/internal/domain/models"
	"busline/internal/utils"
)

type RouteRepo struct {
	DB *sql.DB
}

func (r RouteRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const routeColumns = `id, origin, destination, distance_km, estimated_minutes, base_fare,
	origin_lat, origin_lng, dest_lat, dest_lng, COALESCE(waypoints,'')`

func scanRoute(row interface{ Scan(...any) error }) (models.Route, error) {
	var out models.Route
	var waypoints string
	err := row.Scan(
		&out.ID,
		&out.Origin,
		&out.Destination,
		&out.DistanceKM,
		&out.EstimatedMinutes,
		&out.BaseFare,
		&out.OriginLat,
		&out.OriginLng,
		&out.DestLat,
		&out.DestLng,
		&waypoints,
	)
	if err != nil {
		return out, err
	}
	out.Waypoints = utils.SplitList(waypoints)
	return out, nil
}

func (r RouteRepo) GetByID(id int64) (models.Route, error) {
	if id <= 0 {
		return models.Route{}, domain.ValidationError{Field: "route_id", Msg: "id tidak valid"}
	}
	route, err := scanRoute(r.db().QueryRow(`SELECT `+routeColumns+` FROM routes WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return route, domain.NotFoundError{Resource: "route", Err: err}
	}
	return route, err
}

func (r RouteRepo) FindByPair(origin, destination string) (models.Route, error) {
	route, err := scanRoute(r.db().QueryRow(
		`SELECT `+routeColumns+` FROM routes WHERE origin=? AND destination=?`,
		strings.TrimSpace(origin), strings.TrimSpace(destination)))
	if errors.Is(err, sql.ErrNoRows) {
		return route, domain.NotFoundError{Resource: "route", Err: err}
	}
	return route, err
}

func (r RouteRepo) Create(route models.Route) (models.Route, error) {
	res, err := r.db().Exec(`
		INSERT INTO routes (origin, destination, distance_km, estimated_minutes, base_fare,
			origin_lat, origin_lng, dest_lat, dest_lng, waypoints)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(route.Origin),
		strings.TrimSpace(route.Destination),
		route.DistanceKM,
		route.EstimatedMinutes,
		route.BaseFare,
		route.OriginLat,
		route.OriginLng,
		route.DestLat,
		route.DestLng,
		intdb.NullIfEmpty(utils.JoinList(route.Waypoints)),
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return route, domain.ConflictError{Resource: "route", Msg: "rute sudah ada", Err: err}
		}
		return route, err
	}
	route.ID, err = res.LastInsertId()
	return route, err
}

// FindOrCreateReverse returns the opposite-direction route, creating it from
// the original when missing. The uniq_route_pair key makes the create race
// safe: a duplicate-key loss means another request already created it, so we
// re-fetch instead of failing.
func (r RouteRepo) FindOrCreateReverse(of models.Route) (models.Route, error) {
	existing, err := r.FindByPair(of.Destination, of.Origin)
	if err == nil {
		return existing, nil
	}
	if !domain.IsNotFound(err) {
		return models.Route{}, err
	}

	created, err := r.Create(of.Reversed())
	if err == nil {
		return created, nil
	}
	if domain.IsConflict(err) {
		return r.FindByPair(of.Destination, of.Origin)
	}
	return models.Route{}, err
}
