package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	intconfig "schoolbus/internal/config"
	intdb "schoolbus/internal/db"
	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

// TripsRepository reads and transitions rows of trips.
type TripsRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (r TripsRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r TripsRepository) q(query string) string {
	return r.Dialect.Rebind(query)
}

const tripSelect = `
	SELECT
		t.id,
		t.driver_id,
		t.route_id,
		t.bus_id,
		t.trip_date,
		t.session,
		t.direction,
		t.status,
		t.actual_start,
		t.actual_end,
		COALESCE(r.name, ''),
		COALESCE(b.label, b.plate_number, '')
	FROM trips t
	LEFT JOIN routes r ON r.id = t.route_id
	LEFT JOIN buses b ON b.id = t.bus_id`

// Morning/pickup sort before afternoon/dropoff regardless of collation.
const tripShiftOrder = `
	ORDER BY
		CASE t.session WHEN 'morning' THEN 0 ELSE 1 END,
		CASE t.direction WHEN 'pickup' THEN 0 ELSE 1 END,
		t.id`

// FindByShift returns the driver's trip for one date and shift.
// More than one match breaks the (driver, date, session, direction) key;
// the first is used and the anomaly is logged.
func (r TripsRepository) FindByShift(ctx context.Context, driverID int64, date time.Time, shift domain.Shift) (_ models.Trip, _ bool, err error) {
	defer utils.Time(ctx, "trips.FindByShift")(&err)

	rows, err := r.db().QueryContext(ctx, r.q(tripSelect+`
	WHERE t.driver_id = ? AND t.trip_date = ? AND t.direction = ? AND t.session = ?
	ORDER BY t.id
	LIMIT 2`), driverID, utils.FormatDate(date), string(shift.Direction), string(shift.Session))
	if err != nil {
		return models.Trip{}, false, fmt.Errorf("find trip by shift: query trips: %w", err)
	}
	defer rows.Close()

	trips, err := scanTrips(rows)
	if err != nil {
		return models.Trip{}, false, fmt.Errorf("find trip by shift: %w", err)
	}
	if len(trips) == 0 {
		return models.Trip{}, false, nil
	}
	if len(trips) > 1 {
		log.Printf("[TRIPS] data_integrity duplicate shift driver_id=%d date=%s direction=%s session=%s using trip_id=%d",
			driverID, utils.FormatDate(date), shift.Direction, shift.Session, trips[0].ID)
	}
	return trips[0], true, nil
}

// FindFirstByStatus returns the earliest-shift trip of the day with status.
func (r TripsRepository) FindFirstByStatus(ctx context.Context, driverID int64, date time.Time, status models.TripStatus) (_ models.Trip, _ bool, err error) {
	defer utils.Time(ctx, "trips.FindFirstByStatus")(&err)

	rows, err := r.db().QueryContext(ctx, r.q(tripSelect+`
	WHERE t.driver_id = ? AND t.trip_date = ? AND t.status = ?`+tripShiftOrder+`
	LIMIT 1`), driverID, utils.FormatDate(date), string(status))
	if err != nil {
		return models.Trip{}, false, fmt.Errorf("find trip by status: query trips: %w", err)
	}
	defer rows.Close()

	trips, err := scanTrips(rows)
	if err != nil {
		return models.Trip{}, false, fmt.Errorf("find trip by status: %w", err)
	}
	if len(trips) == 0 {
		return models.Trip{}, false, nil
	}
	return trips[0], true, nil
}

func (r TripsRepository) GetByID(ctx context.Context, tripID int64) (models.Trip, error) {
	rows, err := r.db().QueryContext(ctx, r.q(tripSelect+`
	WHERE t.id = ?`), tripID)
	if err != nil {
		return models.Trip{}, fmt.Errorf("get trip: query trips: %w", err)
	}
	defer rows.Close()

	trips, err := scanTrips(rows)
	if err != nil {
		return models.Trip{}, fmt.Errorf("get trip %d: %w", tripID, err)
	}
	if len(trips) == 0 {
		return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: sql.ErrNoRows}
	}
	return trips[0], nil
}

// MarkStarted moves scheduled -> in_progress and stamps actual_start.
func (r TripsRepository) MarkStarted(ctx context.Context, tripID int64, at time.Time) (_ bool, err error) {
	defer utils.Time(ctx, "trips.MarkStarted")(&err)

	res, err := r.db().ExecContext(ctx, r.q(`
		UPDATE trips
		SET status = ?, actual_start = ?
		WHERE id = ? AND status = ?`),
		string(models.TripInProgress), at.UTC(), tripID, string(models.TripScheduled),
	)
	if err != nil {
		return false, fmt.Errorf("mark trip started: update trips id=%d: %w", tripID, err)
	}
	return affectedOne(res)
}

// MarkCompleted moves in_progress -> completed and stamps actual_end, but only
// while no attendance row of the trip is still pending.
func (r TripsRepository) MarkCompleted(ctx context.Context, tripID int64, at time.Time) (_ bool, err error) {
	defer utils.Time(ctx, "trips.MarkCompleted")(&err)

	res, err := r.db().ExecContext(ctx, r.q(`
		UPDATE trips
		SET status = ?, actual_end = ?
		WHERE id = ? AND status = ?
		  AND NOT EXISTS (
			SELECT 1 FROM trip_attendance a
			WHERE a.trip_id = ? AND a.status = ?
		  )`),
		string(models.TripCompleted), at.UTC(), tripID, string(models.TripInProgress),
		tripID, string(models.AttendancePending),
	)
	if err != nil {
		return false, fmt.Errorf("mark trip completed: update trips id=%d: %w", tripID, err)
	}
	return affectedOne(res)
}

func scanTrips(rows *sql.Rows) ([]models.Trip, error) {
	out := []models.Trip{}
	for rows.Next() {
		var (
			t         models.Trip
			routeID   sql.NullInt64
			busID     sql.NullInt64
			session   string
			direction string
			status    string
			start     sql.NullTime
			end       sql.NullTime
		)
		if err := rows.Scan(
			&t.ID,
			&t.DriverID,
			&routeID,
			&busID,
			&t.TripDate,
			&session,
			&direction,
			&status,
			&start,
			&end,
			&t.RouteName,
			&t.BusLabel,
		); err != nil {
			return nil, fmt.Errorf("scan trip row: %w", err)
		}
		t.RouteID = nullInt64Ptr(routeID)
		t.BusID = nullInt64Ptr(busID)
		t.Session = models.Session(session)
		t.Direction = models.Direction(direction)
		t.Status = models.TripStatus(status)
		t.ActualStart = nullTimePtr(start)
		t.ActualEnd = nullTimePtr(end)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trip row iteration: %w", err)
	}
	return out, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}
