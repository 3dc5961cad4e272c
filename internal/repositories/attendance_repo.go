package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "schoolbus/internal/config"
	intdb "schoolbus/internal/db"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

// AttendanceRepository wraps trip_attendance joined with students and stops.
type AttendanceRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (r AttendanceRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r AttendanceRepository) q(query string) string {
	return r.Dialect.Rebind(query)
}

const attendanceSelect = `
	SELECT
		a.trip_id,
		a.student_id,
		a.status,
		a.attended_at,
		s.name,
		s.pickup_stop_id,
		s.dropoff_stop_id,
		COALESCE(ps.address, ''),
		COALESCE(ds.address, '')
	FROM trip_attendance a
	JOIN students s ON s.id = a.student_id
	LEFT JOIN stops ps ON ps.id = s.pickup_stop_id
	LEFT JOIN stops ds ON ds.id = s.dropoff_stop_id`

func (r AttendanceRepository) Get(ctx context.Context, tripID, studentID int64) (models.AttendanceRecord, bool, error) {
	rows, err := r.db().QueryContext(ctx, r.q(attendanceSelect+`
	WHERE a.trip_id = ? AND a.student_id = ?`), tripID, studentID)
	if err != nil {
		return models.AttendanceRecord{}, false, fmt.Errorf("get attendance: query trip_attendance: %w", err)
	}
	defer rows.Close()

	recs, err := scanAttendance(rows)
	if err != nil {
		return models.AttendanceRecord{}, false, fmt.Errorf("get attendance trip_id=%d student_id=%d: %w", tripID, studentID, err)
	}
	if len(recs) == 0 {
		return models.AttendanceRecord{}, false, nil
	}
	return recs[0], true, nil
}

// ListByTrip returns the trip roster ordered by student name.
func (r AttendanceRepository) ListByTrip(ctx context.Context, tripID int64) (_ []models.AttendanceRecord, err error) {
	defer utils.Time(ctx, "attendance.ListByTrip")(&err)

	rows, err := r.db().QueryContext(ctx, r.q(attendanceSelect+`
	WHERE a.trip_id = ?
	ORDER BY s.name ASC, s.id ASC`), tripID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: query trip_attendance: %w", err)
	}
	defer rows.Close()

	recs, err := scanAttendance(rows)
	if err != nil {
		return nil, fmt.Errorf("list attendance trip_id=%d: %w", tripID, err)
	}
	return recs, nil
}

func (r AttendanceRepository) CountByStatus(ctx context.Context, tripID int64, status models.AttendanceStatus) (int, error) {
	var n int
	err := r.db().QueryRowContext(ctx, r.q(`
		SELECT COUNT(*)
		FROM trip_attendance
		WHERE trip_id = ? AND status = ?`), tripID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attendance: trip_id=%d status=%s: %w", tripID, status, err)
	}
	return n, nil
}

// MarkAttended moves pending -> attended and stamps attended_at.
func (r AttendanceRepository) MarkAttended(ctx context.Context, tripID, studentID int64, at time.Time) (_ bool, err error) {
	defer utils.Time(ctx, "attendance.MarkAttended")(&err)

	res, err := r.db().ExecContext(ctx, r.q(`
		UPDATE trip_attendance
		SET status = ?, attended_at = ?
		WHERE trip_id = ? AND student_id = ? AND status = ?`),
		string(models.AttendanceAttended), at.UTC(), tripID, studentID, string(models.AttendancePending),
	)
	if err != nil {
		return false, fmt.Errorf("mark attended: update trip_attendance trip_id=%d student_id=%d: %w", tripID, studentID, err)
	}
	return affectedOne(res)
}

// MarkPending moves attended -> pending and clears attended_at.
// Absent rows are left to the reconciliation job that wrote them.
func (r AttendanceRepository) MarkPending(ctx context.Context, tripID, studentID int64) (_ bool, err error) {
	defer utils.Time(ctx, "attendance.MarkPending")(&err)

	res, err := r.db().ExecContext(ctx, r.q(`
		UPDATE trip_attendance
		SET status = ?, attended_at = NULL
		WHERE trip_id = ? AND student_id = ? AND status = ?`),
		string(models.AttendancePending), tripID, studentID, string(models.AttendanceAttended),
	)
	if err != nil {
		return false, fmt.Errorf("mark pending: update trip_attendance trip_id=%d student_id=%d: %w", tripID, studentID, err)
	}
	return affectedOne(res)
}

func scanAttendance(rows *sql.Rows) ([]models.AttendanceRecord, error) {
	out := []models.AttendanceRecord{}
	for rows.Next() {
		var (
			rec        models.AttendanceRecord
			status     string
			attendedAt sql.NullTime
		)
		if err := rows.Scan(
			&rec.TripID,
			&rec.StudentID,
			&status,
			&attendedAt,
			&rec.Student.Name,
			&rec.Student.PickupStopID,
			&rec.Student.DropoffStopID,
			&rec.Student.PickupAddress,
			&rec.Student.DropoffAddress,
		); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		rec.Status = models.AttendanceStatus(status)
		rec.AttendedAt = nullTimePtr(attendedAt)
		rec.Student.ID = rec.StudentID
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance row iteration: %w", err)
	}
	return out, nil
}
