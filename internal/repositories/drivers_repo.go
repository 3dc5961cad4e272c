package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "schoolbus/internal/config"
	intdb "schoolbus/internal/db"
	"schoolbus/internal/domain"
)

// DriverAccount is the login view of a driver row.
type DriverAccount struct {
	ID           int64
	Name         string
	Username     string
	Phone        string
	PasswordHash string
	Status       string
}

type DriversRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (r DriversRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// FindByLogin matches either username or phone.
func (r DriversRepository) FindByLogin(ctx context.Context, login string) (DriverAccount, error) {
	var d DriverAccount
	err := r.db().QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT id, name, username, COALESCE(phone, ''), password_hash, status
		FROM drivers
		WHERE username = ? OR phone = ?
		LIMIT 1`), login, login).Scan(
		&d.ID,
		&d.Name,
		&d.Username,
		&d.Phone,
		&d.PasswordHash,
		&d.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DriverAccount{}, domain.NotFoundError{Resource: "driver", Err: err}
	}
	if err != nil {
		return DriverAccount{}, fmt.Errorf("find driver by login: %w", err)
	}
	return d, nil
}
