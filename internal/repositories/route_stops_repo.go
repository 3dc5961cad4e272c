package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "schoolbus/internal/config"
	intdb "schoolbus/internal/db"
	"schoolbus/internal/domain/models"

	"github.com/bluele/gcache"
)

// RouteStopsRepository reads route_stops joined with stops.
type RouteStopsRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

func (r RouteStopsRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ListByRoute returns the stops of a route in traversal order.
func (r RouteStopsRepository) ListByRoute(ctx context.Context, routeID int64) ([]models.RouteStop, error) {
	rows, err := r.db().QueryContext(ctx, r.Dialect.Rebind(`
		SELECT
			rs.route_id,
			rs.stop_id,
			rs.stop_order,
			s.name,
			COALESCE(s.address, ''),
			COALESCE(s.latitude, 0),
			COALESCE(s.longitude, 0)
		FROM route_stops rs
		JOIN stops s ON s.id = rs.stop_id
		WHERE rs.route_id = ?
		ORDER BY rs.stop_order ASC`), routeID)
	if err != nil {
		return nil, fmt.Errorf("list route stops: query route_stops route_id=%d: %w", routeID, err)
	}
	defer rows.Close()

	out := []models.RouteStop{}
	for rows.Next() {
		var s models.RouteStop
		if err := rows.Scan(&s.RouteID, &s.StopID, &s.StopOrder, &s.Name, &s.Address, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("list route stops: scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list route stops: row iteration: %w", err)
	}
	return out, nil
}

type routeStopLister interface {
	ListByRoute(ctx context.Context, routeID int64) ([]models.RouteStop, error)
}

// CachedRouteStops keeps recently read routes in an LRU. Routes change only
// through back-office edits, so entries simply expire after ttl.
type CachedRouteStops struct {
	source routeStopLister
	cache  gcache.Cache
}

func NewCachedRouteStops(source routeStopLister, size int, ttl time.Duration) *CachedRouteStops {
	return &CachedRouteStops{
		source: source,
		cache: gcache.New(size).
			LRU().
			Expiration(ttl).
			Build(),
	}
}

func (c *CachedRouteStops) ListByRoute(ctx context.Context, routeID int64) ([]models.RouteStop, error) {
	if cached, err := c.cache.Get(routeID); err == nil {
		if stops, ok := cached.([]models.RouteStop); ok {
			return append([]models.RouteStop(nil), stops...), nil
		}
	}

	stops, err := c.source.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(routeID, append([]models.RouteStop(nil), stops...))
	return stops, nil
}

// Invalidate drops a route after its stops were edited.
func (c *CachedRouteStops) Invalidate(routeID int64) {
	c.cache.Remove(routeID)
}
