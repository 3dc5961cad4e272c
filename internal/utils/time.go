package utils

import (
	"strings"
	"time"
)

const (
	layoutDate  = "2006-01-02"
	layoutClock = "15:04"
)

// Clock yields the current instant in the civil location used for "today".
type Clock interface {
	Now() time.Time
}

// CivilClock reads the wall clock and converts it into Location.
type CivilClock struct {
	Location *time.Location
}

func (c CivilClock) Now() time.Time {
	return time.Now().In(c.location())
}

func (c CivilClock) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// LoadLocation resolves an IANA zone name, defaulting to time.Local for "".
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// CivilDate truncates t to midnight of its calendar date in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate formats a date-only value as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(layoutDate)
}

// FormatClock renders HH:MM in loc, or nil when t is nil.
func FormatClock(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(orLocal(loc)).Format(layoutClock)
	return &s
}

// FormatTimestamp renders RFC3339 in loc, or nil when t is nil.
func FormatTimestamp(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(orLocal(loc)).Format(time.RFC3339)
	return &s
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
