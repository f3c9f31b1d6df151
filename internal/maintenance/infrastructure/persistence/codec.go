package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database"
	jsoniter "github.com/json-iterator/go"
)

// sqliteTimeLayout is fixed-width so stored values order lexicographically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// encodeTime converts t into the driver's column representation.
func encodeTime(d database.Driver, t time.Time) any {
	t = t.UTC()
	if d == database.DriverSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func encodeOptionalTime(d database.Driver, t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(d, *t)
}

// dbTime scans TIMESTAMPTZ values and the TEXT form used in SQLite.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("scan time: cannot parse %q", s)
}

func (t dbTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
