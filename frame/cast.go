package frame

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// TimeLayout is the textual timestamp form the API exchanges.
const TimeLayout = "2006-01-02T15:04:05"

// ColumnSchema declares the expected type of one response property, using
// the OpenAPI vocabulary ("number", "string", format "date-time").
type ColumnSchema struct {
	Name   string
	Type   string
	Format string
}

// Cast converts columns in place according to the declared schema:
// "number" properties become Float64 series, "string" properties become
// String series, and "string" properties with format "date-time" become
// Time series. Properties naming no column, and properties whose type is
// not recognized, are skipped; that pass-through keeps undeclared or
// novel columns as decoded.
func (t *Table) Cast(schema []ColumnSchema) error {
	for _, prop := range schema {
		col, ok := t.Column(prop.Name)
		if !ok {
			continue
		}
		switch prop.Type {
		case "number", "integer":
			if err := col.castFloat64(); err != nil {
				return fmt.Errorf("frame: column %q: %w", col.Name, err)
			}
		case "string":
			if prop.Format == "date-time" {
				if err := col.castTime(); err != nil {
					return fmt.Errorf("frame: column %q: %w", col.Name, err)
				}
			} else if err := col.castString(); err != nil {
				return fmt.Errorf("frame: column %q: %w", col.Name, err)
			}
		}
	}
	return nil
}

func (s *Series) castFloat64() error {
	for i, v := range s.vals {
		switch x := v.(type) {
		case nil:
			s.vals[i] = math.NaN()
		case float64:
			// already the JSON decode type
		case float32:
			s.vals[i] = float64(x)
		case int:
			s.vals[i] = float64(x)
		case int64:
			s.vals[i] = float64(x)
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return fmt.Errorf("cast %q to float64: %w", x, err)
			}
			s.vals[i] = f
		default:
			return fmt.Errorf("cast %T to float64", v)
		}
	}
	s.Type = Float64
	return nil
}

func (s *Series) castString() error {
	for i, v := range s.vals {
		switch x := v.(type) {
		case nil:
			// keep nil cells
		case string:
			_ = x
		default:
			s.vals[i] = fmt.Sprint(v)
		}
	}
	s.Type = String
	return nil
}

func (s *Series) castTime() error {
	for i, v := range s.vals {
		switch x := v.(type) {
		case nil:
			// keep nil cells
		case time.Time:
			// already parsed
		case string:
			ts, err := parseTimestamp(x)
			if err != nil {
				return err
			}
			s.vals[i] = ts
		default:
			return fmt.Errorf("cast %T to time", v)
		}
	}
	s.Type = Time
	return nil
}

// parseTimestamp accepts the API's own layout first, then falls back to
// free-form parsing for anything else (RFC3339 with zone, date only, ...).
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(TimeLayout, s); err == nil {
		return ts, nil
	}
	ts, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}
