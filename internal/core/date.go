package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for string-shaped dates coming off the wire. The store
// itself always hands back a time.Time; clients may still send a bare
// calendar day or a full RFC3339 stamp.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseWhen collapses the shapes a transaction date may carry (an RFC3339 or
// YYYY-MM-DD string, or an epoch-milliseconds number) into a single
// time.Time. Aggregation code never sees the raw shapes.
func ParseWhen(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("missing date")
	case time.Time:
		return d, nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty date")
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		// Epoch millis sent as a quoted number.
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	case float64:
		return time.UnixMilli(int64(d)).UTC(), nil
	case int64:
		return time.UnixMilli(d).UTC(), nil
	case json.Number:
		ms, err := d.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %q", d.String())
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized date type %T", v)
	}
}

// DayKey truncates a timestamp to its calendar day (YYYY-MM-DD). Keys are
// computed on the UTC calendar, so same-day comparisons give the same answer
// regardless of the host time zone or the offset a wire value carried.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey truncates a timestamp to its calendar month (YYYY-MM), on the UTC
// calendar like DayKey.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

func SameMonth(a, b time.Time) bool {
	return MonthKey(a) == MonthKey(b)
}
