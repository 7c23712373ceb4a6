package ingest

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/tealeg/xlsx/v2"
)

// dateLayouts are tried in order before falling back to an Excel serial.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"2006/01/02",
}

// parseDate reads a date cell. Blank returns the zero time; a non-blank
// value that matches no layout and is not a serial number is an error.
func parseDate(raw string, date1904 bool) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	serial, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 0 {
		return time.Time{}, eris.Errorf("unrecognized date %q", s)
	}
	return xlsx.TimeFromExcelTime(serial, date1904).UTC(), nil
}

// parseNumber reads a numeric cell. Blank returns NaN.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN(), nil
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, eris.Wrapf(err, "unrecognized number %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("unrecognized number %q", s)
	}
	return f, nil
}
