package services

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"airbnb-cleaner/models"
)

// extraDateLayouts covers slash-separated dates that cast does not know about.
var extraDateLayouts = []string{
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// dateState classifies a raw last_review cell.
type dateState int

const (
	dateValid dateState = iota
	dateBlank
	dateInvalid
)

// parseDate coerces raw to a calendar date. Blank and unparseable values both
// yield the zero time; the returned state tells them apart.
func parseDate(raw string) (time.Time, dateState) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, dateBlank
	}

	t, err := cast.ToTimeE(s)
	if err != nil {
		for _, layout := range extraDateLayouts {
			if t, err = time.Parse(layout, s); err == nil {
				break
			}
		}
	}
	if err != nil {
		return time.Time{}, dateInvalid
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), dateValid
}

// normalizeDates rewrites every value to YYYY-MM-DD, or to an empty cell for
// null. It returns the new values plus the number of null and invalid cells.
func normalizeDates(raw []string) (out []string, nulls, invalid int) {
	out = make([]string, len(raw))
	for i, v := range raw {
		d, state := parseDate(v)
		switch state {
		case dateValid:
			out[i] = d.Format(models.DateLayout)
		case dateInvalid:
			invalid++
			nulls++
		default:
			nulls++
		}
	}
	return out, nulls, invalid
}
