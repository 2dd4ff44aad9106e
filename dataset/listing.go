package dataset

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"airbnb-cleaner/models"
)

// Listings returns a typed view of every row. Cells that are blank or do not
// parse leave the field at its zero value.
func (t *Table) Listings() []*models.Listing {
	records := t.Records()
	if len(records) < 2 {
		return []*models.Listing{}
	}

	idx := make(map[string]int, len(records[0]))
	for i, n := range records[0] {
		if _, seen := idx[n]; !seen {
			idx[n] = i
		}
	}
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]*models.Listing, 0, len(records)-1)
	for _, row := range records[1:] {
		l := &models.Listing{
			ID:                 cell(row, models.ColID),
			Name:               cell(row, models.ColName),
			NeighbourhoodGroup: cell(row, models.ColNeighbourhoodGroup),
			Neighbourhood:      cell(row, models.ColNeighbourhood),
			RoomType:           cell(row, models.ColRoomType),
			Price:              toFloat(cell(row, models.ColPrice)),
			Latitude:           toFloat(cell(row, models.ColLatitude)),
			Longitude:          toFloat(cell(row, models.ColLongitude)),
			MinimumNights:      toInt(cell(row, models.ColMinimumNights)),
			NumberOfReviews:    toInt(cell(row, models.ColNumberOfReviews)),
		}
		if d, err := time.Parse(models.DateLayout, cell(row, models.ColLastReview)); err == nil {
			l.LastReview = &d
		}
		out = append(out, l)
	}
	return out
}

func toFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0
	}
	return f
}

func toInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := cast.ToIntE(s)
	if err != nil {
		return 0
	}
	return n
}
