package services

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"airbnb-cleaner/dataset"
	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// NYC bounding box; listings outside it are geocoding errors.
const (
	MinLongitude = -74.25
	MaxLongitude = -73.50
	MinLatitude  = 40.5
	MaxLatitude  = 41.2
)

// RequiredColumns must all be present in a dataset handed to Clean.
var RequiredColumns = []string{
	models.ColPrice,
	models.ColLongitude,
	models.ColLatitude,
	models.ColLastReview,
}

// Bounds is the inclusive price range a listing must fall in.
type Bounds struct {
	MinPrice float64
	MaxPrice float64
}

// Stats describes what a Clean call did to the dataset.
type Stats struct {
	InputRows    int
	AfterPrice   int
	OutputRows   int
	DroppedPrice int
	DroppedGeo   int
	NullDates    int
	InvalidDates int
}

// Cleaner drops price and location outliers and normalises last_review.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns a new table holding only rows whose price lies within b and
// whose coordinates lie within the NYC box, all bounds inclusive. last_review
// is rewritten to a canonical date or left empty when it is not a date.
// The input table is never modified.
func (c *Cleaner) Clean(t *dataset.Table, b Bounds) (*dataset.Table, Stats, error) {
	st := Stats{InputRows: t.Len()}
	if err := t.Require(RequiredColumns...); err != nil {
		return nil, st, err
	}

	priced, err := t.Filter(models.ColPrice, func(v string) bool {
		return between(v, b.MinPrice, b.MaxPrice)
	})
	if err != nil {
		return nil, st, err
	}
	st.AfterPrice = priced.Len()
	st.DroppedPrice = st.InputRows - st.AfterPrice
	c.logger.Info("[cleaner] Price filter [%.2f, %.2f] kept %d of %d rows",
		b.MinPrice, b.MaxPrice, st.AfterPrice, st.InputRows)

	raw, err := priced.Column(models.ColLastReview)
	if err != nil {
		return nil, st, err
	}
	dates, nulls, invalid := normalizeDates(raw)
	st.NullDates, st.InvalidDates = nulls, invalid
	if invalid > 0 {
		c.logger.Warn("[cleaner] %d last_review values are not dates and were set to null", invalid)
	}
	dated, err := priced.Replace(models.ColLastReview, dates)
	if err != nil {
		return nil, st, err
	}

	lons, err := dated.Column(models.ColLongitude)
	if err != nil {
		return nil, st, err
	}
	lats, err := dated.Column(models.ColLatitude)
	if err != nil {
		return nil, st, err
	}
	mask := make([]bool, len(lons))
	for i := range mask {
		mask[i] = between(lons[i], MinLongitude, MaxLongitude) &&
			between(lats[i], MinLatitude, MaxLatitude)
	}
	out, err := dated.Select(mask)
	if err != nil {
		return nil, st, err
	}
	st.OutputRows = out.Len()
	st.DroppedGeo = st.AfterPrice - st.OutputRows

	c.logger.Info("[cleaner] Cleaned %d → %d listings (price dropped %d, geo dropped %d)",
		st.InputRows, st.OutputRows, st.DroppedPrice, st.DroppedGeo)
	return out, st, nil
}

// between reports whether raw is a number within [lo, hi]. Blank and
// non-numeric cells are missing values and never match.
func between(raw string, lo, hi float64) bool {
	v, ok := parseNumber(raw)
	return ok && v >= lo && v <= hi
}

func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
