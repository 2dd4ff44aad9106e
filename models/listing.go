package models

import "time"

// Column names the cleaning step depends on.
const (
	ColPrice      = "price"
	ColLongitude  = "longitude"
	ColLatitude   = "latitude"
	ColLastReview = "last_review"
)

// DateLayout is the serialised form of a canonical date.
const DateLayout = "2006-01-02"

// Optional columns of the NYC listings export used for reporting.
const (
	ColID                 = "id"
	ColName               = "name"
	ColNeighbourhoodGroup = "neighbourhood_group"
	ColNeighbourhood      = "neighbourhood"
	ColRoomType           = "room_type"
	ColMinimumNights      = "minimum_nights"
	ColNumberOfReviews    = "number_of_reviews"
)

// Listing is a typed view over one row of a cleaned dataset.
// Columns missing from the dataset leave the corresponding field zero.
type Listing struct {
	ID                 string
	Name               string
	NeighbourhoodGroup string
	Neighbourhood      string
	RoomType           string
	Price              float64
	Latitude           float64
	Longitude          float64
	MinimumNights      int
	NumberOfReviews    int

	// LastReview is nil when the source value was blank or not a date.
	LastReview *time.Time
}

// InsightReport summarises a cleaned dataset.
type InsightReport struct {
	TotalListings   int
	AveragePrice    float64
	MinPrice        float64
	MaxPrice        float64
	NullReviews     int
	MostExpensive   *Listing
	ByNeighbourhood map[string]int
	ByRoomType      map[string]int
	EarliestReview  *time.Time
	LatestReview    *time.Time
}
