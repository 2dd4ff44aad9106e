package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ByNeighbourhood: make(map[string]int),
		ByRoomType:      make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)
	report.MinPrice = listings[0].Price
	report.MaxPrice = listings[0].Price
	report.MostExpensive = listings[0]

	var total float64
	for _, l := range listings {
		total += l.Price
		if l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
		if l.NeighbourhoodGroup != "" {
			report.ByNeighbourhood[l.NeighbourhoodGroup]++
		}
		if l.RoomType != "" {
			report.ByRoomType[l.RoomType]++
		}

		if l.LastReview == nil {
			report.NullReviews++
			continue
		}
		if report.EarliestReview == nil || l.LastReview.Before(*report.EarliestReview) {
			report.EarliestReview = l.LastReview
		}
		if report.LatestReview == nil || l.LastReview.After(*report.LatestReview) {
			report.LatestReview = l.LastReview
		}
	}
	report.AveragePrice = round2(total / float64(len(listings)))
	report.MinPrice = round2(report.MinPrice)
	report.MaxPrice = round2(report.MaxPrice)

	return report
}

// Log writes a compact summary through the service logger.
func (s *InsightService) Log(r *models.InsightReport) {
	if r.TotalListings == 0 {
		s.logger.Warn("[insights] Cleaned dataset is empty")
		return
	}
	s.logger.Info("[insights] %d listings | price avg $%.2f min $%.2f max $%.2f | %d without review date",
		r.TotalListings, r.AveragePrice, r.MinPrice, r.MaxPrice, r.NullReviews)
	for _, kc := range sortedCounts(r.ByNeighbourhood) {
		s.logger.Debug("[insights] neighbourhood_group %s: %d", kc.key, kc.count)
	}
}

// Print renders the report as a plain-text table.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n  CLEANED DATASET SUMMARY\n%s\n\n", sep, sep)

	fmt.Fprintf(w, "  Overview\n  %s\n", thin)
	fmt.Fprintf(w, "  Listings kept          : %d\n", r.TotalListings)
	fmt.Fprintf(w, "  Without review date    : %d\n", r.NullReviews)
	if r.EarliestReview != nil && r.LatestReview != nil {
		fmt.Fprintf(w, "  Review dates           : %s → %s\n",
			r.EarliestReview.Format(models.DateLayout), r.LatestReview.Format(models.DateLayout))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Price Statistics (per night)\n  %s\n", thin)
	if r.TotalListings > 0 {
		fmt.Fprintf(w, "  Average price : $%.2f\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : $%.2f\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : $%.2f\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Most Expensive Listing\n  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Name, 50))
		fmt.Fprintf(w, "  Area  : %s\n", r.MostExpensive.NeighbourhoodGroup)
		fmt.Fprintf(w, "  Price : $%.2f/night\n\n", r.MostExpensive.Price)
	}

	printCounts(w, "Listings by Neighbourhood Group", thin, r.ByNeighbourhood)
	printCounts(w, "Listings by Room Type", thin, r.ByRoomType)

	fmt.Fprintf(w, "%s\n\n", sep)
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders by count descending, then key, so output is stable.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{k, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func printCounts(w io.Writer, title, thin string, m map[string]int) {
	fmt.Fprintf(w, "  %s\n  %s\n", title, thin)
	if len(m) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}
	for _, kc := range sortedCounts(m) {
		fmt.Fprintf(w, "  %-30s %d\n", truncate(kc.key, 28), kc.count)
	}
	fmt.Fprintln(w)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
