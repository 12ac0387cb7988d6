package external

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/ajanes93/feed-ai-sub001/internal/trend"
)

// seriesRow is one raw observation as published by a series endpoint.
// Values arrive as strings in CSV and sometimes in JSON too, so parsing is
// deferred to toPoints.
type seriesRow struct {
	Date  string `csv:"date" json:"date"`
	Value string `csv:"value" json:"value"`
}

// ParseSeries decodes a time series body in the given format ("json" or
// "csv") into points ordered newest-first. Rows with unparseable dates or
// non-numeric values are logged and skipped, never fatal.
func ParseSeries(body, format string) ([]trend.Point, error) {
	var rows []seriesRow
	switch format {
	case "csv":
		if err := csvutil.Unmarshal([]byte(body), &rows); err != nil {
			return nil, fmt.Errorf("failed to parse CSV series: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal([]byte(body), &rows); err != nil {
			// Some endpoints publish numbers unquoted; retry with a
			// numeric value field.
			var numeric []struct {
				Date  string  `json:"date"`
				Value float64 `json:"value"`
			}
			if jsonErr := json.Unmarshal([]byte(body), &numeric); jsonErr != nil {
				return nil, fmt.Errorf("failed to parse JSON series: %w", err)
			}
			for _, row := range numeric {
				rows = append(rows, seriesRow{Date: row.Date, Value: strconv.FormatFloat(row.Value, 'f', -1, 64)})
			}
		}
	default:
		return nil, fmt.Errorf("unknown series format %q", format)
	}

	points := toPoints(rows)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.After(points[j].Date) })
	return points, nil
}

func toPoints(rows []seriesRow) []trend.Point {
	var points []trend.Point
	for _, row := range rows {
		date, err := parseSeriesDate(row.Date)
		if err != nil {
			log.Printf("Warning: skipping series row with bad date %q", row.Date)
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
		if err != nil {
			log.Printf("Warning: skipping series row %s with non-numeric value %q", row.Date, row.Value)
			continue
		}
		points = append(points, trend.Point{Date: date, Value: value})
	}
	return points
}

var seriesDateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02", "01/02/2006"}

func parseSeriesDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range seriesDateLayouts {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
