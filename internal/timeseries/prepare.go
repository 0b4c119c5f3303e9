// Package timeseries turns irregular point samples into evenly spaced daily series.
package timeseries

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// Point is a single dated sample
type Point struct {
	Date  time.Time
	Value float64
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / day)
}

// Prepare resamples points to one value per calendar day spanning the earliest to the latest
// date. Samples sharing a date are averaged and missing days are filled by linear
// interpolation between the nearest known neighbours. Fewer than two distinct dates yields nil.
// The input slice is not modified.
func Prepare(points []Point) []Point {
	known := collapse(points)
	if len(known) < 2 {
		return nil
	}

	first := known[0].Date
	span := DaysBetween(first, known[len(known)-1].Date)
	out := make([]Point, 0, span+1)

	for i := 0; i < len(known)-1; i++ {
		left, right := known[i], known[i+1]
		gap := DaysBetween(left.Date, right.Date)
		for k := 0; k < gap; k++ {
			frac := float64(k) / float64(gap)
			out = append(out, Point{
				Date:  left.Date.AddDate(0, 0, k),
				Value: left.Value + (right.Value-left.Value)*frac,
			})
		}
	}
	out = append(out, known[len(known)-1])

	return out
}

// Values extracts the sample values of a series
func Values(points []Point) []float64 {
	vals := make([]float64, len(points))
	for i, p := range points {
		vals[i] = p.Value
	}
	return vals
}

// collapse sorts by day and averages samples that fall on the same day.
func collapse(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]Point, len(points))
	for i, p := range points {
		sorted[i] = Point{Date: Day(p.Date), Value: p.Value}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]Point, 0, len(sorted))
	sum, n := sorted[0].Value, 1
	current := sorted[0].Date
	for _, p := range sorted[1:] {
		if p.Date.Equal(current) {
			sum += p.Value
			n++
			continue
		}
		out = append(out, Point{Date: current, Value: sum / float64(n)})
		current, sum, n = p.Date, p.Value, 1
	}
	out = append(out, Point{Date: current, Value: sum / float64(n)})

	return out
}
