// Package aggregator turns raw turning movement survey rows into traffic
// volumes per location and time of day.
package aggregator

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog"

	"github.com/chrisdamba/trafficflow/internal/models"
	"github.com/chrisdamba/trafficflow/internal/survey"
)

// TimestampLayouts are tried in order when parsing time_start.
var TimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Summary records how many rows each stage produced.
type Summary struct {
	RawRows        int
	AggregatedRows int
	FilteredRows   int // aggregated rows dropped by the year and evening filters
	TimeSlots      int
	Locations      int
}

type FeatureAggregator struct {
	fromYear int
	log      zerolog.Logger
}

func NewFeatureAggregator(fromYear int, log zerolog.Logger) *FeatureAggregator {
	return &FeatureAggregator{
		fromYear: fromYear,
		log:      log,
	}
}

// Transform runs the full pipeline: column selection, type casting, count
// aggregation and directional combination.
func (a *FeatureAggregator) Transform(df dataframe.DataFrame) ([]models.TimeSlotRecord, error) {
	slots, _, err := a.TransformWithSummary(df)
	return slots, err
}

func (a *FeatureAggregator) TransformWithSummary(df dataframe.DataFrame) ([]models.TimeSlotRecord, Summary, error) {
	var summary Summary

	projected, err := a.SelectColumns(df)
	if err != nil {
		return nil, summary, err
	}

	raw, err := a.CastColumns(projected)
	if err != nil {
		return nil, summary, err
	}
	summary.RawRows = len(raw)

	aggregated := a.AggregateCounts(raw)
	summary.AggregatedRows = len(aggregated)

	slots := a.CombineTraffic(aggregated)
	summary.TimeSlots = len(slots)
	summary.Locations = countLocations(slots)
	summary.FilteredRows = a.countExcluded(aggregated)

	a.log.Info().
		Int("raw_rows", summary.RawRows).
		Int("aggregated_rows", summary.AggregatedRows).
		Int("filtered_rows", summary.FilteredRows).
		Int("time_slots", summary.TimeSlots).
		Int("locations", summary.Locations).
		Int("from_year", a.fromYear).
		Msg("survey aggregated")

	return slots, summary, nil
}

// SelectColumns projects df onto the identity columns and every movement
// count column. All missing columns are reported at once.
func (a *FeatureAggregator) SelectColumns(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	columns := models.SurveyColumns()

	present := make(map[string]struct{}, df.Ncol())
	for _, name := range df.Names() {
		present[name] = struct{}{}
	}

	var missing []string
	for _, name := range columns {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return dataframe.DataFrame{}, &SchemaError{Missing: missing}
	}

	projected := df.Select(columns)
	if projected.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to select survey columns: %w", projected.Err)
	}
	return projected, nil
}

// CastColumns types a projected table: count_date as a calendar date,
// time_start as a timestamp, coordinates as nullable floats and every
// movement column as a non-negative integer (null counts as zero).
func (a *FeatureAggregator) CastColumns(df dataframe.DataFrame) ([]models.RawRecord, error) {
	var (
		dates     = df.Col(models.ColumnCountDate)
		locIDs    = df.Col(models.ColumnLocationID)
		locations = df.Col(models.ColumnLocation)
		lngs      = df.Col(models.ColumnLng)
		lats      = df.Col(models.ColumnLat)
		starts    = df.Col(models.ColumnTimeStart)
		ends      = df.Col(models.ColumnTimeEnd)
	)
	countCols := make([]series.Series, len(models.Movements))
	for i, m := range models.Movements {
		countCols[i] = df.Col(m.Column())
	}

	records := make([]models.RawRecord, df.Nrow())
	for i := range records {
		row := i + 1

		countDate, err := parseDate(dates, i, row)
		if err != nil {
			return nil, err
		}
		timeStart, err := parseTimestamp(starts, i, row)
		if err != nil {
			return nil, err
		}
		lng, err := parseCoordinate(lngs, models.ColumnLng, i, row)
		if err != nil {
			return nil, err
		}
		lat, err := parseCoordinate(lats, models.ColumnLat, i, row)
		if err != nil {
			return nil, err
		}

		counts := make([]int64, len(countCols))
		for j, col := range countCols {
			counts[j], err = parseCount(col, models.Movements[j].Column(), i, row)
			if err != nil {
				return nil, err
			}
		}

		locationID, _ := survey.Cell(locIDs, i)
		location, _ := survey.Cell(locations, i)
		timeEnd, _ := survey.Cell(ends, i)

		records[i] = models.RawRecord{
			CountDate:  countDate,
			LocationID: locationID,
			Location:   location,
			Lng:        lng,
			Lat:        lat,
			TimeStart:  timeStart,
			TimeEnd:    timeEnd,
			Counts:     counts,
		}
	}

	return records, nil
}

// AggregateCounts sums the movement counts of rows sharing a date, location,
// coordinates and time bucket. Output is ordered by (count_date, time_start).
func (a *FeatureAggregator) AggregateCounts(rows []models.RawRecord) []models.AggregatedRecord {
	groups := newCountGroups(len(rows))
	for _, r := range rows {
		groups.add(models.AggregatedRecord{
			CountDate:  r.CountDate,
			LocationID: r.LocationID,
			Lng:        r.Lng,
			Lat:        r.Lat,
			TimeStart:  r.TimeStart,
			Counts:     r.Counts,
		})
	}
	return groups.sorted()
}

// MergeAggregates combines aggregates computed over separate batches of the
// same survey into the aggregate of the whole survey.
func (a *FeatureAggregator) MergeAggregates(parts ...[]models.AggregatedRecord) []models.AggregatedRecord {
	groups := newCountGroups(0)
	for _, part := range parts {
		for _, r := range part {
			groups.add(r)
		}
	}
	return groups.sorted()
}

// CombineTraffic collapses the movement counts to north-south and east-west
// totals, drops rows before the cutoff year or starting at 18:00 or later,
// and sums the remaining traffic per location and time of day.
func (a *FeatureAggregator) CombineTraffic(rows []models.AggregatedRecord) []models.TimeSlotRecord {
	type slotKey struct {
		locationID string
		lng, lat   sql.NullFloat64
		hour, min  int
	}

	index := make(map[slotKey]int)
	var slots []models.TimeSlotRecord
	for _, r := range rows {
		if !a.qualifies(r.TimeStart) {
			continue
		}

		key := slotKey{
			locationID: r.LocationID,
			lng:        r.Lng,
			lat:        r.Lat,
			hour:       r.TimeStart.Hour(),
			min:        r.TimeStart.Minute(),
		}
		total := r.NSTotal() + r.EWTotal()

		if i, ok := index[key]; ok {
			slots[i].TrafficTotal += total
			continue
		}
		index[key] = len(slots)
		slots = append(slots, models.TimeSlotRecord{
			LocationID:   r.LocationID,
			Lng:          r.Lng,
			Lat:          r.Lat,
			Hour:         key.hour,
			Minute:       key.min,
			TrafficTotal: total,
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Hour != slots[j].Hour {
			return slots[i].Hour < slots[j].Hour
		}
		return slots[i].Minute < slots[j].Minute
	})
	for i := range slots {
		slots[i].Time = models.TimeLabel(slots[i].Hour, slots[i].Minute)
	}

	return slots
}

func (a *FeatureAggregator) qualifies(ts time.Time) bool {
	return ts.Year() >= a.fromYear && ts.Hour() < models.EveningCutoffHour
}

// wallClock is a timestamp as written in the survey, ignoring its offset, so
// grouping agrees with the hour and minute later read from time_start.
type wallClock struct {
	year                    int
	month                   time.Month
	day, hour, min, sec, ns int
}

func wallClockOf(t time.Time) wallClock {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return wallClock{year: y, month: mo, day: d, hour: h, min: mi, sec: s, ns: t.Nanosecond()}
}

type countKey struct {
	countDate  wallClock
	locationID string
	lng, lat   sql.NullFloat64
	timeStart  wallClock
}

// countGroups accumulates counts per key, remembering first-seen order.
type countGroups struct {
	index   map[countKey]int
	records []models.AggregatedRecord
}

func newCountGroups(capacity int) *countGroups {
	return &countGroups{
		index:   make(map[countKey]int, capacity),
		records: make([]models.AggregatedRecord, 0, capacity),
	}
}

func (g *countGroups) add(r models.AggregatedRecord) {
	key := countKey{
		countDate:  wallClockOf(r.CountDate),
		locationID: r.LocationID,
		lng:        r.Lng,
		lat:        r.Lat,
		timeStart:  wallClockOf(r.TimeStart),
	}

	if i, ok := g.index[key]; ok {
		acc := g.records[i].Counts
		for j := range acc {
			if j < len(r.Counts) {
				acc[j] += r.Counts[j]
			}
		}
		return
	}

	counts := make([]int64, len(models.Movements))
	copy(counts, r.Counts)
	r.Counts = counts
	g.index[key] = len(g.records)
	g.records = append(g.records, r)
}

func (g *countGroups) sorted() []models.AggregatedRecord {
	out := g.records
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CountDate.Equal(out[j].CountDate) {
			return out[i].CountDate.Before(out[j].CountDate)
		}
		return out[i].TimeStart.Before(out[j].TimeStart)
	})
	return out
}

func parseDate(col series.Series, i, row int) (time.Time, error) {
	value, ok := survey.Cell(col, i)
	if !ok {
		return time.Time{}, &ParseError{Column: models.ColumnCountDate, Row: row, Err: errors.New("missing value")}
	}
	t, err := time.Parse(models.CountDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &ParseError{Column: models.ColumnCountDate, Row: row, Value: value, Err: err}
	}
	return t, nil
}

func parseTimestamp(col series.Series, i, row int) (time.Time, error) {
	value, ok := survey.Cell(col, i)
	if !ok {
		return time.Time{}, &ParseError{Column: models.ColumnTimeStart, Row: row, Err: errors.New("missing value")}
	}
	trimmed := strings.TrimSpace(value)
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{
		Column: models.ColumnTimeStart,
		Row:    row,
		Value:  value,
		Err:    fmt.Errorf("expected a timestamp such as %s", TimestampLayouts[1]),
	}
}

func parseCoordinate(col series.Series, column string, i, row int) (sql.NullFloat64, error) {
	value, ok := survey.Cell(col, i)
	if !ok {
		return sql.NullFloat64{}, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return sql.NullFloat64{}, &ParseError{Column: column, Row: row, Value: value, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}, nil
	}
	return sql.NullFloat64{Float64: f, Valid: true}, nil
}

func parseCount(col series.Series, column string, i, row int) (int64, error) {
	value, ok := survey.Cell(col, i)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, &ParseError{Column: column, Row: row, Value: value, Err: err}
	}
	if n < 0 {
		return 0, &ParseError{Column: column, Row: row, Value: value, Err: errors.New("count must not be negative")}
	}
	return n, nil
}

func countLocations(slots []models.TimeSlotRecord) int {
	seen := make(map[string]struct{})
	for _, s := range slots {
		seen[s.LocationID] = struct{}{}
	}
	return len(seen)
}

func (a *FeatureAggregator) countExcluded(rows []models.AggregatedRecord) int {
	excluded := 0
	for _, r := range rows {
		if !a.qualifies(r.TimeStart) {
			excluded++
		}
	}
	return excluded
}

// SlotsAt returns the time slots whose label equals label, e.g. "8:30".
func SlotsAt(slots []models.TimeSlotRecord, label string) []models.TimeSlotRecord {
	var out []models.TimeSlotRecord
	for _, s := range slots {
		if s.Time == label {
			out = append(out, s)
		}
	}
	return out
}
