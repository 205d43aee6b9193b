package models

import (
	"database/sql"
	"fmt"
	"time"
)

// RawRecord is one row of a turning movement survey: the counts observed at
// one location during one 15 minute bucket.
type RawRecord struct {
	CountDate  time.Time
	LocationID string
	Location   string
	Lng        sql.NullFloat64
	Lat        sql.NullFloat64
	TimeStart  time.Time
	TimeEnd    string
	Counts     []int64 // indexed by Movements
}

// AggregatedRecord holds the movement counts of every raw row sharing the
// same location, date and time bucket.
type AggregatedRecord struct {
	CountDate  time.Time
	LocationID string
	Lng        sql.NullFloat64
	Lat        sql.NullFloat64
	TimeStart  time.Time
	Counts     []int64
}

// NSTotal sums every northbound and southbound count.
func (r AggregatedRecord) NSTotal() int64 {
	return r.axisTotal(AxisNorthSouth)
}

// EWTotal sums every eastbound and westbound count.
func (r AggregatedRecord) EWTotal() int64 {
	return r.axisTotal(AxisEastWest)
}

func (r AggregatedRecord) axisTotal(axis Axis) int64 {
	var total int64
	for i, m := range Movements {
		if i < len(r.Counts) && m.Direction.Axis() == axis {
			total += r.Counts[i]
		}
	}
	return total
}

// TimeSlotRecord is the traffic volume of one location at one time of day,
// summed over every qualifying survey date.
type TimeSlotRecord struct {
	LocationID   string          `json:"location_id"`
	Lng          sql.NullFloat64 `json:"-"`
	Lat          sql.NullFloat64 `json:"-"`
	Hour         int             `json:"time_start_hour"`
	Minute       int             `json:"time_start_min"`
	TrafficTotal int64           `json:"traffic_total"`
	Time         string          `json:"time"`
}

// TimeLabel renders the display label used on the plot x axis. Minutes are
// not zero padded: 8:30, 14:0.
func TimeLabel(hour, minute int) string {
	return fmt.Sprintf("%d:%d", hour, minute)
}
