package models

// Direction is the approach a vehicle enters the intersection from.
type Direction string

// VehicleClass is the vehicle category a survey count is broken down by.
type VehicleClass string

// Turn is the movement a vehicle makes when leaving the intersection.
type Turn string

const (
	Southbound Direction = "sb"
	Northbound Direction = "nb"
	Westbound  Direction = "wb"
	Eastbound  Direction = "eb"

	Cars  VehicleClass = "cars"
	Truck VehicleClass = "truck"
	Bus   VehicleClass = "bus"

	TurnRight   Turn = "r"
	TurnThrough Turn = "t"
	TurnLeft    Turn = "l"
)

// Axis groups directions travelling along the same road axis.
type Axis int

const (
	AxisNorthSouth Axis = iota
	AxisEastWest
)

const (
	ColumnCountDate  = "count_date"
	ColumnLocationID = "location_id"
	ColumnLocation   = "location"
	ColumnLng        = "lng"
	ColumnLat        = "lat"
	ColumnTimeStart  = "time_start"
	ColumnTimeEnd    = "time_end"

	ColumnTimeStartHour = "time_start_hour"
	ColumnTimeStartMin  = "time_start_min"
	ColumnTrafficTotal  = "traffic_total"
	ColumnTime          = "time"
)

const (
	CountDateLayout = "2006-01-02"

	// EveningCutoffHour excludes every time slot starting at or after 18:00.
	EveningCutoffHour = 18
)

var (
	Directions     = []Direction{Southbound, Northbound, Westbound, Eastbound}
	VehicleClasses = []VehicleClass{Cars, Truck, Bus}
	Turns          = []Turn{TurnRight, TurnThrough, TurnLeft}

	IdentityColumns = []string{
		ColumnCountDate,
		ColumnLocationID,
		ColumnLocation,
		ColumnLng,
		ColumnLat,
		ColumnTimeStart,
		ColumnTimeEnd,
	}

	TimeSlotColumns = []string{
		ColumnLocationID,
		ColumnLng,
		ColumnLat,
		ColumnTimeStartHour,
		ColumnTimeStartMin,
		ColumnTrafficTotal,
		ColumnTime,
	}
)

func (d Direction) Axis() Axis {
	switch d {
	case Westbound, Eastbound:
		return AxisEastWest
	default:
		return AxisNorthSouth
	}
}
