package models

import "fmt"

// Movement identifies one directional count column of a turning movement survey.
type Movement struct {
	Direction Direction
	Vehicle   VehicleClass
	Turn      Turn
}

// Movements is the cross product Directions x VehicleClasses x Turns in
// enumeration order. Count slices throughout the module are indexed by it.
var Movements = buildMovements(Directions, VehicleClasses, Turns)

func buildMovements(directions []Direction, vehicles []VehicleClass, turns []Turn) []Movement {
	movements := make([]Movement, 0, len(directions)*len(vehicles)*len(turns))
	for _, d := range directions {
		for _, v := range vehicles {
			for _, t := range turns {
				movements = append(movements, Movement{Direction: d, Vehicle: v, Turn: t})
			}
		}
	}
	return movements
}

// Column returns the survey column name, e.g. "nb_cars_l".
func (m Movement) Column() string {
	return fmt.Sprintf("%s_%s_%s", m.Direction, m.Vehicle, m.Turn)
}

// MovementColumns lists the count column names in Movements order.
func MovementColumns() []string {
	columns := make([]string, len(Movements))
	for i, m := range Movements {
		columns[i] = m.Column()
	}
	return columns
}

// SurveyColumns is the full projection applied to a raw survey table.
func SurveyColumns() []string {
	columns := make([]string, 0, len(IdentityColumns)+len(Movements))
	columns = append(columns, IdentityColumns...)
	return append(columns, MovementColumns()...)
}

// MovementIndex returns the position of a count column in Movements, or -1.
func MovementIndex(column string) int {
	for i, m := range Movements {
		if m.Column() == column {
			return i
		}
	}
	return -1
}
