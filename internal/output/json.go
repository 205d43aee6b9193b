package output

import (
	"encoding/json"
	"os"

	"github.com/chrisdamba/trafficflow/internal/models"
)

type JSONOutput struct{}

type jsonRecord struct {
	LocationID   string   `json:"location_id"`
	Lng          *float64 `json:"lng"`
	Lat          *float64 `json:"lat"`
	Hour         int      `json:"time_start_hour"`
	Minute       int      `json:"time_start_min"`
	TrafficTotal int64    `json:"traffic_total"`
	Time         string   `json:"time"`
}

func (j *JSONOutput) Format() string { return models.OutputFormatJSON }

func (j *JSONOutput) Write(path string, records []models.TimeSlotRecord) error {
	rows := make([]jsonRecord, len(records))
	for i, r := range records {
		rows[i] = jsonRecord{
			LocationID:   r.LocationID,
			Lng:          coordinate(r.Lng),
			Lat:          coordinate(r.Lat),
			Hour:         r.Hour,
			Minute:       r.Minute,
			TrafficTotal: r.TrafficTotal,
			Time:         r.Time,
		}
	}

	jsonData, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(jsonData, '\n'), 0o644)
}
