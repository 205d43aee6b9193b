package output

import (
	"database/sql"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/chrisdamba/trafficflow/internal/models"
)

type CSVOutput struct{}

func (c *CSVOutput) Format() string { return models.OutputFormatCSV }

func (c *CSVOutput) Write(path string, records []models.TimeSlotRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	csvWriter := csv.NewWriter(file)
	if err := csvWriter.Write(models.TimeSlotColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.LocationID,
			formatCoordinate(r.Lng),
			formatCoordinate(r.Lat),
			strconv.Itoa(r.Hour),
			strconv.Itoa(r.Minute),
			strconv.FormatInt(r.TrafficTotal, 10),
			r.Time,
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return err
	}
	return file.Close()
}

func formatCoordinate(c sql.NullFloat64) string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatFloat(c.Float64, 'f', -1, 64)
}
