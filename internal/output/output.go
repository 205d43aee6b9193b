package output

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/chrisdamba/trafficflow/internal/models"
)

// TableWriter persists the aggregated time slot table in one file format.
type TableWriter interface {
	Format() string
	Write(path string, records []models.TimeSlotRecord) error
}

func NewTableWriter(format string) (TableWriter, error) {
	switch format {
	case models.OutputFormatCSV:
		return &CSVOutput{}, nil
	case models.OutputFormatJSON:
		return &JSONOutput{}, nil
	case models.OutputFormatParquet:
		return &ParquetOutput{}, nil
	case models.OutputFormatXLSX:
		return &XLSXOutput{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FileName is the table file name for a format, e.g. traffic_time_slots.csv.
func FileName(basename, format string) string {
	return basename + "." + format
}

// WriteTables writes records into dir once per format and returns the paths
// written, in format order.
func WriteTables(dir, basename string, formats []string, records []models.TimeSlotRecord) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		w, err := NewTableWriter(format)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, FileName(basename, format))
		if err := w.Write(path, records); err != nil {
			return paths, fmt.Errorf("failed to write %s table: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func coordinate(c sql.NullFloat64) *float64 {
	if !c.Valid {
		return nil
	}
	f := c.Float64
	return &f
}
