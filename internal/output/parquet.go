package output

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/chrisdamba/trafficflow/internal/models"
)

type ParquetOutput struct{}

// parquetRecord is the on-disk schema of the time slot table.
type parquetRecord struct {
	LocationID   string   `parquet:"name=location_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Lng          *float64 `parquet:"name=lng, type=DOUBLE, repetitiontype=OPTIONAL"`
	Lat          *float64 `parquet:"name=lat, type=DOUBLE, repetitiontype=OPTIONAL"`
	Hour         int32    `parquet:"name=time_start_hour, type=INT32"`
	Minute       int32    `parquet:"name=time_start_min, type=INT32"`
	TrafficTotal int64    `parquet:"name=traffic_total, type=INT64"`
	Time         string   `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (p *ParquetOutput) Format() string { return models.OutputFormatParquet }

func (p *ParquetOutput) Write(path string, records []models.TimeSlotRecord) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(parquetRecord), 1)
	if err != nil {
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	for _, r := range records {
		row := parquetRecord{
			LocationID:   r.LocationID,
			Lng:          coordinate(r.Lng),
			Lat:          coordinate(r.Lat),
			Hour:         int32(r.Hour),
			Minute:       int32(r.Minute),
			TrafficTotal: r.TrafficTotal,
			Time:         r.Time,
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return fw.Close()
}
