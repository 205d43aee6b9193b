package output

import (
	"github.com/xuri/excelize/v2"

	"github.com/chrisdamba/trafficflow/internal/models"
)

// SheetName is the worksheet holding the time slot table.
const SheetName = "traffic"

type XLSXOutput struct{}

func (x *XLSXOutput) Format() string { return models.OutputFormatXLSX }

func (x *XLSXOutput) Write(path string, records []models.TimeSlotRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(models.TimeSlotColumns))
	for i, col := range models.TimeSlotColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.LocationID,
			cellValue(r.Lng.Float64, r.Lng.Valid),
			cellValue(r.Lat.Float64, r.Lat.Valid),
			r.Hour,
			r.Minute,
			r.TrafficTotal,
			r.Time,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func cellValue(v float64, valid bool) interface{} {
	if !valid {
		return nil
	}
	return v
}
