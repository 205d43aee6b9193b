// Package survey loads raw turning movement survey tables.
package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NullValues are the cell contents loaded as missing values.
var NullValues = []string{"", "NA", "NaN", "<nil>", "null"}

// Every column is loaded as a string; typing is left to the aggregator so
// malformed values surface as parse errors instead of silent coercion.
func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(NullValues),
	}
}

// Read loads a CSV survey table with a header row. A header with no data
// rows is an empty survey, not an error.
func Read(r io.Reader) (dataframe.DataFrame, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read survey csv: %w", err)
	}
	return FromRecords(records)
}

// ReadFile opens path and loads it with Read.
func ReadFile(path string) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open survey file %s: %w", path, err)
	}
	defer file.Close()

	return Read(file)
}

// FromRecords builds a survey table from in-memory rows, the first of which
// is the header.
func FromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 1 {
		return empty(records[0])
	}
	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to load survey records: %w", df.Err)
	}
	return df, nil
}

// empty builds a zero-row table of string columns named by header.
func empty(header []string) (dataframe.DataFrame, error) {
	columns := make([]series.Series, len(header))
	for i, name := range header {
		columns[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(columns...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to load survey header: %w", df.Err)
	}
	return df, nil
}

// Cell returns the string value at row i of col, and false when it is null.
func Cell(col series.Series, i int) (string, bool) {
	elem := col.Elem(i)
	if elem.IsNA() {
		return "", false
	}
	return elem.String(), true
}
