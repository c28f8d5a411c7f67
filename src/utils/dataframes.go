package utils

//nolint:depguard
import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// LoadSnapshotFile reads a broker export into raw rows, header first. Both .csv and .xlsx are accepted.
func LoadSnapshotFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadSnapshotXLSX(file)
	default:
		return ReadSnapshotCSV(file)
	}
}

// ReadSnapshotCSV keeps every cell as its raw string. Type detection is disabled so values like "1,234.56 C$"
// reach the parser untouched. Rows are padded or cut to the header width, so a ragged footer line such as
// "Total,," does not reject the file.
func ReadSnapshotCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("snapshot csv has no data rows")
	}

	width := len(records[0])
	for i, record := range records[1:] {
		switch {
		case len(record) < width:
			records[i+1] = append(record, make([]string, width-len(record))...)
		case len(record) > width:
			records[i+1] = record[:width]
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load snapshot csv: %w", df.Err)
	}
	return df.Records(), nil
}

// ReadSnapshotXLSX returns the rows of the first sheet of the workbook.
func ReadSnapshotXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("snapshot workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("snapshot workbook has no data rows")
	}
	return rows, nil
}
