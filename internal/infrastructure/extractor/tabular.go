package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxTabularRows bounds how many data rows are rendered into the prompt.
const maxTabularRows = 200

func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", &ExtractionError{Kind: KindMalformed, Err: err}
	}
	if len(records) == 0 {
		return "", &ExtractionError{Kind: KindMalformed, Err: fmt.Errorf("empty file")}
	}
	return renderTable(records), nil
}

func extractXLSX(data []byte) (string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{Kind: KindMalformed, Err: err}
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return "", &ExtractionError{Kind: KindMalformed, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return "", &ExtractionError{Kind: KindMalformed, Err: err}
	}
	if len(rows) == 0 {
		return "", &ExtractionError{Kind: KindMalformed, Err: fmt.Errorf("sheet %q is empty", sheets[0])}
	}
	return renderTable(rows), nil
}

// renderTable produces the delimited rendering sent to the model: shape,
// column names, then a bounded number of rows.
func renderTable(records [][]string) string {
	header := records[0]
	body := records[1:]

	var out strings.Builder
	fmt.Fprintf(&out, "Shape: %d rows, %d columns\n", len(body), len(header))
	fmt.Fprintf(&out, "Columns: %s\n\n", strings.Join(header, ", "))

	limit := len(body)
	if limit > maxTabularRows {
		limit = maxTabularRows
	}
	for _, row := range body[:limit] {
		out.WriteString(strings.Join(row, "\t"))
		out.WriteByte('\n')
	}
	if len(body) > maxTabularRows {
		fmt.Fprintf(&out, "\n[%d additional rows omitted]\n", len(body)-maxTabularRows)
	}
	return out.String()
}
