package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"tagwatch/internal/domain"
)

var columns = []string{"timestamp", "tag", "level", "priority", "value", "message", "acknowledged", "ack_user"}

// BuildCSV renders alarm events as a CSV document.
// Params: chronological event list.
// Returns: encoded CSV bytes or write error.
func BuildCSV(events []domain.AlarmEvent) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, event := range events {
		if err := writer.Write(eventRow(event)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders alarm events as an XLSX workbook with one events sheet.
// Params: chronological event list.
// Returns: encoded workbook bytes or write error.
func BuildXLSX(events []domain.AlarmEvent) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "events"
	f.SetSheetName("Sheet1", sheet)

	for i, column := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell %d: %w", i, err)
		}
		_ = f.SetCellValue(sheet, cell, column)
	}

	for rowIndex, event := range events {
		row := eventRow(event)
		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, fmt.Errorf("row %d cell %d: %w", rowIndex, colIndex, err)
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// eventRow flattens one event into export column order.
// Params: alarm event.
// Returns: string cells matching columns.
func eventRow(event domain.AlarmEvent) []string {
	user := ""
	if event.Acknowledged {
		user = event.AckUser
	}
	return []string{
		event.Timestamp.UTC().Format(time.RFC3339),
		event.Tag,
		event.Level.String(),
		event.Priority.String(),
		strconv.FormatFloat(event.Value, 'f', -1, 64),
		event.Message,
		strconv.FormatBool(event.Acknowledged),
		user,
	}
}
