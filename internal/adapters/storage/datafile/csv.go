package datafile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/domain"
)

// csvHeader is the column order written by encodeCSV.
var csvHeader = []string{"row_id", "row", "task_id", "task", "from", "to", "color", "priority", "content"}

// csvTimeLayouts are tried in order when parsing from/to cells.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// decodeCSV reads one task per record. Records sharing a row id (or a row
// name when the id is empty) are grouped into one row in first-seen order.
// A record without task columns declares an empty row.
func decodeCSV(r io.Reader) ([]domain.RowData, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %v: %w", err, ErrInvalidDataFile)
	}
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	_, hasID := columns["row_id"]
	_, hasName := columns["row"]
	if !hasID && !hasName {
		return nil, fmt.Errorf("csv needs a row_id or row column, got %v: %w", header, ErrInvalidDataFile)
	}

	var rows []domain.RowData
	index := map[string]int{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %v: %w", err, ErrInvalidDataFile)
		}
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		rowID, rowName := cell("row_id"), cell("row")
		key := rowID
		if key == "" {
			key = "name:" + rowName
		}
		ri, ok := index[key]
		if !ok {
			ri = len(rows)
			index[key] = ri
			rows = append(rows, domain.RowData{ID: rowID, Name: rowName})
		}

		if cell("task_id") == "" && cell("task") == "" && cell("from") == "" {
			continue
		}
		task := domain.TaskData{
			ID:      cell("task_id"),
			Name:    cell("task"),
			Color:   cell("color"),
			Content: cell("content"),
		}
		if task.From, err = parseCSVTime(cell("from")); err != nil {
			return nil, fmt.Errorf("line %d from: %w", line, err)
		}
		if task.To, err = parseCSVTime(cell("to")); err != nil {
			return nil, fmt.Errorf("line %d to: %w", line, err)
		}
		if raw := cell("priority"); raw != "" {
			if task.Priority, err = strconv.Atoi(raw); err != nil {
				return nil, fmt.Errorf("line %d priority %q: %w", line, raw, ErrInvalidDataFile)
			}
		}
		rows[ri].Tasks = append(rows[ri].Tasks, task)
	}
	if rows == nil {
		rows = []domain.RowData{}
	}
	return rows, nil
}

func parseCSVTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %q: %w", raw, ErrInvalidDataFile)
}

// encodeCSV writes one record per task, and one bare record per empty row.
func encodeCSV(w io.Writer, rows []domain.RowData) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, row := range rows {
		if len(row.Tasks) == 0 {
			if err := writer.Write([]string{row.ID, row.Name, "", "", "", "", "", "", ""}); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			continue
		}
		for _, task := range row.Tasks {
			record := []string{
				row.ID,
				row.Name,
				task.ID,
				task.Name,
				formatCSVTime(task.From),
				formatCSVTime(task.To),
				task.Color,
				"",
				task.Content,
			}
			if task.Priority != 0 {
				record[7] = strconv.Itoa(task.Priority)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatCSVTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
