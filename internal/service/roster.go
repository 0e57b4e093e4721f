package service

import (
	"bytes"
	"fmt"

	"carelog/backend/internal/entity"
	"carelog/backend/internal/repository/postgres/worker"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// RosterExcel builds the worker roster workbook: one row per worker with a
// column for each weekday's shift.
func RosterExcel(workers []worker.GetListResponse) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Sheet1"

	headers := []string{"Name", "Role", "PIN"}
	headers = append(headers, entity.DaysOfWeek...)
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, errors.Wrap(err, "building header cell name")
		}
		f.SetCellValue(sheet, cell, header)
	}

	rowNum := 2
	for _, w := range workers {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), deref(w.Name))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), deref(w.Role))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), deref(w.Pin))

		for i, day := range entity.DaysOfWeek {
			shift := w.Schedule[day]
			if shift == "" {
				shift = entity.ShiftOffDay
			}
			cell, err := excelize.CoordinatesToCellName(i+4, rowNum)
			if err != nil {
				return nil, errors.Wrap(err, "building schedule cell name")
			}
			f.SetCellValue(sheet, cell, shift)
		}
		rowNum++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "writing roster workbook")
	}

	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
