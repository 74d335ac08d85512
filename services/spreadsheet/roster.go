package xlsxsvc

import (
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/myschool-rw/myschool/core/student"
)

var (
	ErrInvalidFile   = errors.New("invalid Excel file")
	ErrInvalidFormat = errors.New("invalid Excel format: student_name and class_name columns are required")
)

// roster columns
const (
	colStudentName = "student_name"
	colClassName   = "class_name"
)

// ReadRoster reads students from the first sheet of an xlsx workbook.
// The header row must hold student_name and class_name, in any order; other columns are ignored.
func ReadRoster(r io.Reader) ([]student.NewStudent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrInvalidFile
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrInvalidFormat
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, ErrInvalidFile
	}
	if len(rows) == 0 {
		return nil, ErrInvalidFormat
	}

	nameIdx, classIdx := -1, -1
	for i, cell := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case colStudentName:
			nameIdx = i
		case colClassName:
			classIdx = i
		}
	}
	if nameIdx < 0 || classIdx < 0 {
		return nil, ErrInvalidFormat
	}

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	stds := make([]student.NewStudent, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		name, class := cell(row, nameIdx), cell(row, classIdx)
		if name == "" && class == "" {
			continue
		}
		stds = append(stds, student.NewStudent{Name: name, ClassName: class})
	}
	return stds, nil
}
