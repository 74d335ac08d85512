package xlsxsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/visit"
)

// ContentType of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var visitHeaders = []interface{}{
	"visit_id", "student_name", "class_name", "visit_type", "visit_date", "status",
	"movement_method", "plate_number", "assigned_plate_number",
}

// WriteVisits writes `recs`, in the given order, as a one-sheet xlsx workbook.
func WriteVisits(w io.Writer, sheetName string, recs []visit.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(sheetName, "A1", &visitHeaders); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := []interface{}{
			r.ID, r.StudentName, r.ClassName, string(r.Kind), r.Date.Format(core.DateLayout), r.Status,
			r.MovementMethod.String, r.PlateNumber.String, r.AssignedPlateNumber.String,
		}
		if err = f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Wrap(err, "writing visit row")
		}
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}
