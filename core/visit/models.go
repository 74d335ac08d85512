package visit

import (
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
)

type Kind string

// Kinds
const (
	KindVisitDay      Kind = "visit_day"
	KindParentMeeting Kind = "parent_meeting"
)

var Kinds = []Kind{KindVisitDay, KindParentMeeting}

// ParseKind only accepts the exact kind literals.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) {
			return k, nil
		}
	}
	return "", ErrInvalidKind
}

// Movement methods, SOS schools only
const (
	WithCar    = "with_car"
	WithoutCar = "without_car"
)

// StatusDone is the only status a recorded visit can have.
const StatusDone = "done"

type Visit struct {
	ID                  int64       `json:"id"`
	StudentID           int         `json:"student_id"`
	Kind                Kind        `json:"visit_type"`
	Date                time.Time   `json:"-"` // calendar date, midnight UTC
	Status              string      `json:"status"`
	MovementMethod      null.String `json:"movement_method"`
	PlateNumber         null.String `json:"plate_number"`
	AssignedPlateNumber null.String `json:"assigned_plate_number"`
}

type visitAlias Visit

func (v Visit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		visitAlias
		Date string `json:"visit_date"`
	}{visitAlias(v), v.Date.Format(core.DateLayout)})
}

// Record is a Visit joined with its student.
type Record struct {
	Visit
	StudentName string
	ClassName   string
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		visitAlias
		Date        string `json:"visit_date"`
		StudentName string `json:"student_name"`
		ClassName   string `json:"class_name"`
	}{visitAlias(r.Visit), r.Date.Format(core.DateLayout), r.StudentName, r.ClassName})
}

// NewVisit contains what a parent submits to check a student in.
type NewVisit struct {
	SchoolName     string `json:"-" param:"school"`
	StudentID      int    `json:"student_id" form:"student_id"`
	Kind           string `json:"visit_type" form:"visit_type"`
	MovementMethod string `json:"movement_method" form:"movement_method"`
	PlateNumber    string `json:"plate_number" form:"plate_number"`
}

type QueryFilter struct {
	// SchoolID limits results to visits of students visible to this school.
	SchoolID int
	Kind     Kind
	Date     null.Time
}

type GetFilter struct {
	ID       int64
	SchoolID int
}

// AdminItem is one line of the grouped admin view.
type AdminItem struct {
	ID                  int64       `json:"id"`
	StudentName         string      `json:"student_name"`
	Date                string      `json:"date"`
	MovementMethod      null.String `json:"movement_method"`
	PlateNumber         null.String `json:"plate_number"`
	AssignedPlateNumber null.String `json:"assigned_plate_number"`
}

// AdminView groups visits by class label. Each group keeps ascending visit ID (arrival) order.
type AdminView struct {
	Data  map[string][]AdminItem `json:"data"`
	Stats map[string]int         `json:"stats"`
	Total int                    `json:"total"`
}

// GroupByClass builds the AdminView from records in ascending ID order.
func GroupByClass(recs []Record) AdminView {
	view := AdminView{
		Data:  make(map[string][]AdminItem),
		Stats: make(map[string]int),
		Total: len(recs),
	}
	for _, r := range recs {
		view.Data[r.ClassName] = append(view.Data[r.ClassName], AdminItem{
			ID:                  r.ID,
			StudentName:         r.StudentName,
			Date:                r.Date.Format(core.DateLayout),
			MovementMethod:      r.MovementMethod,
			PlateNumber:         r.PlateNumber,
			AssignedPlateNumber: r.AssignedPlateNumber,
		})
		view.Stats[r.ClassName]++
	}
	return view
}
