package student

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
)

type Student struct {
	ID        int    `json:"id"`
	Name      string `json:"student_name"`
	ClassName string `json:"class_name"`
	// SchoolID is the owning school; unset for legacy students, which every school can see.
	SchoolID null.Int `json:"school_id"`
}

// VisibleTo reports whether the school `schoolID` may see (and record visits for) the student.
func (s Student) VisibleTo(schoolID int) bool {
	return !s.SchoolID.Valid || s.SchoolID.Int == schoolID
}

// NewStudent contains information needed to add a Student to a school's roster.
type NewStudent struct {
	Name      string   `json:"student_name" validate:"required,notblank"`
	ClassName string   `json:"class_name" validate:"required,notblank"`
	SchoolID  null.Int `json:"-"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.ClassName = core.CleanString(ns.ClassName)
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.Clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, *ns)
}

type QueryFilter struct {
	// SchoolID limits results to students visible to this school; 0 means every student.
	SchoolID  int    `query:"-"`
	ClassName string `query:"class_name"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.ClassName = core.CleanString(qf.ClassName)
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single Student by ID, optionally scoped to what SchoolID can see.
type GetFilter struct {
	ID       int
	SchoolID int
}

// ImportResult counts how many roster rows were added and how many were skipped.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// ErrInvalidOrdering is returned for orderings on unknown fields.
var ErrInvalidOrdering = errors.New("invalid ordering field")

var orderableFields = map[string]bool{"id": true, "student_name": true, "class_name": true}

// CheckOrdering only allows ordering by id, student_name and class_name.
func CheckOrdering(ordering []core.DBOrdering) error {
	for _, ord := range ordering {
		if !orderableFields[ord.Field] {
			return core.NewFieldValidationError("ordering", ErrInvalidOrdering)
		}
	}
	return nil
}
