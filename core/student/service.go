package student

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrStudentExists = errors.New("student already exists")
	ErrEmptySearch   = errors.New("search query cannot be blank")
)

type (
	Repository interface {
		// StudentExists reports whether the school already owns a student with this name and class (case-insensitive).
		StudentExists(ctx context.Context, schoolID null.Int, name, className string) (bool, error)
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// CreateStudents inserts all students or none.
		CreateStudents(ctx context.Context, stds []Student) ([]Student, error)
		// QueryStudents returns matching students ordered by `ordering`, ascending ID by default.
		// QueryFilter.Search does a case-insensitive substring match on Student.Name.
		QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		// DeleteStudent also removes the student's visits.
		DeleteStudent(ctx context.Context, id int) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, ns NewStudent) error
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		Search(ctx context.Context, schoolID int, q string) ([]Student, error)
		GetByID(ctx context.Context, schoolID, id int) (Student, error)
		Delete(ctx context.Context, schoolID, id int) (Student, error)
		Import(ctx context.Context, schoolID int, rows []NewStudent) (ImportResult, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, ns NewStudent) error {
	exists, err := svc.repo.StudentExists(ctx, ns.SchoolID, ns.Name, ns.ClassName)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrStudentExists)
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	return svc.repo.CreateStudent(ctx, Student{
		Name:      ns.Name,
		ClassName: ns.ClassName,
		SchoolID:  ns.SchoolID,
	})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	if err := CheckOrdering(ordering); err != nil {
		return nil, err
	}
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

// Search finds the students visible to the school whose name contains `q`,
// best matches first.
func (svc *service) Search(ctx context.Context, schoolID int, q string) ([]Student, error) {
	q = core.CleanString(q)
	if q == "" {
		return nil, core.NewFieldValidationError("q", ErrEmptySearch)
	}
	stds, err := svc.repo.QueryStudents(ctx, QueryFilter{SchoolID: schoolID, Search: q}, nil)
	if err != nil {
		return nil, err
	}
	rankByName(stds, q)
	return stds, nil
}

func (svc *service) GetByID(ctx context.Context, schoolID, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id, SchoolID: schoolID})
}

func (svc *service) Delete(ctx context.Context, schoolID, id int) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, GetFilter{ID: id, SchoolID: schoolID})
	if err != nil {
		return Student{}, err
	}
	if err = svc.repo.DeleteStudent(ctx, std.ID); err != nil {
		return Student{}, err
	}
	return std, nil
}

// Import adds the roster rows to the school. Blank rows, rows already on the roster
// and repeated rows are skipped.
func (svc *service) Import(ctx context.Context, schoolID int, rows []NewStudent) (ImportResult, error) {
	var res ImportResult
	owner := null.IntFrom(schoolID)
	seen := make(map[[2]string]bool, len(rows))
	stds := make([]Student, 0, len(rows))

	for _, row := range rows {
		row.Clean()
		key := [2]string{strings.ToLower(row.Name), strings.ToLower(row.ClassName)}
		if row.Name == "" || row.ClassName == "" || seen[key] {
			res.Skipped++
			continue
		}
		seen[key] = true

		exists, err := svc.repo.StudentExists(ctx, owner, row.Name, row.ClassName)
		if err != nil {
			return ImportResult{}, err
		}
		if exists {
			res.Skipped++
			continue
		}
		stds = append(stds, Student{Name: row.Name, ClassName: row.ClassName, SchoolID: owner})
	}

	if len(stds) > 0 {
		if _, err := svc.repo.CreateStudents(ctx, stds); err != nil {
			return ImportResult{}, err
		}
	}
	res.Added = len(stds)
	return res, nil
}

// rankByName sorts students by how similar their name is to `q`; ties keep ascending ID.
func rankByName(stds []Student, q string) {
	q = strings.ToLower(q)
	ratios := make(map[int]float64, len(stds))
	for _, s := range stds {
		ratios[s.ID] = difflib.NewMatcher(strings.Split(q, ""), strings.Split(strings.ToLower(s.Name), "")).Ratio()
	}
	sort.SliceStable(stds, func(i, j int) bool {
		ri, rj := ratios[stds[i].ID], ratios[stds[j].ID]
		if ri != rj {
			return ri > rj
		}
		return stds[i].ID < stds[j].ID
	})
}
