package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/student"
)

const studentColumns = "id, student_name, class_name, school_id"

var studentOrderColumns = map[string]string{
	"id":           "id",
	"student_name": "student_name",
	"class_name":   "class_name",
}

type studentRow struct {
	ID        int      `db:"id"`
	Name      string   `db:"student_name"`
	ClassName string   `db:"class_name"`
	SchoolID  null.Int `db:"school_id"`
}

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo studentRepository) unboil(row studentRow) student.Student {
	return student.Student{
		ID:        row.ID,
		Name:      row.Name,
		ClassName: row.ClassName,
		SchoolID:  row.SchoolID,
	}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) StudentExists(ctx context.Context, schoolID null.Int, name, className string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM students
			WHERE school_id IS NOT DISTINCT FROM $1 AND LOWER(student_name) = LOWER($2) AND LOWER(class_name) = LOWER($3)
		)`,
		schoolID, name, className)
	if err != nil {
		return false, errors.Wrap(err, "checking student existence")
	}
	return exists, nil
}

func (repo studentRepository) insert(ctx context.Context, exec core.DBExecutor, std student.Student) (student.Student, error) {
	var row studentRow
	err := exec.GetContext(ctx, &row, `
		INSERT INTO students (student_name, class_name, school_id)
		VALUES ($1, $2, $3)
		RETURNING `+studentColumns,
		std.Name, std.ClassName, std.SchoolID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.unboil(row), nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	return repo.insert(ctx, repo.db, std)
}

func (repo studentRepository) CreateStudents(ctx context.Context, stds []student.Student) ([]student.Student, error) {
	created := make([]student.Student, 0, len(stds))
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, std := range stds {
			s, err := repo.insert(ctx, tx, std)
			if err != nil {
				return err
			}
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var w where
	if filter.SchoolID != 0 {
		w.add("(school_id = ? OR school_id IS NULL)", filter.SchoolID)
	}
	if filter.ClassName != "" {
		w.add("LOWER(class_name) = LOWER(?)", filter.ClassName)
	}
	if filter.Search != "" {
		w.add("student_name ILIKE ?", contains(filter.Search))
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := studentOrderColumns[ord.Field]
		if !ok {
			return nil, student.ErrInvalidOrdering
		}
		orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	orderList = append(orderList, "id ASC")

	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + w.String() + " ORDER BY " + strings.Join(orderList, ", "))
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	stds := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		stds = append(stds, repo.unboil(row))
	}
	return stds, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var w where
	w.add("id = ?", filter.ID)
	if filter.SchoolID != 0 {
		w.add("(school_id = ? OR school_id IS NULL)", filter.SchoolID)
	}

	var row studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + w.String())
	if err := repo.db.GetContext(ctx, &row, q, w.args...); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student")
	}
	return repo.unboil(row), nil
}

// DeleteStudent relies on ON DELETE CASCADE for visits.
func (repo studentRepository) DeleteStudent(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return rowsAffected(res, student.ErrNotFound, "deleting student")
}
