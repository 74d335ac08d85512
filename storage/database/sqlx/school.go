package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
)

const schoolColumns = "id, school_name, school_code, is_active, created_at"

type schoolRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"school_name"`
	Code      string    `db:"school_code"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

type schoolRepository struct {
	db core.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db core.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) unboil(row schoolRow) school.School {
	return school.School{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

// trapErr maps psql "no rows" and unique violations to school errors.
func (repo schoolRepository) trapErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok {
		if constraint == "schools_school_code_key" {
			return school.ErrCodeExists
		}
		return school.ErrNameExists
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) CheckSchoolUniqueness(ctx context.Context, name, code string, excludedSchools ...school.School) error {
	ids := make([]int64, 0, len(excludedSchools))
	for _, s := range excludedSchools {
		ids = append(ids, int64(s.ID))
	}

	var taken struct {
		Name bool `db:"name_taken"`
		Code bool `db:"code_taken"`
	}
	err := repo.db.GetContext(ctx, &taken, `
		SELECT COALESCE(bool_or(LOWER(school_name) = LOWER($1)), false) AS name_taken,
			COALESCE(bool_or(LOWER(school_code) = LOWER($2)), false) AS code_taken
		FROM schools
		WHERE (LOWER(school_name) = LOWER($1) OR LOWER(school_code) = LOWER($2)) AND NOT (id = ANY($3))`,
		name, code, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "checking school uniqueness")
	}
	switch {
	case taken.Name:
		return school.ErrNameExists
	case taken.Code:
		return school.ErrCodeExists
	}
	return nil
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	var row schoolRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO schools (school_name, school_code, is_active, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+schoolColumns,
		sch.Name, sch.Code, sch.IsActive, sch.CreatedAt.UTC())
	if err != nil {
		return school.School{}, repo.trapErr(err, "inserting school")
	}
	return repo.unboil(row), nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context) ([]school.School, error) {
	var rows []schoolRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+schoolColumns+" FROM schools ORDER BY id ASC"); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, repo.unboil(row))
	}
	return schools, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, filter school.GetFilter) (school.School, error) {
	var row schoolRow
	var err error

	switch {
	case filter.ID != 0:
		err = repo.db.GetContext(ctx, &row, "SELECT "+schoolColumns+" FROM schools WHERE id = $1", filter.ID)
	case filter.Name != "":
		err = repo.db.GetContext(ctx, &row, "SELECT "+schoolColumns+" FROM schools WHERE LOWER(school_name) = LOWER($1)", filter.Name)
	default:
		return school.School{}, school.ErrNotFound
	}
	if err != nil {
		return school.School{}, repo.trapErr(err, "finding school")
	}
	return repo.unboil(row), nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	var row schoolRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE schools SET school_name = $1, school_code = $2, is_active = $3
		WHERE id = $4
		RETURNING `+schoolColumns,
		sch.Name, sch.Code, sch.IsActive, sch.ID)
	if err != nil {
		return school.School{}, repo.trapErr(err, "updating school")
	}
	return repo.unboil(row), nil
}

// DeleteSchool relies on ON DELETE CASCADE for students and visits.
func (repo schoolRepository) DeleteSchool(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM schools WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return rowsAffected(res, school.ErrNotFound, "deleting school")
}
