package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/visit"
)

// visitsLockKey is the transaction advisory lock serializing visit inserts,
// so that IDs are handed out in commit order.
const visitsLockKey = 7_001_001

const (
	visitColumns  = "id, student_id, visit_type, visit_date, status, movement_method, plate_number, assigned_plate_number"
	recordColumns = "v.id, v.student_id, v.visit_type, v.visit_date, v.status, v.movement_method, v.plate_number, " +
		"v.assigned_plate_number, s.student_name, s.class_name"
	recordJoin = " FROM visits v JOIN students s ON s.id = v.student_id"
)

type (
	visitRow struct {
		ID                  int64       `db:"id"`
		StudentID           int         `db:"student_id"`
		Kind                string      `db:"visit_type"`
		Date                time.Time   `db:"visit_date"`
		Status              string      `db:"status"`
		MovementMethod      null.String `db:"movement_method"`
		PlateNumber         null.String `db:"plate_number"`
		AssignedPlateNumber null.String `db:"assigned_plate_number"`
	}

	recordRow struct {
		visitRow
		StudentName string `db:"student_name"`
		ClassName   string `db:"class_name"`
	}
)

type visitRepository struct {
	db core.DB
}

var _ visit.Repository = (*visitRepository)(nil) // interface compliance check

func NewVisitRepository(db core.DB) visit.Repository {
	return &visitRepository{db: db}
}

func (repo visitRepository) unboil(row visitRow) visit.Visit {
	return visit.Visit{
		ID:                  row.ID,
		StudentID:           row.StudentID,
		Kind:                visit.Kind(row.Kind),
		Date:                core.Date(row.Date),
		Status:              row.Status,
		MovementMethod:      row.MovementMethod,
		PlateNumber:         row.PlateNumber,
		AssignedPlateNumber: row.AssignedPlateNumber,
	}
}

func (repo visitRepository) unboilRecord(row recordRow) visit.Record {
	return visit.Record{
		Visit:       repo.unboil(row.visitRow),
		StudentName: row.StudentName,
		ClassName:   row.ClassName,
	}
}

// trapNoRowsErr maps psql "no rows" err to visit.ErrNotFound
func (repo visitRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return visit.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo visitRepository) VisitExists(ctx context.Context, studentID int, kind visit.Kind, date time.Time) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM visits WHERE student_id = $1 AND visit_type = $2 AND visit_date = $3::date)`,
		studentID, string(kind), date.Format(core.DateLayout))
	if err != nil {
		return false, errors.Wrap(err, "checking visit existence")
	}
	return exists, nil
}

func (repo visitRepository) CreateVisit(ctx context.Context, v visit.Visit) (visit.Visit, error) {
	var row visitRow
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", visitsLockKey); err != nil {
			return errors.Wrap(err, "locking visits")
		}
		return tx.GetContext(ctx, &row, `
			INSERT INTO visits (student_id, visit_type, visit_date, status, movement_method, plate_number)
			VALUES ($1, $2, $3::date, $4, $5, $6)
			RETURNING `+visitColumns,
			v.StudentID, string(v.Kind), v.Date.Format(core.DateLayout), v.Status, v.MovementMethod, v.PlateNumber)
	})
	if err != nil {
		if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "visits_student_kind_date_key" {
			return visit.Visit{}, visit.ErrDuplicateVisit
		}
		return visit.Visit{}, errors.Wrap(err, "inserting visit")
	}
	return repo.unboil(row), nil
}

func (repo visitRepository) QueryVisits(ctx context.Context, filter visit.QueryFilter) ([]visit.Record, error) {
	var w where
	if filter.Kind != "" {
		w.add("v.visit_type = ?", string(filter.Kind))
	}
	if filter.Date.Valid {
		w.add("v.visit_date = ?::date", filter.Date.Time.Format(core.DateLayout))
	}
	if filter.SchoolID != 0 {
		w.add("(s.school_id = ? OR s.school_id IS NULL)", filter.SchoolID)
	}

	var rows []recordRow
	q := repo.db.Rebind("SELECT " + recordColumns + recordJoin + w.String() + " ORDER BY v.id ASC")
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying visits")
	}
	recs := make([]visit.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.unboilRecord(row))
	}
	return recs, nil
}

func (repo visitRepository) GetVisit(ctx context.Context, filter visit.GetFilter) (visit.Record, error) {
	var w where
	w.add("v.id = ?", filter.ID)
	if filter.SchoolID != 0 {
		w.add("(s.school_id = ? OR s.school_id IS NULL)", filter.SchoolID)
	}

	var row recordRow
	q := repo.db.Rebind("SELECT " + recordColumns + recordJoin + w.String())
	if err := repo.db.GetContext(ctx, &row, q, w.args...); err != nil {
		return visit.Record{}, repo.trapNoRowsErr(err, "finding visit")
	}
	return repo.unboilRecord(row), nil
}

func (repo visitRepository) SetAssignedPlate(ctx context.Context, id int64, plate string) (visit.Visit, error) {
	var row visitRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE visits SET assigned_plate_number = $1
		WHERE id = $2
		RETURNING `+visitColumns,
		plate, id)
	if err != nil {
		return visit.Visit{}, repo.trapNoRowsErr(err, "assigning plate")
	}
	return repo.unboil(row), nil
}
