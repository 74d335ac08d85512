package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core/visit"
)

type visitRepository struct {
	db *DB
}

var _ visit.Repository = (*visitRepository)(nil) // interface compliance check

func NewVisitRepository(db *DB) visit.Repository {
	return &visitRepository{db: db}
}

func (repo *visitRepository) exists(studentID int, kind visit.Kind, date time.Time) bool {
	for _, v := range repo.db.visits {
		if v.StudentID == studentID && v.Kind == kind && v.Date.Equal(date) {
			return true
		}
	}
	return false
}

// record joins `v` with its student. Callers hold the lock.
func (repo *visitRepository) record(v visit.Visit) (visit.Record, bool) {
	std, ok := repo.db.students[v.StudentID]
	if !ok {
		return visit.Record{}, false
	}
	return visit.Record{Visit: v, StudentName: std.Name, ClassName: std.ClassName}, true
}

func (repo *visitRepository) VisitExists(_ context.Context, studentID int, kind visit.Kind, date time.Time) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.exists(studentID, kind, date), nil
}

func (repo *visitRepository) CreateVisit(_ context.Context, v visit.Visit) (visit.Visit, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[v.StudentID]; !ok {
		return visit.Visit{}, errStudentFK
	}
	// unique (student_id, kind, visit_date)
	if repo.exists(v.StudentID, v.Kind, v.Date) {
		return visit.Visit{}, visit.ErrDuplicateVisit
	}
	repo.db.visitPK++
	v.ID = repo.db.visitPK
	repo.db.visits[v.ID] = &v
	return v, nil
}

func (repo *visitRepository) QueryVisits(_ context.Context, filter visit.QueryFilter) ([]visit.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]visit.Record, 0)
	for _, v := range repo.db.visits {
		if filter.Kind != "" && v.Kind != filter.Kind {
			continue
		}
		if filter.Date.Valid && !v.Date.Equal(filter.Date.Time) {
			continue
		}
		rec, ok := repo.record(*v)
		if !ok {
			continue
		}
		if filter.SchoolID != 0 && !repo.db.students[v.StudentID].VisibleTo(filter.SchoolID) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (repo *visitRepository) GetVisit(_ context.Context, filter visit.GetFilter) (visit.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	v, ok := repo.db.visits[filter.ID]
	if !ok {
		return visit.Record{}, visit.ErrNotFound
	}
	rec, ok := repo.record(*v)
	if !ok || (filter.SchoolID != 0 && !repo.db.students[v.StudentID].VisibleTo(filter.SchoolID)) {
		return visit.Record{}, visit.ErrNotFound
	}
	return rec, nil
}

func (repo *visitRepository) SetAssignedPlate(_ context.Context, id int64, plate string) (visit.Visit, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	v, ok := repo.db.visits[id]
	if !ok {
		return visit.Visit{}, visit.ErrNotFound
	}
	v.AssignedPlateNumber = null.StringFrom(plate)
	return *v, nil
}
