package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/myschool-rw/myschool/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) query() []school.School {
	schools := make([]school.School, 0, len(repo.db.schools))
	for _, s := range repo.db.schools {
		schools = append(schools, *s)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools
}

func (repo *schoolRepository) CheckSchoolUniqueness(_ context.Context, name, code string, excludedSchools ...school.School) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[int]bool, len(excludedSchools))
	for _, s := range excludedSchools {
		excluded[s.ID] = true
	}
	for _, sch := range repo.query() {
		if excluded[sch.ID] {
			continue
		}
		if strings.EqualFold(sch.Name, name) {
			return school.ErrNameExists
		}
		if strings.EqualFold(sch.Code, code) {
			return school.ErrCodeExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.schoolPK++
	sch.ID = repo.db.schoolPK
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) QuerySchools(_ context.Context) ([]school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *schoolRepository) GetSchool(_ context.Context, filter school.GetFilter) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != 0 {
		if sch, ok := repo.db.schools[filter.ID]; ok {
			return *sch, nil
		}
		return school.School{}, school.ErrNotFound
	}
	if filter.Name != "" {
		for _, sch := range repo.query() {
			if strings.EqualFold(sch.Name, filter.Name) {
				return sch, nil
			}
		}
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.schools[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	orig.Name = sch.Name
	orig.Code = sch.Code
	orig.IsActive = sch.IsActive
	return *orig, nil
}

func (repo *schoolRepository) DeleteSchool(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}
	for sid, std := range repo.db.students {
		if std.SchoolID.Valid && std.SchoolID.Int == id {
			repo.db.deleteStudent(sid)
		}
	}
	delete(repo.db.schools, id)
	return nil
}
