package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) query() []student.Student {
	stds := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		stds = append(stds, *s)
	}
	sort.Slice(stds, func(i, j int) bool { return stds[i].ID < stds[j].ID })
	return stds
}

// insert checks the owning school FK. Callers hold the write lock.
func (repo *studentRepository) insert(std student.Student) (student.Student, error) {
	if std.SchoolID.Valid {
		if _, ok := repo.db.schools[std.SchoolID.Int]; !ok {
			return student.Student{}, errSchoolFK
		}
	}
	repo.db.studentPK++
	std.ID = repo.db.studentPK
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) StudentExists(_ context.Context, schoolID null.Int, name, className string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, std := range repo.db.students {
		if std.SchoolID == schoolID && strings.EqualFold(std.Name, name) && strings.EqualFold(std.ClassName, className) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return repo.insert(std)
}

func (repo *studentRepository) CreateStudents(_ context.Context, stds []student.Student) ([]student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// check every FK first: all or nothing
	for _, std := range stds {
		if std.SchoolID.Valid {
			if _, ok := repo.db.schools[std.SchoolID.Int]; !ok {
				return nil, errSchoolFK
			}
		}
	}
	created := make([]student.Student, 0, len(stds))
	for _, std := range stds {
		s, err := repo.insert(std)
		if err != nil {
			return nil, err
		}
		created = append(created, s)
	}
	return created, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	stds := make([]student.Student, 0)
	for _, std := range repo.query() {
		if filter.SchoolID != 0 && !std.VisibleTo(filter.SchoolID) {
			continue
		}
		if filter.ClassName != "" && !strings.EqualFold(std.ClassName, filter.ClassName) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(std.Name), search) {
			continue
		}
		stds = append(stds, std)
	}

	if len(ordering) > 0 {
		sort.SliceStable(stds, func(i, j int) bool {
			for _, ord := range ordering {
				if c := compareStudents(stds[i], stds[j], ord.Field); c != 0 {
					return (c < 0) == ord.Ascending
				}
			}
			return false
		})
	}
	return stds, nil
}

func compareStudents(a, b student.Student, field string) int {
	switch field {
	case "student_name":
		return strings.Compare(a.Name, b.Name)
	case "class_name":
		return strings.Compare(a.ClassName, b.ClassName)
	default:
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	std, ok := repo.db.students[filter.ID]
	if !ok || (filter.SchoolID != 0 && !std.VisibleTo(filter.SchoolID)) {
		return student.Student{}, student.ErrNotFound
	}
	return *std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	repo.db.deleteStudent(id)
	return nil
}
