package inmemdb

import (
	"errors"
	"sync"

	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	"github.com/myschool-rw/myschool/core/visit"
)

// DB keeps every table behind a single lock, so each repository call is one atomic step.
// Visit IDs are allocated and committed under that lock, which keeps ID order equal to commit order.
type DB struct {
	mutex sync.RWMutex

	schools  map[int]*school.School
	students map[int]*student.Student
	visits   map[int64]*visit.Visit

	schoolPK  int
	studentPK int
	visitPK   int64
}

func Open() *DB {
	db := &DB{}
	db.Reset()
	return db
}

// Reset drops all rows and restarts the primary key counters.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.schools = make(map[int]*school.School)
	db.students = make(map[int]*student.Student)
	db.visits = make(map[int64]*visit.Visit)
	db.schoolPK = 0
	db.studentPK = 0
	db.visitPK = 0
}

func (db *DB) Close() error { return nil }

// deleteStudent removes the student and its visits. Callers hold the write lock.
func (db *DB) deleteStudent(id int) {
	for vid, v := range db.visits {
		if v.StudentID == id {
			delete(db.visits, vid)
		}
	}
	delete(db.students, id)
}

var (
	errSchoolFK  = errors.New("insert or update on students violates foreign key constraint students_school_id_fkey")
	errStudentFK = errors.New("insert or update on visits violates foreign key constraint visits_student_id_fkey")
)
