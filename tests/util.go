package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	"github.com/myschool-rw/myschool/core/visit"
	"github.com/myschool-rw/myschool/storage/database"
)

// PrepareDB returns an empty, migrated Postgres database configured by the TEST_* env vars
// (TEST_DATABASE_HOST, TEST_DATABASE_NAME, ...). Tests are skipped when TEST_DATABASE_HOST is unset.
func PrepareDB(t *testing.T) *sqlx.DB {
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set, skipping postgres tests")
	}
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("CreateIfNotExist() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if _, err = db.Exec("TRUNCATE visits, students, schools RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncating tables failed: %v", err)
	}
	return db
}

func CreateSchool(t *testing.T, repo school.Repository, name, code string, createdAt ...time.Time) school.School {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:      name,
		Code:      code,
		IsActive:  true,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

// CreateStudent adds a student owned by `sch`, or a legacy student visible to every school when `sch` is nil.
func CreateStudent(t *testing.T, repo student.Repository, name, className string, sch *school.School) student.Student {
	std := student.Student{Name: name, ClassName: className}
	if sch != nil {
		std.SchoolID = null.IntFrom(sch.ID)
	}
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// CreateVisit stores a visit directly, bypassing admission checks.
func CreateVisit(t *testing.T, repo visit.Repository, std student.Student, kind visit.Kind, date time.Time, plate ...string) visit.Visit {
	v := visit.Visit{
		StudentID: std.ID,
		Kind:      kind,
		Date:      date,
		Status:    visit.StatusDone,
	}
	if len(plate) > 0 {
		v.MovementMethod = null.StringFrom(visit.WithCar)
		v.PlateNumber = null.StringFrom(plate[0])
	}
	v, err := repo.CreateVisit(context.Background(), v)
	if err != nil {
		t.Fatalf("CreateVisit() failed: %v", err)
	}
	return v
}

// Day returns the calendar date `y-m-d`.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
