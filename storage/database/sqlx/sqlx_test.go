package sqlxrepos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	"github.com/myschool-rw/myschool/core/visit"
	sqlxrepos "github.com/myschool-rw/myschool/storage/database/sqlx"
	testutil "github.com/myschool-rw/myschool/tests"
)

type repos struct {
	schools  school.Repository
	students student.Repository
	visits   visit.Repository
}

func setup(t *testing.T) repos {
	db := testutil.PrepareDB(t)
	return repos{
		schools:  sqlxrepos.NewSchoolRepository(db),
		students: sqlxrepos.NewStudentRepository(db),
		visits:   sqlxrepos.NewVisitRepository(db),
	}
}

var march14 = testutil.Day(2024, time.March, 14)

func TestSchoolRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	gh := testutil.CreateSchool(t, r.schools, "Green Hill", "GH")

	tests := []struct {
		name    string
		sch     school.School
		wantErr error
	}{
		{name: "name taken", sch: school.School{Name: "GREEN HILL", Code: "GH2"}, wantErr: school.ErrNameExists},
		{name: "code taken", sch: school.School{Name: "Green Valley", Code: "gh"}, wantErr: school.ErrCodeExists},
		{name: "created", sch: school.School{Name: "SOS Kigali", Code: "SOS", IsActive: true, CreatedAt: time.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.schools.CreateSchool(ctx, tt.sch)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	sch, err := r.schools.GetSchool(ctx, school.GetFilter{Name: "green hill"})
	require.NoError(t, err)
	assert.Equal(t, gh.ID, sch.ID)

	assert.Equal(t, school.ErrNameExists, r.schools.CheckSchoolUniqueness(ctx, "sos kigali", "X"))
	assert.NoError(t, r.schools.CheckSchoolUniqueness(ctx, "Green Hill", "GH", gh))

	_, err = r.schools.GetSchool(ctx, school.GetFilter{ID: 999})
	assert.Equal(t, school.ErrNotFound, err)

	// a recreated school never gets the ID of a deleted one
	require.NoError(t, r.schools.DeleteSchool(ctx, gh.ID))
	again := testutil.CreateSchool(t, r.schools, "Green Hill", "GH")
	assert.Greater(t, again.ID, gh.ID)
	assert.Equal(t, school.ErrNotFound, r.schools.DeleteSchool(ctx, gh.ID))
}

func TestStudentRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	gh := testutil.CreateSchool(t, r.schools, "Green Hill", "GH")
	sos := testutil.CreateSchool(t, r.schools, "SOS Kigali", "SOS")
	aline := testutil.CreateStudent(t, r.students, "Aline", "P1", &gh)
	bea := testutil.CreateStudent(t, r.students, "Bea_", "P1", &sos)
	legacy := testutil.CreateStudent(t, r.students, "Old Timer", "P2", nil)

	exists, err := r.students.StudentExists(ctx, null.IntFrom(gh.ID), "ALINE", "p1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = r.students.StudentExists(ctx, null.IntFrom(sos.ID), "Aline", "P1")
	require.NoError(t, err)
	assert.False(t, exists, "uniqueness is per school")

	stds, err := r.students.QueryStudents(ctx, student.QueryFilter{SchoolID: gh.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{aline, legacy}, stds)

	stds, err = r.students.QueryStudents(ctx, student.QueryFilter{Search: "_"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{bea}, stds, "LIKE wildcards are escaped")

	_, err = r.students.GetStudent(ctx, student.GetFilter{ID: bea.ID, SchoolID: gh.ID})
	assert.Equal(t, student.ErrNotFound, err)

	testutil.CreateVisit(t, r.visits, aline, visit.KindVisitDay, march14)
	require.NoError(t, r.students.DeleteStudent(ctx, aline.ID))
	recs, err := r.visits.QueryVisits(ctx, visit.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestVisitRepository_uniqueness(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	gh := testutil.CreateSchool(t, r.schools, "Green Hill", "GH")
	aline := testutil.CreateStudent(t, r.students, "Aline", "P1", &gh)

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.visits.CreateVisit(ctx, visit.Visit{
				StudentID: aline.ID,
				Kind:      visit.KindVisitDay,
				Date:      march14,
				Status:    visit.StatusDone,
			})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				created++
			case visit.ErrDuplicateVisit:
				rejected++
			default:
				t.Errorf("CreateVisit() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, rejected)

	exists, err := r.visits.VisitExists(ctx, aline.ID, visit.KindVisitDay, march14)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = r.visits.VisitExists(ctx, aline.ID, visit.KindParentMeeting, march14)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVisitRepository_idsFollowCommitOrder(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	gh := testutil.CreateSchool(t, r.schools, "Green Hill", "GH")

	const n = 20
	stds := make([]student.Student, n)
	for i := range stds {
		stds[i] = testutil.CreateStudent(t, r.students, "Student", string(rune('A'+i)), &gh)
	}

	var wg sync.WaitGroup
	for _, std := range stds {
		wg.Add(1)
		go func(std student.Student) {
			defer wg.Done()
			if _, err := r.visits.CreateVisit(ctx, visit.Visit{
				StudentID: std.ID,
				Kind:      visit.KindParentMeeting,
				Date:      march14,
				Status:    visit.StatusDone,
			}); err != nil {
				t.Errorf("CreateVisit() failed: %v", err)
			}
		}(std)
	}
	wg.Wait()

	recs, err := r.visits.QueryVisits(ctx, visit.QueryFilter{SchoolID: gh.ID, Kind: visit.KindParentMeeting})
	require.NoError(t, err)
	require.Len(t, recs, n)
	for i, rec := range recs {
		assert.Equal(t, int64(i+1), rec.ID, "no gaps and ascending")
	}
}

func TestVisitRepository_visibility(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	gh := testutil.CreateSchool(t, r.schools, "Green Hill", "GH")
	sos := testutil.CreateSchool(t, r.schools, "SOS Kigali", "SOS")
	aline := testutil.CreateStudent(t, r.students, "Aline", "P1", &gh)
	bea := testutil.CreateStudent(t, r.students, "Bea", "P1", &sos)
	legacy := testutil.CreateStudent(t, r.students, "Old Timer", "P2", nil)

	vAline := testutil.CreateVisit(t, r.visits, aline, visit.KindVisitDay, march14)
	vBea := testutil.CreateVisit(t, r.visits, bea, visit.KindVisitDay, march14, "RAB 123A")
	vLegacy := testutil.CreateVisit(t, r.visits, legacy, visit.KindVisitDay, march14)
	testutil.CreateVisit(t, r.visits, aline, visit.KindVisitDay, testutil.Day(2024, time.March, 15))

	recs, err := r.visits.QueryVisits(ctx, visit.QueryFilter{SchoolID: sos.ID, Kind: visit.KindVisitDay, Date: null.TimeFrom(march14)})
	require.NoError(t, err)
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []int64{vBea.ID, vLegacy.ID}, ids)
	assert.Equal(t, "Bea", recs[0].StudentName)
	assert.Equal(t, "RAB 123A", recs[0].PlateNumber.String)

	_, err = r.visits.GetVisit(ctx, visit.GetFilter{ID: vAline.ID, SchoolID: sos.ID})
	assert.Equal(t, visit.ErrNotFound, err)

	v, err := r.visits.SetAssignedPlate(ctx, vBea.ID, "RAC 777B")
	require.NoError(t, err)
	assert.Equal(t, "RAC 777B", v.AssignedPlateNumber.String)
	assert.Equal(t, "RAB 123A", v.PlateNumber.String, "arrival plate is untouched")
	assert.True(t, v.Date.Equal(march14))

	_, err = r.visits.SetAssignedPlate(ctx, 999, "RAC 777B")
	assert.Equal(t, visit.ErrNotFound, err)

	// deleting a school takes its students' visits with it
	require.NoError(t, r.schools.DeleteSchool(ctx, sos.ID))
	_, err = r.visits.GetVisit(ctx, visit.GetFilter{ID: vBea.ID})
	assert.Equal(t, visit.ErrNotFound, err)
}
