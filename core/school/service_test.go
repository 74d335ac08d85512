package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/visit"
	inmemdb "github.com/myschool-rw/myschool/storage/database/inmem"
	"github.com/myschool-rw/myschool/tests"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestIsSOS(t *testing.T) {
	tests := []struct {
		code, name string
		want       bool
	}{
		{"SOS", "Hope Academy", true},
		{" sos ", "Hope Academy", true},
		{"SOS1", "Hope Academy", false},
		{"HA", "SOS Children's Village", true},
		{"HA", "Kigali sos school", true},
		{"HA", "Hope Academy", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, school.IsSOS(tt.code, tt.name))
			assert.Equal(t, tt.want, school.School{Code: tt.code, Name: tt.name}.IsSOS())
		})
	}
}

func TestService_Register(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewSchoolRepository(db)
	svc := school.NewService(repo)
	validate := newValidator()
	ctx := context.Background()

	now := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	school.NowFunc = func() time.Time { return now }
	defer func() { school.NowFunc = func() time.Time { return time.Now().UTC() } }()

	testutil.CreateSchool(t, repo, "Green Hill", "GH")

	tests := []struct {
		name    string
		ns      school.NewSchool
		want    school.School
		wantErr error
	}{
		{
			name:    "name taken",
			ns:      school.NewSchool{Name: " green HILL ", Code: "GH2"},
			wantErr: core.NewFieldValidationError("school_name", school.ErrNameExists),
		},
		{
			name:    "code taken",
			ns:      school.NewSchool{Name: "Other", Code: "gh"},
			wantErr: core.NewFieldValidationError("school_code", school.ErrCodeExists),
		},
		{
			name: "ok",
			ns:   school.NewSchool{Name: "  SOS Kigali ", Code: "SOS"},
			want: school.School{ID: 2, Name: "SOS Kigali", Code: "SOS", IsActive: true, CreatedAt: now},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(ctx, validate, svc)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			got, err := svc.Register(ctx, tt.ns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid payload", func(t *testing.T) {
		ns := school.NewSchool{Name: "   ", Code: "S O S"}
		err := ns.Validate(ctx, validate, svc)
		require.Error(t, err)
		assert.Len(t, err.(validator.ValidationErrors), 2)
	})
}

func TestService_GetByName(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewSchoolRepository(db)
	svc := school.NewService(repo)
	sch := testutil.CreateSchool(t, repo, "SOS Kigali", "SOS")

	for _, name := range []string{"SOS Kigali", "sos kigali", "  SOS KIGALI\t"} {
		got, err := svc.GetByName(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, sch.ID, got.ID)
	}
	for _, name := range []string{"", "   ", "SOS", "SOS Kigali 2"} {
		_, err := svc.GetByName(context.Background(), name)
		assert.Equal(t, school.ErrNotFound, err, name)
	}
}

func TestService_Update(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewSchoolRepository(db)
	svc := school.NewService(repo)
	validate := newValidator()
	ctx := context.Background()

	sch := testutil.CreateSchool(t, repo, "Green Hill", "GH")
	testutil.CreateSchool(t, repo, "SOS Kigali", "SOS")
	inactive := false

	tests := []struct {
		name    string
		us      school.UpdateSchool
		want    school.School
		wantErr error
	}{
		{
			name:    "name of another school",
			us:      school.UpdateSchool{Name: "sos kigali"},
			wantErr: core.NewFieldValidationError("school_name", school.ErrNameExists),
		},
		{
			name:    "code of another school",
			us:      school.UpdateSchool{Code: "SOS"},
			wantErr: core.NewFieldValidationError("school_code", school.ErrCodeExists),
		},
		{
			name: "own name in another case",
			us:   school.UpdateSchool{Name: "GREEN HILL"},
			want: school.School{ID: sch.ID, Name: "GREEN HILL", Code: "GH", IsActive: true, CreatedAt: sch.CreatedAt},
		},
		{
			name: "deactivate, keep the rest",
			us:   school.UpdateSchool{IsActive: &inactive},
			want: school.School{ID: sch.ID, Name: "GREEN HILL", Code: "GH", IsActive: false, CreatedAt: sch.CreatedAt},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig, err := svc.GetByID(ctx, sch.ID)
			require.NoError(t, err)

			err = tt.us.Validate(ctx, orig, validate, svc)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			got, err := svc.Update(ctx, sch.ID, tt.us)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := svc.Update(ctx, 999, school.UpdateSchool{Name: "lol"})
	assert.Equal(t, school.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	db := inmemdb.Open()
	schRepo := inmemdb.NewSchoolRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	visRepo := inmemdb.NewVisitRepository(db)
	svc := school.NewService(schRepo)
	ctx := context.Background()

	sch := testutil.CreateSchool(t, schRepo, "Green Hill", "GH")
	other := testutil.CreateSchool(t, schRepo, "SOS Kigali", "SOS")
	owned := testutil.CreateStudent(t, stdRepo, "Aline", "P1", &sch)
	kept := testutil.CreateStudent(t, stdRepo, "Eric", "P1", &other)
	legacy := testutil.CreateStudent(t, stdRepo, "Old", "P1", nil)
	day := testutil.Day(2024, 3, 14)
	testutil.CreateVisit(t, visRepo, owned, visit.KindVisitDay, day)
	vk := testutil.CreateVisit(t, visRepo, kept, visit.KindVisitDay, day)
	vl := testutil.CreateVisit(t, visRepo, legacy, visit.KindVisitDay, day)

	require.NoError(t, svc.Delete(ctx, sch.ID))
	assert.Equal(t, school.ErrNotFound, svc.Delete(ctx, sch.ID))

	_, err := svc.GetByID(ctx, sch.ID)
	assert.Equal(t, school.ErrNotFound, err)

	recs, err := visRepo.QueryVisits(ctx, visit.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, vk.ID, recs[0].ID)
	assert.Equal(t, vl.ID, recs[1].ID)
}
