package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/myschool-rw/myschool/apps/api/echo"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	testutil "github.com/myschool-rw/myschool/tests"
)

func TestSchoolAPI_auth(t *testing.T) {
	app := setup(t)
	gh := testutil.CreateSchool(t, schRepo, "Green Hill", "GH")

	expired := NewSystemClaims(conf, "root")
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/system/schools",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     "/v1/system/schools",
			token:    getToken(t, expired),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		},
		{
			name:     "school admin",
			method:   http.MethodGet,
			path:     "/v1/system/schools",
			token:    schoolToken(t, gh),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
	}
	runHTTPTests(t, app, tests)
}

func TestSchoolAPI_create(t *testing.T) {
	app := setup(t)
	testutil.CreateSchool(t, schRepo, "Green Hill", "GH")
	token := systemToken(t)

	tests := []httpTest{
		{
			name:     "invalid",
			method:   http.MethodPost,
			path:     "/v1/system/schools",
			body:     []byte(`{"school_name": " ", "school_code": "s o s"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newErr("invalid data", map[string]string{
				"school_name": "this field is required",
				"school_code": "only alphanumeric characters and underscores are allowed",
			})),
		},
		{
			name:     "name taken",
			method:   http.MethodPost,
			path:     "/v1/system/schools",
			body:     []byte(`{"school_name": "green hill", "school_code": "GH2"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newErr(school.ErrNameExists.Error(), map[string]string{"school_name": school.ErrNameExists.Error()})),
		},
		{
			name:     "created",
			method:   http.MethodPost,
			path:     "/v1/system/schools",
			body:     []byte(`{"school_name": "SOS Kigali", "school_code": "SOS"}`),
			token:    token,
			wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, app, tests)

	sch, err := schRepo.GetSchool(bgCtx, school.GetFilter{Name: "sos kigali"})
	require.NoError(t, err)
	assert.Equal(t, "SOS", sch.Code)
	assert.True(t, sch.IsActive)
	assert.True(t, sch.IsSOS())
}

func TestSchoolAPI_detail(t *testing.T) {
	app := setup(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	gh := testutil.CreateSchool(t, schRepo, "Green Hill", "GH", created)
	sos := testutil.CreateSchool(t, schRepo, "SOS Kigali", "SOS", created)
	testutil.CreateStudent(t, stdRepo, "Aline", "P1", &gh)
	legacy := testutil.CreateStudent(t, stdRepo, "Old Timer", "P1", nil)
	token := systemToken(t)

	renamed := gh
	renamed.Name = "Green Hills"
	renamed.IsActive = false

	tests := []httpTest{
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/v1/system/schools",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []school.School{gh, sos}),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     fmt.Sprintf("/v1/system/schools/%d", sos.ID),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, sos),
		},
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/v1/system/schools/999",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, newErr("school not found")),
		},
		{
			name:     "update: code of another school",
			method:   http.MethodPatch,
			path:     fmt.Sprintf("/v1/system/schools/%d", gh.ID),
			body:     []byte(`{"school_code": "sos"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newErr(school.ErrCodeExists.Error(), map[string]string{"school_code": school.ErrCodeExists.Error()})),
		},
		{
			name:     "update",
			method:   http.MethodPatch,
			path:     fmt.Sprintf("/v1/system/schools/%d", gh.ID),
			body:     []byte(`{"school_name": " Green Hills ", "is_active": false}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, renamed),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/v1/system/schools/%d", gh.ID),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"status": "success", "message": "school 'Green Hills' deleted"}),
		},
	}
	runHTTPTests(t, app, tests)

	stds, err := stdRepo.QueryStudents(bgCtx, student.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{legacy}, stds, "the school's students are gone, legacy ones stay")
}
