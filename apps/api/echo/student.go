package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	xlsxsvc "github.com/myschool-rw/myschool/services/spreadsheet"
)

const (
	rosterFileField  = "file"
	msgStudentAdded  = "student added successfully"
	msgStudentDelete = "student '%s' deleted"
)

var errMissingFile = echo.NewHTTPError(http.StatusBadRequest, "an Excel file is required")

type (
	studentApi struct {
		schools  school.Service
		svc      student.Service
		validate *validator.Validate
	}

	studentsResponse struct {
		Status   string            `json:"status"`
		Students []student.Student `json:"students"`
	}

	addStudentResponse struct {
		Status    string `json:"status"`
		StudentID int    `json:"student_id"`
		Message   string `json:"message"`
	}

	messageResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	importResponse struct {
		Status string `json:"status"`
		student.ImportResult
	}
)

func registerStudentAPI(
	tenant, admin *echo.Group,
	schSvc school.Service,
	svc student.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		schools:  schSvc,
		svc:      svc,
		validate: validate,
	}

	tenant.GET("/students/search", api.search)

	sg := admin.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/import", api.importRoster)
	sg.DELETE("/:id", api.destroy)
}

// tenant returns the school resolved by schoolAdminMiddleware, or looks it up on public routes.
func (api *studentApi) tenant(ctx echo.Context) (school.School, error) {
	if sch, ok := ctx.Get(contextSchoolKey).(school.School); ok {
		return sch, nil
	}
	sch, err := api.schools.GetByName(ctx.Request().Context(), ctx.Param("school"))
	return sch, errors.Wrap(err, "finding school by name")
}

// Handlers

func (api *studentApi) search(ctx echo.Context) error {
	sch, err := api.tenant(ctx)
	if err != nil {
		return err
	}
	stds, err := api.svc.Search(ctx.Request().Context(), sch.ID, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *studentApi) query(ctx echo.Context) error {
	sch, err := api.tenant(ctx)
	if err != nil {
		return err
	}

	var filter student.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.SchoolID = sch.ID

	var ord Ordering
	ord.Bind(ctx)

	stds, err := api.svc.Query(ctx.Request().Context(), filter, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, studentsResponse{Status: statusSuccess, Students: stds})
}

func (api *studentApi) create(ctx echo.Context) error {
	sch, err := api.tenant(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	data.SchoolID = null.IntFrom(sch.ID)
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, addStudentResponse{Status: statusSuccess, StudentID: std.ID, Message: msgStudentAdded})
}

func (api *studentApi) destroy(ctx echo.Context) error {
	sch, err := api.tenant(ctx)
	if err != nil {
		return err
	}
	id, err := bindID(ctx, "id")
	if err != nil {
		return err
	}

	std, err := api.svc.Delete(ctx.Request().Context(), sch.ID, int(id))
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Status: statusSuccess, Message: fmt.Sprintf(msgStudentDelete, std.Name)})
}

func (api *studentApi) importRoster(ctx echo.Context) error {
	sch, err := api.tenant(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile(rosterFileField)
	if err != nil {
		return errMissingFile
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded roster")
	}
	defer file.Close()

	rows, err := xlsxsvc.ReadRoster(file)
	if err != nil {
		return errors.Wrap(err, "reading roster")
	}
	res, err := api.svc.Import(ctx.Request().Context(), sch.ID, rows)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, importResponse{Status: statusSuccess, ImportResult: res})
}
