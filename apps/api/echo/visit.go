package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/visit"
	xlsxsvc "github.com/myschool-rw/myschool/services/spreadsheet"
)

const msgPlateAssigned = "plate assigned successfully"

type (
	visitApi struct {
		svc visit.Service
	}

	recordVisitResponse struct {
		Status  string `json:"status"`
		VisitID int64  `json:"visit_id"`
	}

	carManagementResponse struct {
		Status  string         `json:"status"`
		Records []visit.Record `json:"records"`
	}

	assignPlateRequest struct {
		AssignedPlateNumber string `json:"assigned_plate_number" form:"assigned_plate_number"`
	}

	assignPlateResponse struct {
		Status  string `json:"status"`
		VisitID int64  `json:"visit_id"`
		Message string `json:"message"`
	}
)

func registerVisitAPI(tenant, admin *echo.Group, svc visit.Service) {
	api := visitApi{svc: svc}

	// parents check in without an account
	tenant.POST("/visits", api.record)

	admin.GET("/visits/:kind", api.listForAdmin)
	admin.GET("/visits/:kind/export", api.export)
	admin.PUT("/visits/:id/assigned-plate", api.assignPlate)
	admin.GET("/car-management/:kind", api.listCarManagement)
}

// Handlers

func (api *visitApi) record(ctx echo.Context) error {
	var data visit.NewVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVisit")
	}
	data.SchoolName = ctx.Param("school")

	v, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording visit")
	}
	return ctx.JSON(http.StatusCreated, recordVisitResponse{Status: statusSuccess, VisitID: v.ID})
}

func (api *visitApi) listForAdmin(ctx echo.Context) error {
	view, err := api.svc.ListForAdmin(ctx.Request().Context(), ctx.Param("school"), ctx.Param("kind"), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "listing visits")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *visitApi) export(ctx echo.Context) error {
	kind, date := ctx.Param("kind"), core.CleanString(ctx.QueryParam("date"))
	recs, err := api.svc.Query(ctx.Request().Context(), ctx.Param("school"), kind, date)
	if err != nil {
		return errors.Wrap(err, "querying visits")
	}

	var buf bytes.Buffer
	if err = xlsxsvc.WriteVisits(&buf, kind, recs); err != nil {
		return errors.Wrap(err, "writing visits workbook")
	}

	if date == "" {
		date = "all"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_%s.xlsx", kind, date)))
	return ctx.Blob(http.StatusOK, xlsxsvc.ContentType, buf.Bytes())
}

func (api *visitApi) listCarManagement(ctx echo.Context) error {
	recs, err := api.svc.ListCarManagement(ctx.Request().Context(), ctx.Param("school"), ctx.Param("kind"), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "listing car management")
	}
	return ctx.JSON(http.StatusOK, carManagementResponse{Status: statusSuccess, Records: recs})
}

func (api *visitApi) assignPlate(ctx echo.Context) error {
	id, err := bindID(ctx, "id")
	if err != nil {
		return err
	}
	var data assignPlateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assignPlateRequest")
	}

	v, err := api.svc.AssignPlate(ctx.Request().Context(), ctx.Param("school"), id, data.AssignedPlateNumber)
	if err != nil {
		return errors.Wrap(err, "assigning plate")
	}
	return ctx.JSON(http.StatusOK, assignPlateResponse{Status: statusSuccess, VisitID: v.ID, Message: msgPlateAssigned})
}
