package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/tutor"
)

type tutorApi struct {
	svc       tutor.ServiceInterface
	validate  *validator.Validate
	exportLoc *time.Location
}

func registerTutorAPI(g *echo.Group, gate echo.MiddlewareFunc, deps ServerDeps) {
	api := tutorApi{
		svc:       deps.TutorSvc,
		validate:  deps.Validate,
		exportLoc: deps.Conf.ExportLocation(),
	}

	tg := g.Group("/tutors")
	tg.GET("", api.query)
	tg.POST("", api.create, gate)
	tg.GET("/export", api.export, gate)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update, gate)
	dg.DELETE("", api.destroy, gate)
}

// Handlers

func (api *tutorApi) query(ctx echo.Context) error {
	tutors, err := api.list(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api *tutorApi) create(ctx echo.Context) error {
	var data tutor.NewTutor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTutor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating tutor")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tutorApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting tutor")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tutorApi) update(ctx echo.Context) error {
	var data tutor.UpdateTutor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTutor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating tutor")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tutorApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting tutor")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Tutor deleted"})
}

func (api *tutorApi) export(ctx echo.Context) error {
	format, err := tutor.ParseExportFormat(ctx.QueryParam("format"))
	if err != nil {
		return core.NewFieldValidationError("format", "format must be one of: csv, xlsx")
	}
	tutors, err := api.list(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = tutor.Export(&buf, format, tutors, api.exportLoc); err != nil {
		return errors.Wrap(err, "exporting tutors")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", format.Filename()))
	return ctx.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

// list applies the `search` and `ordering` query params.
func (api *tutorApi) list(ctx echo.Context) ([]tutor.Tutor, error) {
	q := bindListQuery(ctx)
	tutors, err := api.svc.List(ctx.Request().Context(), q.Filter, q.Orderings)
	if err != nil {
		return nil, errors.Wrap(err, "listing tutors")
	}
	return tutors, nil
}
