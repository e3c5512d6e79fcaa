package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core/tutor"
)

type assignmentApi struct {
	svc      tutor.ServiceInterface
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, gate echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:      deps.TutorSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/assign-tuition")
	ag.GET("", api.query)
	ag.POST("", api.append, gate)
	ag.PUT("", api.replace, gate)
	ag.GET("/:id", retired)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	tutors, err := api.svc.ListAssigned(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing assigned tutors")
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api *assignmentApi) append(ctx echo.Context) error {
	var data tutor.NewAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignmentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Append(ctx.Request().Context(), data.TutorID, data.Tuition, data.Timestamp())
	if err != nil {
		return errors.Wrap(err, "appending assignment")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *assignmentApi) replace(ctx echo.Context) error {
	var data tutor.ReplaceAssignments
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplaceAssignments")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.BulkReplace(ctx.Request().Context(), data.ID, *data.AssignedTuitions)
	if err != nil {
		return errors.Wrap(err, "replacing assignments")
	}
	return ctx.JSON(http.StatusOK, t)
}

// retired answers the legacy per-tuition lookup; tuitions are no longer standalone records.
func retired(ctx echo.Context) error {
	return errTuitionGone
}
