package dashapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/live"
)

type sessionApi struct {
	monitors   *live.Registry
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(g *echo.Group, deps ServerDeps) {
	api := sessionApi{
		monitors:   deps.Monitors,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/sessions/:id")
	sg.GET("/state", api.state)
	sg.POST("/actions/:action", api.action)
	sg.POST("/mark", api.mark)
	sg.POST("/confirmations/:confirmationID", api.confirm)
}

type (
	markRequest struct {
		StudentID string `json:"student_id" validate:"required"`
		Status    string `json:"status" validate:"required,oneof=present absent late pending"`
		Notes     string `json:"notes"`
	}

	confirmRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}
)

func (mr *markRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(mr)
}

func (cr *confirmRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(cr)
}

// Handlers

func (api *sessionApi) state(ctx echo.Context) error {
	mon, err := api.monitors.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mon.Snapshot())
}

func (api *sessionApi) action(ctx echo.Context) error {
	mon, err := api.monitors.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = mon.Action(ctx.Request().Context(), ctx.Param("action")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mon.Snapshot())
}

func (api *sessionApi) mark(ctx echo.Context) error {
	var data markRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to markRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mon, err := api.monitors.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = mon.Mark(ctx.Request().Context(), data.StudentID, live.AttendanceStatus(data.Status), data.Notes); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mon.Snapshot())
}

func (api *sessionApi) confirm(ctx echo.Context) error {
	var data confirmRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to confirmRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mon, err := api.monitors.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = mon.Confirm(ctx.Request().Context(), ctx.Param("confirmationID"), data.StudentID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mon.Snapshot())
}
