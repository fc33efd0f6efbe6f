package controller

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/domain/dto"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/service/projector"
)

func (c *Controller) bindSearch(ctx echo.Context) (*dto.SearchRequest, error) {
	var req dto.SearchRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, err
	}
	if err := ctx.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Controller) GetFields(ctx echo.Context) error {
	var req dto.FieldsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	fields, err := c.search.Fields(domain.Capability(req.Capability))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fields)
}

func (c *Controller) SearchDevices(ctx echo.Context) error {
	req, err := c.bindSearch(ctx)
	if err != nil {
		return err
	}

	result, err := c.search.Search(ctx.Request().Context(), toParams(req))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

// ExportDevices writes every matching row, unpaginated, as a CSV or XLSX
// attachment.
func (c *Controller) ExportDevices(ctx echo.Context) error {
	req, err := c.bindSearch(ctx)
	if err != nil {
		return err
	}
	format, ok := projector.ParseFormat(req.Format)
	if !ok {
		return fmt.Errorf("%w: unsupported format %q", constants.ErrBadRequest, req.Format)
	}

	params := toParams(req)
	params.All = true
	result, err := c.search.Search(ctx.Request().Context(), params)
	if err != nil {
		return err
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, format.ContentType())
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="devices.%s"`, format))
	resp.WriteHeader(http.StatusOK)
	return c.projector.Write(resp, format, result.Rows, result.Columns)
}

func (c *Controller) GetTrends(ctx echo.Context) error {
	req, err := c.bindSearch(ctx)
	if err != nil {
		return err
	}

	result, err := c.search.Trends(ctx.Request().Context(), toParams(req), req.Metric)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

func (c *Controller) GetDevice(ctx echo.Context) error {
	var req dto.IDRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	device, err := c.devices.Get(ctx.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, device)
}

func (c *Controller) GetObservations(ctx echo.Context) error {
	var req dto.IDRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	observations, err := c.devices.Observations(ctx.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, observations)
}

func (c *Controller) CreateDevice(ctx echo.Context) error {
	var req dto.CreateDeviceRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	id, warnings, err := c.pipeline.CreateDevice(ctx.Request().Context(), req.DeviceFamily, req.Fields)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, dto.CreateDeviceResponse{ID: id, Warnings: warnings})
}
