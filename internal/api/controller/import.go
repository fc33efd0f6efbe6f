package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/service/ingest"
)

type importResponse struct {
	*ingest.Result
	Error string `json:"error,omitempty"`
}

// ImportDevices ingests a multipart upload: "family", "file" and, for heat
// pumps, an optional "observations" file.
func (c *Controller) ImportDevices(ctx echo.Context) error {
	if err := ctx.Request().ParseMultipartForm(c.maxUpload); err != nil {
		return fmt.Errorf("%w: %v", constants.ErrBadRequest, err)
	}

	family := ctx.FormValue("family")
	format := ctx.FormValue("format")

	base, closeBase, err := openUpload(ctx, "file", format)
	if err != nil {
		return err
	}
	if base == nil {
		return fmt.Errorf("%w: file is required", constants.ErrBadRequest)
	}
	defer closeBase()

	observations, closeObs, err := openUpload(ctx, "observations", format)
	if err != nil {
		return err
	}
	if observations != nil {
		defer closeObs()
	}

	reqCtx := ctx.Request().Context()
	var result *ingest.Result
	if kind, ok := domain.ParseFamily(family); ok && kind == domain.KindHeatPump {
		result, err = c.pipeline.IngestHeatPumps(reqCtx, base, observations)
	} else {
		result, err = c.pipeline.Ingest(reqCtx, base, family)
	}

	if err != nil && result != nil {
		var coded *constants.CodedError
		code := http.StatusInternalServerError
		if errors.As(err, &coded) {
			code = coded.Code()
		}
		return ctx.JSON(code, importResponse{Result: result, Error: err.Error()})
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, importResponse{Result: result})
}

// openUpload opens the named multipart file as a tabular source. A missing
// file yields a nil source.
func openUpload(ctx echo.Context, field, format string) (ingest.Source, func(), error) {
	header, err := ctx.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", constants.ErrBadRequest, field, err)
	}

	f, err := ingest.DetectFormat(format, header.Filename)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", constants.ErrBadRequest, err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", field, err)
	}
	closeFile := func() { _ = file.Close() }

	src, err := ingest.Open(f, file)
	if err != nil {
		closeFile()
		return nil, nil, fmt.Errorf("%w: %s: %v", constants.ErrBadRequest, field, err)
	}
	return src, closeFile, nil
}
