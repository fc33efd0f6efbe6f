package controller

import (
	"github.com/ougirez/hvac-catalog/internal/domain/dto"
	"github.com/ougirez/hvac-catalog/internal/service/device"
	"github.com/ougirez/hvac-catalog/internal/service/ingest"
	"github.com/ougirez/hvac-catalog/internal/service/projector"
	"github.com/ougirez/hvac-catalog/internal/service/search"
)

type Controller struct {
	search    *search.Engine
	projector *projector.Projector
	pipeline  *ingest.Pipeline
	devices   *device.Service
	maxUpload int64
}

func NewController(
	searchEngine *search.Engine,
	proj *projector.Projector,
	pipeline *ingest.Pipeline,
	devices *device.Service,
	maxUpload int64,
) *Controller {
	return &Controller{
		search:    searchEngine,
		projector: proj,
		pipeline:  pipeline,
		devices:   devices,
		maxUpload: maxUpload,
	}
}

func toParams(req *dto.SearchRequest) search.Params {
	return search.Params{
		Manufacturer:   req.Manufacturer,
		DeviceFamily:   req.DeviceFamily,
		IDOrModel:      req.IDOrModel,
		MetricName:     req.MetricName,
		MetricOperator: req.MetricOp,
		MetricValue:    req.MetricValue,
		AdvancedField:  req.AdvancedField,
		AdvancedValue:  req.AdvancedValue,
		GroupBy:        req.GroupBy,
		DisplayFields:  req.DisplayFields,
		Page:           req.Page,
		PageSize:       req.PageSize,
	}
}
