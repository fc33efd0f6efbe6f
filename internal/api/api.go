package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/ougirez/hvac-catalog/internal/api/controller"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/metrics"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
	"github.com/ougirez/hvac-catalog/internal/service/device"
	"github.com/ougirez/hvac-catalog/internal/service/ingest"
	"github.com/ougirez/hvac-catalog/internal/service/projector"
	"github.com/ougirez/hvac-catalog/internal/service/search"
)

type APIService struct {
	router *echo.Echo
	store  store.Store

	searchEngine  *search.Engine
	pipeline      *ingest.Pipeline
	deviceService *device.Service
}

// Serve blocks until the server stops. A graceful shutdown is not an error.
func (svc *APIService) Serve(addr string) error {
	logger.Infof(context.Background(), "http server listening on %s", addr)
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (svc *APIService) Handler() http.Handler {
	return svc.router
}

func NewAPIService(st store.Store, reg *registry.Registry) (*APIService, error) {
	svc := &APIService{router: echo.New(), store: st}
	svc.router.HideBanner = true
	svc.router.HidePort = true

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	catalogMetrics, err := metrics.NewCatalogMetrics(promRegistry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	maxUpload := viper.GetString(constants.ViperIngestMaxUploadKey)
	maxUploadBytes, err := bytes.Parse(maxUpload)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", constants.ViperIngestMaxUploadKey, maxUpload, err)
	}

	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.JSONSerializer = &sonicSerializer{}
	svc.router.HTTPErrorHandler = httpErrorHandler
	svc.router.Use(middleware.Recover())
	svc.router.Use(svc.RequestContextMiddleware)
	svc.router.Use(requestLogger())
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  viper.GetStringSlice(constants.ViperHTTPCORSOriginsKey),
		AllowMethods:  []string{echo.GET, echo.POST},
		AllowHeaders:  []string{echo.HeaderContentType, constants.HeaderRequestID},
		ExposeHeaders: []string{echo.HeaderContentDisposition, constants.HeaderRequestID},
	}))

	svc.searchEngine = search.NewEngine(reg, st,
		search.WithPageSizes(
			viper.GetInt(constants.ViperSearchDefaultPageSizeKey),
			viper.GetInt(constants.ViperSearchMaxPageSizeKey),
		),
		search.WithMetrics(catalogMetrics),
	)
	svc.pipeline = ingest.NewPipeline(reg, st,
		ingest.WithMaxDiagnostics(viper.GetInt(constants.ViperIngestMaxDiagnosticsKey)),
		ingest.WithMetrics(catalogMetrics),
	)
	svc.deviceService = device.NewDeviceService(st, reg)

	cntrl := controller.NewController(
		svc.searchEngine,
		projector.New(reg, viper.GetString(constants.ViperExportNullMarkerKey)),
		svc.pipeline,
		svc.deviceService,
		maxUploadBytes,
	)

	svc.router.GET("/healthz", svc.healthz)
	svc.router.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	api := svc.router.Group("/api/v1")
	api.GET("/fields", cntrl.GetFields)

	devices := api.Group("/devices")
	devices.GET("/search", cntrl.SearchDevices)
	devices.GET("/export", cntrl.ExportDevices)
	devices.GET("/trends", cntrl.GetTrends)
	devices.GET("/:id", cntrl.GetDevice)
	devices.GET("/:id/observations", cntrl.GetObservations)
	devices.POST("", cntrl.CreateDevice)
	devices.POST("/import", cntrl.ImportDevices, middleware.BodyLimit(maxUpload))

	return svc, nil
}

func (svc *APIService) healthz(c echo.Context) error {
	if err := svc.store.Ping(c.Request().Context()); err != nil {
		logger.Errorf(c.Request().Context(), "healthz: %s", err.Error())
		return fmt.Errorf("%w: %v", constants.ErrStoreUnavailable, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
