package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/service"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/api/systems", s.RegisterSystemHandler)
	e.DELETE("/api/systems/:id", s.RemoveSystemHandler)
	e.POST("/api/systems/:id/plan", s.CreatePlanHandler)
	e.GET("/api/systems/:id/plan", s.GetPlanHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

type createPlanBody struct {
	PowerKw           []float64 `json:"power_kw"`
	BatteryCurrentSOC *float64  `json:"battery_current_soc"`
	AllowExport       *bool     `json:"allow_export"`
	UpdateSensors     *bool     `json:"update_sensors"`
}

// CreatePlanHandler requests a fresh plan for one entry. An empty body
// uses the entry's configured defaults.
func (s *Server) CreatePlanHandler(c echo.Context) error {
	var body createPlanBody
	if err := c.Bind(&body); err != nil {
		planRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		return c.JSON(http.StatusBadRequest, domain.PlanResult{Success: false, Error: err.Error()})
	}

	var params *batteryplanner.PlanParams
	if body.PowerKw != nil || body.BatteryCurrentSOC != nil || body.AllowExport != nil {
		params = &batteryplanner.PlanParams{PowerKw: body.PowerKw}
		if body.BatteryCurrentSOC != nil {
			params.BatteryCurrentSOC = *body.BatteryCurrentSOC
		}
		if body.AllowExport != nil {
			params.AllowExport = *body.AllowExport
		}
	}
	updateSensors := body.UpdateSensors == nil || *body.UpdateSensors

	start := time.Now()
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.CreatePlanRequest{
		EntryID:       c.Param("id"),
		Params:        params,
		UpdateSensors: updateSensors,
	}, s.requestTimeout+5*time.Second).Result()
	planRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		planRequestsTotal.WithLabelValues(outcomeError).Inc()
		return c.JSON(http.StatusBadGateway, domain.PlanResult{Success: false, Error: err.Error()})
	}
	response, ok := res.(domain.CreatePlanResponse)
	if !ok {
		planRequestsTotal.WithLabelValues(outcomeError).Inc()
		return c.JSON(http.StatusInternalServerError, domain.PlanResult{Success: false, Error: "unexpected response"})
	}
	if response.Result.Success {
		planRequestsTotal.WithLabelValues(outcomeSuccess).Inc()
		return c.JSON(http.StatusOK, response.Result)
	}

	// requests rejected before any upstream call get a 422; upstream
	// failures still answer 200, the PlanResult is the error channel
	respErr := response.GetResponseError()
	switch {
	case errors.Is(respErr, service.ErrUnknownEntry),
		errors.Is(respErr, service.ErrNoParams),
		errors.Is(respErr, service.ErrEmptyPower),
		errors.Is(respErr, service.ErrNonFinitePower),
		errors.Is(respErr, service.ErrSOCOutOfRange):
		planRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		return c.JSON(http.StatusUnprocessableEntity, response.Result)
	default:
		planRequestsTotal.WithLabelValues(outcomeError).Inc()
		return c.JSON(http.StatusOK, response.Result)
	}
}

// GetPlanHandler returns the last published plan for one entry.
func (s *Server) GetPlanHandler(c echo.Context) error {
	plan, ok := s.plans.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no plan"})
	}
	return c.JSON(http.StatusOK, plan)
}

type registerSystemBody struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	SystemID          string    `json:"system_id"`
	APIToken          string    `json:"api_token"`
	PowerKw           []float64 `json:"power_kw"`
	BatteryCurrentSOC *float64  `json:"battery_current_soc"`
	AllowExport       bool      `json:"allow_export"`
}

func (s *Server) RegisterSystemHandler(c echo.Context) error {
	var body registerSystemBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": domain.FLOW_ERROR_UNKNOWN})
	}

	entry := domain.SystemEntry{
		ID:       body.ID,
		Name:     body.Name,
		SystemID: body.SystemID,
		APIToken: body.APIToken,
	}
	if body.PowerKw != nil {
		entry.Defaults = &batteryplanner.PlanParams{
			PowerKw:     body.PowerKw,
			AllowExport: body.AllowExport,
		}
		if body.BatteryCurrentSOC != nil {
			entry.Defaults.BatteryCurrentSOC = *body.BatteryCurrentSOC
		}
	}

	res, err := s.rootContext.RequestFuture(s.masterActor, domain.RegisterSystemRequest{
		Entry: entry,
	}, s.requestTimeout+5*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": domain.FLOW_ERROR_CANNOT_CONNECT})
	}
	response, ok := res.(domain.RegisterSystemResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": domain.FLOW_ERROR_UNKNOWN})
	}

	switch response.ErrorCode {
	case "":
		return c.JSON(http.StatusCreated, map[string]string{"id": entry.ID})
	case domain.FLOW_ERROR_INVALID_AUTH:
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": response.ErrorCode})
	case domain.FLOW_ERROR_CANNOT_CONNECT:
		return c.JSON(http.StatusBadGateway, map[string]string{"error": response.ErrorCode})
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": response.ErrorCode})
	}
}

func (s *Server) RemoveSystemHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.RemoveSystemRequest{
		EntryID: c.Param("id"),
	}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	response, ok := res.(domain.RemoveSystemResponse)
	if !ok || !response.Removed {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown system"})
	}
	return c.NoContent(http.StatusNoContent)
}
