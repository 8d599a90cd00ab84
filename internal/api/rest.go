package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ecfan/ecfan/internal/controller"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	indentationChar  = "  "
	metricsSubsystem = "api"
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}

	DutyRequest struct {
		Duty *int `json:"duty"`
	}
)

// CreateRestService creates the REST API for the given controller.
// Request metrics are registered with registerer and served from gatherer on /metrics/.
func CreateRestService(fanController controller.FanController, registerer prometheus.Registerer, gatherer prometheus.Gatherer) *echo.Echo {
	echoRest := CreateWebserver()

	echoRest.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "ecfan",
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))
	echoRest.GET("/metrics/", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))

	echoRest.GET("/alive/", isAlive)

	registerStatusEndpoints(echoRest, fanController)
	registerDutyEndpoints(echoRest, fanController)

	return echoRest
}

func registerStatusEndpoints(rest *echo.Echo, fanController controller.FanController) {
	rest.GET("/status/", func(c echo.Context) error {
		status, err := fanController.RequestStatus(c.Request().Context())
		if err != nil {
			return returnError(c, err)
		}
		return c.JSONPretty(http.StatusOK, status, indentationChar)
	})
}

func registerDutyEndpoints(rest *echo.Echo, fanController controller.FanController) {
	group := rest.Group("/duty")

	// current duty as reported by the EC
	group.GET("/", func(c echo.Context) error {
		status, err := fanController.RequestStatus(c.Request().Context())
		if err != nil {
			return returnError(c, err)
		}
		if status.SnapshotTime.IsZero() || !status.Snapshot.IsValid(ec.FieldFanDuty) {
			return returnNotFound(c, "duty")
		}
		return c.JSONPretty(http.StatusOK, map[string]int{"duty": status.Snapshot.FanDuty}, indentationChar)
	})

	// override the duty, disabling automatic control
	group.POST("/", func(c echo.Context) error {
		var request DutyRequest
		if err := c.Bind(&request); err != nil || request.Duty == nil {
			return returnBadRequest(c, errors.New("expected a body like {\"duty\": 40}"))
		}
		err := fanController.OverrideDuty(c.Request().Context(), *request.Duty)
		if err != nil {
			return returnError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})

	// resume automatic control
	group.DELETE("/", func(c echo.Context) error {
		err := fanController.ResumeAuto(c.Request().Context())
		if err != nil {
			return returnError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: fmt.Sprintf("No value for '%s' available yet", id),
	}, indentationChar)
}

func returnBadRequest(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad Request",
		Message: e.Error(),
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	switch {
	case errors.Is(e, ec.ErrInvalidDutyArgument):
		return returnBadRequest(c, e)
	case errors.Is(e, controller.ErrControllerStopped):
		return c.JSONPretty(http.StatusServiceUnavailable, &Result{
			Name:    "Unavailable",
			Message: e.Error(),
		}, indentationChar)
	}
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}
