package api

import (
	"errors"
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/labstack/echo/v4"
	"net/http"
	"sort"
)

type PercentageRequest struct {
	Percentage int `json:"percentage"`
}

type PresetRequest struct {
	Preset string `json:"preset"`
}

type TurnOnRequest struct {
	Percentage *int    `json:"percentage,omitempty"`
	Preset     *string `json:"preset,omitempty"`
}

func registerUnitEndpoints(rest *echo.Echo) {
	group := rest.Group("/unit")

	group.GET("/", getUnits)
	group.GET("/:"+urlParamId+"/", getUnit)
	group.POST("/:"+urlParamId+"/percentage/", setPercentage)
	group.POST("/:"+urlParamId+"/preset/", setPreset)
	group.POST("/:"+urlParamId+"/on/", turnOn)
	group.POST("/:"+urlParamId+"/off/", turnOff)
	group.POST("/:"+urlParamId+"/service/:"+urlParamService+"/", callService)
}

// returns a list of all currently configured units
func getUnits(c echo.Context) error {
	var data []controller.State
	for _, unit := range controller.UnitMap.Items() {
		data = append(data, unit.GetState())
	}
	sort.Slice(data, func(i, j int) bool {
		return data[i].Id < data[j].Id
	})
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getUnit(c echo.Context) error {
	id := c.Param(urlParamId)
	unit, exists := controller.UnitMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, unit.GetState(), indentationChar)
}

func setPercentage(c echo.Context) error {
	var request PercentageRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}
	return withUnit(c, func(unit controller.FanController) error {
		return unit.SetPercentage(c.Request().Context(), request.Percentage)
	})
}

func setPreset(c echo.Context) error {
	var request PresetRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}
	if len(request.Preset) <= 0 {
		return returnBadRequest(c, errors.New("missing preset"))
	}
	return withUnit(c, func(unit controller.FanController) error {
		return unit.SetPresetMode(c.Request().Context(), request.Preset)
	})
}

func turnOn(c echo.Context) error {
	var request TurnOnRequest
	if err := c.Bind(&request); err != nil {
		return returnBadRequest(c, err)
	}
	return withUnit(c, func(unit controller.FanController) error {
		return unit.TurnOn(c.Request().Context(), request.Percentage, request.Preset)
	})
}

func turnOff(c echo.Context) error {
	return withUnit(c, func(unit controller.FanController) error {
		return unit.TurnOff(c.Request().Context())
	})
}

func callService(c echo.Context) error {
	service := c.Param(urlParamService)
	return withUnit(c, func(unit controller.FanController) error {
		return controller.CallService(c.Request().Context(), unit, service)
	})
}

// withUnit runs operation on the unit referenced by the request and responds with its new state
func withUnit(c echo.Context, operation func(unit controller.FanController) error) error {
	id := c.Param(urlParamId)
	unit, exists := controller.UnitMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}

	err := operation(unit)
	switch {
	case errors.Is(err, controller.ErrUnknownService):
		return returnNotFound(c, c.Param(urlParamService))
	case errors.Is(err, lunos.ErrPercentageOutOfRange):
		return returnBadRequest(c, err)
	case err != nil:
		return returnError(c, err)
	}

	return c.JSONPretty(http.StatusOK, unit.GetState(), indentationChar)
}
