package api

import (
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/labstack/echo/v4"
	"net/http"
)

func registerVariantEndpoints(rest *echo.Echo) {
	group := rest.Group("/variant")

	group.GET("/", getVariants)
}

// returns all supported controller codings
func getVariants(c echo.Context) error {
	var data []lunos.ControllerVariant
	for _, key := range lunos.DefaultRegistry.Keys() {
		variant, _ := lunos.DefaultRegistry.Get(key)
		data = append(data, variant)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
