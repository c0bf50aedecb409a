package configuration

import (
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/mitchellh/mapstructure"
	"reflect"
	"strings"
)

// decodeHook extends the default viper decode hooks with
// case-insensitive speed names.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		speedNameHookFunc(),
	)
}

func speedNameHookFunc() mapstructure.DecodeHookFuncType {
	speedNameType := reflect.TypeOf(lunos.SpeedName(""))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != speedNameType || f.Kind() != reflect.String {
			return data, nil
		}
		return lunos.SpeedName(strings.ToLower(strings.TrimSpace(data.(string)))), nil
	}
}
