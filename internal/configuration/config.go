package configuration

import (
	"github.com/dMopp/hass-lunos/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"os"
	"time"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	// RefreshRate is the interval at which relay states are read back, 0 disables polling
	RefreshRate time.Duration `json:"refreshRate"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
	Mqtt       MqttConfig       `json:"mqtt"`
	Events     EventsConfig     `json:"events"`

	Relays []RelayConfig `json:"relays"`
	Units  []UnitConfig  `json:"units"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("lunos2go")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/lunos2go/")
	}

	viper.SetEnvPrefix("LUNOS2GO")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/lunos2go/lunos2go.db")
	viper.SetDefault("RefreshRate", 30*time.Second)

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 8080)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.clientId", "lunos2go")
	viper.SetDefault("mqtt.topicPrefix", "lunos")
	viper.SetDefault("mqtt.discoveryPrefix", "homeassistant")
	viper.SetDefault("mqtt.discovery", true)

	viper.SetDefault("events.enabled", false)
	viper.SetDefault("events.topic", "lunos.state")

	viper.SetDefault("relays", []RelayConfig{})
	viper.SetDefault("units", []UnitConfig{})
}

// DetectAndReadConfigFile reads the config file and returns its path,
// this is only populated _after_ ReadInConfig()
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	// load default configuration values
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
	applyUnitDefaults(&CurrentConfig)
}
