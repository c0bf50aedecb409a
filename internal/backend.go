package internal

import (
	"context"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/api"
	"github.com/dMopp/hass-lunos/internal/configuration"
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/events"
	"github.com/dMopp/hass-lunos/internal/homeassistant"
	"github.com/dMopp/hass-lunos/internal/persistence"
	"github.com/dMopp/hass-lunos/internal/relays"
	"github.com/dMopp/hass-lunos/internal/statistics"
	"github.com/dMopp/hass-lunos/internal/ui"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func RunDaemon() {
	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Cannot prepare database at %s: %v", configuration.CurrentConfig.DbPath, err)
	}

	var mqttClient mqtt.Client
	var bridge *homeassistant.Bridge
	mqttConfig := configuration.CurrentConfig.Mqtt
	if mqttConfig.Enabled {
		options := mqttConfig.ClientOptions().SetOnConnectHandler(func(client mqtt.Client) {
			ui.Info("Connected to MQTT broker %s", mqttConfig.Broker)
			subscribeRelays(client)
			if bridge != nil {
				if err := bridge.Connect(); err != nil {
					ui.Error("Cannot register Home Assistant entities: %v", err)
				}
			}
		})
		mqttClient = mqtt.NewClient(options)
	}

	units := InitializeObjects(mqttClient, pers)
	if len(units) == 0 {
		ui.Fatal("No valid unit configurations, exiting.")
	}

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		enabled := configuration.CurrentConfig.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			port := configuration.CurrentConfig.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9000
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

			g.Add(func() error {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		apiConfig := configuration.CurrentConfig.Api
		if apiConfig.Enabled {
			// === REST api
			rest := api.CreateRestService(prometheus.DefaultRegisterer)

			g.Add(func() error {
				addr := fmt.Sprintf("%s:%d", apiConfig.Host, apiConfig.Port)
				ui.Info("Starting REST api at %s", addr)
				if err := rest.Start(addr); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start REST api (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := rest.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST api: %v", err)
				}
			})
		}
	}
	{
		if mqttClient != nil {
			// === MQTT connection, subscriptions are (re)created by the OnConnect handler
			bridge = homeassistant.NewBridge(mqttClient, mqttConfig, units)

			g.Add(func() error {
				ui.Info("Connecting to MQTT broker %s", mqttConfig.Broker)
				mqttClient.Connect()
				<-ctx.Done()
				return nil
			}, func(err error) {
				bridge.Close()
				mqttClient.Disconnect(250)
			})
		}
	}
	{
		eventsConfig := configuration.CurrentConfig.Events
		if eventsConfig.Enabled {
			// === state change events
			publisher := events.NewKafkaPublisher(eventsConfig)
			publisher.Attach(units)

			g.Add(func() error {
				return publisher.Run(ctx)
			}, func(err error) {
				if err != nil {
					ui.Warning("Error publishing state events: %v", err)
				}
			})
		}
	}
	{
		// === unit controllers
		for _, unit := range units {
			u := unit

			g.Add(func() error {
				err := u.Run(ctx)
				ui.Info("Controller for LUNOS unit %s stopped.", u.GetId())
				return err
			}, func(err error) {
				if err != nil {
					ui.Warning("Something went wrong: %v", err)
				}
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeObjects creates all relays and units of the current configuration and registers their metrics
func InitializeObjects(client mqtt.Client, pers persistence.Persistence) []controller.FanController {
	if err := createRelays(configuration.CurrentConfig.Relays, client); err != nil {
		ui.Fatal("Unable to process relay configuration: %v", err)
	}

	units, err := createUnits(configuration.CurrentConfig.Units, pers, configuration.CurrentConfig.RefreshRate)
	if err != nil {
		ui.Fatal("Unable to process unit configuration: %v", err)
	}

	statistics.Register(statistics.NewUnitCollector(units))
	statistics.Register(statistics.NewControllerCollector(units))

	return units
}

func createRelays(configs []configuration.RelayConfig, client mqtt.Client) error {
	for _, config := range configs {
		relay, err := relays.NewRelay(config, client)
		if err != nil {
			return err
		}
		relays.RelayMap.Set(config.ID, relay)
	}
	return nil
}

func createUnits(configs []configuration.UnitConfig, pers persistence.Persistence, refreshRate time.Duration) ([]controller.FanController, error) {
	var result []controller.FanController
	for _, config := range configs {
		w1, ok := relays.RelayMap.Get(config.RelayW1)
		if !ok {
			return nil, fmt.Errorf("unit %s: no relay definition with id '%s' found", config.ID, config.RelayW1)
		}
		w2, ok := relays.RelayMap.Get(config.RelayW2)
		if !ok {
			return nil, fmt.Errorf("unit %s: no relay definition with id '%s' found", config.ID, config.RelayW2)
		}

		unit, err := controller.NewFanController(config, w1, w2, pers, refreshRate)
		if err != nil {
			return nil, err
		}
		controller.UnitMap.Set(config.ID, unit)
		result = append(result, unit)
	}
	return result, nil
}

func subscribeRelays(client mqtt.Client) {
	for _, relay := range relays.RelayMap.Items() {
		mqttRelay, ok := relay.(*relays.MqttRelay)
		if !ok {
			continue
		}
		if err := mqttRelay.Subscribe(client); err != nil {
			ui.Error("%v", err)
		}
	}
}
