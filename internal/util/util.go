package util

import (
	"github.com/stenite/planner2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	soc := 50.0
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "planner2mqtt",
			HADiscoveryTopic: "homeassistant",
		},
		Planner: config.PlannerConfig{
			BaseURL:              "http://localhost:9999",
			RequestTimeoutMillis: 2000,
			Currency:             "EUR",
		},
		Systems: []config.SystemConfig{
			{
				ID:                "home",
				Name:              "Home battery",
				SystemID:          "sys42",
				APIToken:          "test-token",
				PowerKw:           []float64{1.2, -0.5, 0.8},
				BatteryCurrentSOC: &soc,
				AllowExport:       true,
			},
		},
		Port: 8080,
	}
}
