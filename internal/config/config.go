package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig    `mapstructure:"mqtt"`
	Planner  PlannerConfig `mapstructure:"planner"`

	Systems []SystemConfig `mapstructure:"systems"`
	Port    uint           `mapstructure:"port"`
	HttpLog bool           `mapstructure:"http_log"`
}

type PlannerConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
	PollIntervalMillis   uint32 `mapstructure:"poll_interval_millis"`
	Currency             string `mapstructure:"currency"`
}

// SystemConfig is one battery system entry seeded from configuration.
// Further entries can be registered at runtime through the HTTP API, but
// those are not persisted across restarts; the host owns durable storage.
type SystemConfig struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	SystemID string `mapstructure:"system_id"`
	APIToken string `mapstructure:"api_token"`

	// Default plan inputs used by the periodic poller. A system without
	// power_kw is never polled, only planned on demand.
	PowerKw           []float64 `mapstructure:"power_kw"`
	BatteryCurrentSOC *float64  `mapstructure:"battery_current_soc"`
	AllowExport       bool      `mapstructure:"allow_export"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// CheckEntryID validates a config entry id for use in MQTT topics and
// sensor unique ids.
func CheckEntryID(id string) (string, error) {
	lowerID := strings.ToLower(id)
	idRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	if !idRegexp.MatchString(lowerID) {
		return "", errors.New("invalid entry id. can only contain letters, numbers and underscores")
	}
	return lowerID, nil
}
