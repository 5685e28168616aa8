package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/stenite/planner2mqtt/internal/adapter/actor"
	"github.com/stenite/planner2mqtt/internal/config"
	"github.com/stenite/planner2mqtt/internal/core/actor"
	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/port"
	"github.com/stenite/planner2mqtt/internal/core/service"
	"github.com/stenite/planner2mqtt/internal/server"
	"github.com/stenite/planner2mqtt/internal/util/actorutil"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// shared stores, seeded from config
	entries, err := systemEntries(cfg.Systems)
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	credentials := service.NewMemoryCredentialStore(entries)
	plans := service.NewMemoryPlanStateStore()

	client := batteryplanner.NewHTTPClient(cfg.Planner.BaseURL,
		time.Duration(cfg.Planner.RequestTimeoutMillis)*time.Millisecond)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, credentials,
			plannerActorProvider(cfg, client, credentials, plans, logger),
			mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid, plans)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => PLANNER2MQTT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("PLANNER2MQTT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("planner2mqtt")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.Planner.RequestTimeoutMillis < 1000 || cfg.Planner.RequestTimeoutMillis > 120000 {
		return nil, errors.New("config param planner.request_timeout_millis should be between 1000 and 120000")
	}
	if cfg.Planner.PollIntervalMillis > 0 && cfg.Planner.PollIntervalMillis < 1000 {
		return nil, errors.New("config param planner.poll_interval_millis should be 0 or >= 1000")
	}
	if cfg.Planner.Currency == "" {
		return nil, errors.New("config param planner.currency should not be empty")
	}

	return &cfg, nil
}

// systemEntries validates the configured systems and turns them into
// store entries. Systems without power_kw carry no defaults and are only
// planned on demand.
func systemEntries(systems []config.SystemConfig) ([]domain.SystemEntry, error) {
	entries := make([]domain.SystemEntry, 0, len(systems))
	for _, sys := range systems {
		id, err := config.CheckEntryID(sys.ID)
		if err != nil {
			return nil, fmt.Errorf("config param systems[].id %q: %w", sys.ID, err)
		}
		if sys.SystemID == "" || sys.APIToken == "" {
			return nil, fmt.Errorf("config entry %s needs system_id and api_token", id)
		}
		entry := domain.SystemEntry{
			ID:       id,
			Name:     sys.Name,
			SystemID: sys.SystemID,
			APIToken: sys.APIToken,
		}
		if len(sys.PowerKw) > 0 {
			entry.Defaults = &batteryplanner.PlanParams{
				PowerKw:     sys.PowerKw,
				AllowExport: sys.AllowExport,
			}
			if sys.BatteryCurrentSOC != nil {
				entry.Defaults.BatteryCurrentSOC = *sys.BatteryCurrentSOC
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func plannerActorProvider(cfg *config.Config, client batteryplanner.Client,
	credentials port.CredentialStore, plans port.PlanStateStore, logger *zap.Logger) actor.PlannerActorProvider {
	timeout := time.Duration(cfg.Planner.RequestTimeoutMillis) * time.Millisecond
	return func(es *eventstream.EventStream) *adactor.PlannerActor {
		return adactor.NewPlannerActor(client, credentials, plans, es, timeout, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "planner2mqtt")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("planner.base_url", batteryplanner.DefaultBaseURL)
	viper.SetDefault("planner.request_timeout_millis", 30000)
	viper.SetDefault("planner.poll_interval_millis", 0)
	viper.SetDefault("planner.currency", "EUR")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	for i := range cfg.Systems {
		cfg.Systems[i].APIToken = "*redacted*"
	}
	slog.Info("Using", "config", cfg)
}
