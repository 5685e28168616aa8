package actorutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/mqtt"
	"github.com/stenite/planner2mqtt/pkg/batteryplanner"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// createPlanPayload is the JSON body accepted on the create_plan command
// topic. All fields are optional: a missing params block falls back to
// the entry's configured defaults.
type createPlanPayload struct {
	PowerKw           []float64 `json:"power_kw"`
	BatteryCurrentSOC *float64  `json:"battery_current_soc"`
	AllowExport       *bool     `json:"allow_export"`
	UpdateSensors     *bool     `json:"update_sensors"`
}

func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ParsedCommand, error) {
	if cmd.Command != "create_plan" {
		return nil, nil
	}
	parsed := domain.CreatePlanCommand{
		EntryID:       cmd.EntryID,
		UpdateSensors: true,
	}
	if cmd.Payload == "" {
		return parsed, nil
	}
	var payload createPlanPayload
	if err := json.Unmarshal([]byte(cmd.Payload), &payload); err != nil {
		return nil, fmt.Errorf("invalid create_plan payload: %w", err)
	}
	if payload.UpdateSensors != nil {
		parsed.UpdateSensors = *payload.UpdateSensors
	}
	if payload.PowerKw != nil || payload.BatteryCurrentSOC != nil || payload.AllowExport != nil {
		params := &batteryplanner.PlanParams{
			PowerKw: payload.PowerKw,
		}
		if payload.BatteryCurrentSOC != nil {
			params.BatteryCurrentSOC = *payload.BatteryCurrentSOC
		}
		if payload.AllowExport != nil {
			params.AllowExport = *payload.AllowExport
		}
		parsed.Params = params
	}
	return parsed, nil
}
