package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE   = "bridge"
	SENSOR_ID_BASELINE_COST  = "baseline_cost"
	SENSOR_ID_OPTIMIZED_COST = "optimized_cost"
	SENSOR_ID_COST_DELTA     = "cost_delta"
	SENSOR_ID_PLAN           = "plan"
	SENSOR_ID_CURRENT_ACTION = "current_action"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_MONETARY     = "monetary"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"

	PLAN_STATE_ACTIVE = "active"
)

// SystemSensorId namespaces a sensor kind under its config entry so topics
// and events stay unique when multiple systems are registered.
func SystemSensorId(entryID, kind string) string {
	return fmt.Sprintf("%s_%s", entryID, kind)
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("planner2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "Stenite",
		Model:        "Planner2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Planner2MQTT %s", md5HashShort(baseTopic)),
	}
}

func PlannerSystemDevice(entry SystemEntry, bridgeDevice Device) Device {
	name := entry.Name
	if name == "" {
		name = fmt.Sprintf("Battery Planner %s", entry.ID)
	}
	return Device{
		Id:           fmt.Sprintf("bp_system_%s", md5HashShort(entry.ID)),
		Manufacturer: "Stenite",
		Model:        "Battery Planner",
		Name:         name,
		ViaDevice:    bridgeDevice.Id,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// PlannerSystemSensors builds the host-visible entities of one system.
// Cost sensors are plain numeric state; the plan and current action
// sensors carry their structured detail on an attribute topic.
func PlannerSystemSensors(systemDevice Device, entry SystemEntry, currency string) []GenericSensor {

	var sensors []GenericSensor

	// Baseline cost
	sensors = append(sensors, GenericSensor{
		Device:            systemDevice,
		Id:                SystemSensorId(entry.ID, SENSOR_ID_BASELINE_COST),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Baseline cost",
		DeviceClass:       DEVICE_CLASS_MONETARY,
		UnitOfMeasurement: currency,
		UniqueId:          uniqueId(systemDevice.Id, SENSOR_ID_BASELINE_COST),
	})

	// Optimized cost
	sensors = append(sensors, GenericSensor{
		Device:            systemDevice,
		Id:                SystemSensorId(entry.ID, SENSOR_ID_OPTIMIZED_COST),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Optimized cost",
		DeviceClass:       DEVICE_CLASS_MONETARY,
		UnitOfMeasurement: currency,
		UniqueId:          uniqueId(systemDevice.Id, SENSOR_ID_OPTIMIZED_COST),
	})

	// Cost delta (baseline - optimized)
	sensors = append(sensors, GenericSensor{
		Device:            systemDevice,
		Id:                SystemSensorId(entry.ID, SENSOR_ID_COST_DELTA),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Cost savings",
		DeviceClass:       DEVICE_CLASS_MONETARY,
		UnitOfMeasurement: currency,
		Icon:              "mdi:piggy-bank",
		UniqueId:          uniqueId(systemDevice.Id, SENSOR_ID_COST_DELTA),
	})

	// Plan state, schedule rides on the attribute topic
	sensors = append(sensors, GenericSensor{
		Device:         systemDevice,
		Id:             SystemSensorId(entry.ID, SENSOR_ID_PLAN),
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Plan",
		Icon:           "mdi:chart-timeline",
		JSONAttributes: true,
		UniqueId:       uniqueId(systemDevice.Id, SENSOR_ID_PLAN),
	})

	// Current action
	sensors = append(sensors, GenericSensor{
		Device:         systemDevice,
		Id:             SystemSensorId(entry.ID, SENSOR_ID_CURRENT_ACTION),
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Current action",
		Icon:           "mdi:battery-sync",
		JSONAttributes: true,
		UniqueId:       uniqueId(systemDevice.Id, SENSOR_ID_CURRENT_ACTION),
	})

	return sensors
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
