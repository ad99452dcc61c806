// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"

	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

// EnvPrefix prefixes every environment override, e.g. ROVER_MQTT_BROKER.
const EnvPrefix = "ROVER_"

// Config holds all application configuration values.
// Each field can be overridden from the environment using its env tag plus EnvPrefix.
type Config struct {
	// Inertial sensor: "mpu6050" (I2C), "mpu9250" (SPI) or "mock"
	IMUDriver    string `env:"IMU_DRIVER"`
	IMUI2CBus    string `env:"IMU_I2C_BUS"`
	IMUI2CAddr   uint16 `env:"IMU_I2C_ADDR"`
	IMUSPIDevice string `env:"IMU_SPI_DEVICE"`
	IMUCSPin     string `env:"IMU_CS_PIN"`

	// IMU Sensor Ranges
	IMUAccelRange imu.AccelRange `env:"IMU_ACCEL_RANGE"`
	IMUGyroRange  imu.GyroRange  `env:"IMU_GYRO_RANGE"`

	// Number of samples averaged into the bias at startup
	CalibrationSamples int `env:"CALIBRATION_SAMPLES"`

	// Range finders: "ads1115" or "mock"
	IRDriver       string        `env:"IR_DRIVER"`
	IRI2CBus       string        `env:"IR_I2C_BUS"`
	IRADCAddr      uint16        `env:"IR_ADC_ADDR"`
	IRFrontChannel int           `env:"IR_FRONT_CHANNEL"`
	IRFrontModel   ranging.Model `env:"IR_FRONT_MODEL"`
	IRRearChannel  int           `env:"IR_REAR_CHANNEL"`
	IRRearModel    ranging.Model `env:"IR_REAR_MODEL"`
	IRSamples      int           `env:"IR_SAMPLES"`

	// Timing
	PollInterval int `env:"POLL_INTERVAL"` // milliseconds

	// MQTT
	MQTTBroker          string `env:"MQTT_BROKER"`
	MQTTClientIDRover   string `env:"MQTT_CLIENT_ID_ROVER"`
	MQTTClientIDWeb     string `env:"MQTT_CLIENT_ID_WEB"`
	MQTTClientIDDisplay string `env:"MQTT_CLIENT_ID_DISPLAY"`
	MQTTClientIDConsole string `env:"MQTT_CLIENT_ID_CONSOLE"`

	// Topics
	TopicReadings string `env:"TOPIC_READINGS"`
	TopicReport   string `env:"TOPIC_REPORT"`
	TopicBias     string `env:"TOPIC_BIAS"`

	// Serial link to the remote console; empty port disables it
	SerialPort    string `env:"SERIAL_PORT"`
	SerialBaud    uint   `env:"SERIAL_BAUD"`
	SerialFraming string `env:"SERIAL_FRAMING"` // "text" or "cobs"

	// Web Server
	WebServerPort int `env:"WEB_SERVER_PORT"`

	// Display
	DisplayI2CBus         string `env:"DISPLAY_I2C_BUS"`
	DisplayI2CAddr        uint16 `env:"DISPLAY_I2C_ADDR"`
	DisplayUpdateInterval int    `env:"DISPLAY_UPDATE_INTERVAL"` // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional key at its default.
func Default() *Config {
	return &Config{
		IMUDriver:             "mpu6050",
		IMUI2CAddr:            0x68,
		IMUAccelRange:         imu.Accel2G,
		IMUGyroRange:          imu.Gyro250,
		CalibrationSamples:    1,
		IRDriver:              "ads1115",
		IRADCAddr:             0x48,
		IRFrontChannel:        0,
		IRFrontModel:          ranging.GP2Y0A21YK,
		IRRearChannel:         1,
		IRRearModel:           ranging.GP2Y0A21YK,
		IRSamples:             25,
		MQTTClientIDRover:     "rover-sensors",
		MQTTClientIDWeb:       "rover-web",
		MQTTClientIDDisplay:   "rover-display",
		MQTTClientIDConsole:   "rover-console",
		TopicReadings:         "rover/readings",
		TopicReport:           "rover/report",
		TopicBias:             "rover/bias",
		SerialBaud:            38400,
		SerialFraming:         "text",
		WebServerPort:         8080,
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file, applies environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := env.ParseWithOptions(cfg, envOptions()); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(addr), nil
}

// envOptions makes environment overrides accept addresses the way the file does (0x68 or 104).
func envOptions() env.Options {
	return env.Options{
		Prefix: EnvPrefix,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(uint16(0)): func(v string) (interface{}, error) {
				addr, err := strconv.ParseUint(v, 0, 16)
				if err != nil {
					return nil, err
				}
				return uint16(addr), nil
			},
		},
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Inertial sensor
	case "IMU_DRIVER":
		c.IMUDriver = value
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		c.IMUI2CAddr, err = parseAddr(key, value)
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUAccelRange = imu.AccelRange(v)
		}
	case "IMU_GYRO_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUGyroRange = imu.GyroRange(v)
		}
	case "CALIBRATION_SAMPLES":
		c.CalibrationSamples, err = parseInt(key, value, 1, 10000)

	// Range finders
	case "IR_DRIVER":
		c.IRDriver = value
	case "IR_I2C_BUS":
		c.IRI2CBus = value
	case "IR_ADC_ADDR":
		c.IRADCAddr, err = parseAddr(key, value)
	case "IR_FRONT_CHANNEL":
		c.IRFrontChannel, err = parseInt(key, value, 0, 3)
	case "IR_FRONT_MODEL":
		c.IRFrontModel, err = ranging.ParseModel(value)
	case "IR_REAR_CHANNEL":
		c.IRRearChannel, err = parseInt(key, value, 0, 3)
	case "IR_REAR_MODEL":
		c.IRRearModel, err = ranging.ParseModel(value)
	case "IR_SAMPLES":
		c.IRSamples, err = parseInt(key, value, 1, 255)

	// Timing
	case "POLL_INTERVAL":
		c.PollInterval, err = parseInt(key, value, 1, 60000)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_ROVER":
		c.MQTTClientIDRover = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_READINGS":
		c.TopicReadings = value
	case "TOPIC_REPORT":
		c.TopicReport = value
	case "TOPIC_BIAS":
		c.TopicBias = value

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		var v int
		if v, err = parseInt(key, value, 300, 4000000); err == nil {
			c.SerialBaud = uint(v)
		}
	case "SERIAL_FRAMING":
		c.SerialFraming = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		c.DisplayI2CAddr, err = parseAddr(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 1, 60000)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks required fields and re-checks ranges, since environment
// overrides bypass setValue.
func (c *Config) validate() error {
	switch c.IMUDriver {
	case "mpu6050", "mock":
	case "mpu9250":
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for IMU_DRIVER=mpu9250")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required for IMU_DRIVER=mpu9250")
		}
	default:
		return fmt.Errorf("IMU_DRIVER must be mpu6050, mpu9250 or mock, got %q", c.IMUDriver)
	}
	if err := c.IMUAccelRange.Validate(); err != nil {
		return fmt.Errorf("IMU_ACCEL_RANGE: %w", err)
	}
	if err := c.IMUGyroRange.Validate(); err != nil {
		return fmt.Errorf("IMU_GYRO_RANGE: %w", err)
	}
	if c.CalibrationSamples < 1 {
		return fmt.Errorf("CALIBRATION_SAMPLES must be at least 1, got %d", c.CalibrationSamples)
	}

	switch c.IRDriver {
	case "ads1115", "mock":
	default:
		return fmt.Errorf("IR_DRIVER must be ads1115 or mock, got %q", c.IRDriver)
	}
	if c.IRFrontChannel < 0 || c.IRFrontChannel > 3 || c.IRRearChannel < 0 || c.IRRearChannel > 3 {
		return fmt.Errorf("IR channels must be 0-3, got front=%d rear=%d", c.IRFrontChannel, c.IRRearChannel)
	}
	if c.IRFrontChannel == c.IRRearChannel {
		return fmt.Errorf("IR_FRONT_CHANNEL and IR_REAR_CHANNEL must differ, both are %d", c.IRFrontChannel)
	}
	if _, err := c.IRFrontModel.Curve(); err != nil {
		return fmt.Errorf("IR_FRONT_MODEL: %w", err)
	}
	if _, err := c.IRRearModel.Curve(); err != nil {
		return fmt.Errorf("IR_REAR_MODEL: %w", err)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL is required")
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	switch c.SerialFraming {
	case "text", "cobs":
	default:
		return fmt.Errorf("SERIAL_FRAMING must be text or cobs, got %q", c.SerialFraming)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the first call loads.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
