// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDDetector string
	MQTTClientIDConsole  string

	// Topics
	TopicSamples   string
	TopicEvents    string
	TopicIndicator string

	// Filter
	FilterAlgorithm      motion.Algorithm
	FilterWindowSize     int
	FilterAlphaBatch     float64
	FilterAlphaStreaming float64

	// Slope + classifier
	SamplePeriod   float64 // seconds
	SlopeWindow    int     // filtered samples per slope estimate
	SlopeThreshold float64
	SlopeHighRatio float64
	MotionAxis     motion.Axis
	PositiveLabel  string
	NegativeLabel  string // empty means "End " + PositiveLabel

	// Indicator colors handed to sinks
	ColorPositive string
	ColorNegative string
	ColorNeutral  string

	// Producer
	SampleChunkSize int
	IMUSPIDevice    string
	IMUCSPin        string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange  byte
	SerialPort     string
	SerialBaudRate uint

	// Web Server
	WebServerPort int

	// Display (0 disables the OLED sink)
	DisplayI2CAddr uint16

	// Logging
	LogLevel string
	LogFile  string
}

// Package-level singleton: set through InitGlobal or Reload, read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional key at its default.
func Default() *Config {
	f := motion.DefaultFilterConfig()
	p := motion.DefaultPalette()
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "motion-producer",
		MQTTClientIDDetector: "motion-detector",
		MQTTClientIDConsole:  "motion-console",

		TopicSamples:   "motion/samples",
		TopicEvents:    "motion/events",
		TopicIndicator: "motion/indicator",

		FilterAlgorithm:      f.Algorithm,
		FilterWindowSize:     f.WindowSize,
		FilterAlphaBatch:     f.AlphaBatch,
		FilterAlphaStreaming: f.AlphaStreaming,

		SamplePeriod:   0.1,
		SlopeWindow:    motion.DefaultSlopeWindow,
		SlopeThreshold: 2,
		SlopeHighRatio: motion.DefaultHighRatio,
		MotionAxis:     motion.AxisX,
		PositiveLabel:  "Movement",

		ColorPositive: p.Positive,
		ColorNegative: p.Negative,
		ColorNeutral:  p.Neutral,

		SampleChunkSize: 5,
		IMUSPIDevice:    "/dev/spidev0.0",
		IMUCSPin:        "8",
		SerialBaudRate:  115200,

		WebServerPort: 8080,

		LogLevel: "info",
	}
}

// Load reads the KEY=VALUE configuration file and returns a Config struct.
// Keys missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	values, err := godotenv.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromMap(values)
}

// FromMap builds a Config from already parsed key/value pairs.
func FromMap(values map[string]string) (*Config, error) {
	cfg := Default()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := cfg.setValue(key, strings.TrimSpace(values[key])); err != nil {
			return nil, fmt.Errorf("config key %s: %w", key, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_DETECTOR":
		c.MQTTClientIDDetector = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_EVENTS":
		c.TopicEvents = value
	case "TOPIC_INDICATOR":
		c.TopicIndicator = value

	// Filter
	case "FILTER_ALGORITHM":
		c.FilterAlgorithm, err = motion.ParseAlgorithm(value)
	case "FILTER_WINDOW_SIZE":
		c.FilterWindowSize, err = parseInt(key, value, 1)
	case "FILTER_ALPHA_BATCH":
		c.FilterAlphaBatch, err = parseFloat(key, value)
	case "FILTER_ALPHA_STREAMING":
		c.FilterAlphaStreaming, err = parseFloat(key, value)

	// Slope + classifier
	case "SAMPLE_PERIOD":
		c.SamplePeriod, err = parseFloat(key, value)
	case "SLOPE_WINDOW":
		c.SlopeWindow, err = parseInt(key, value, 2)
	case "SLOPE_THRESHOLD":
		c.SlopeThreshold, err = parseFloat(key, value)
	case "SLOPE_HIGH_RATIO":
		c.SlopeHighRatio, err = parseFloat(key, value)
	case "MOTION_AXIS":
		c.MotionAxis, err = motion.ParseAxis(value)
	case "POSITIVE_LABEL":
		c.PositiveLabel = value
	case "NEGATIVE_LABEL":
		c.NegativeLabel = value

	// Colors
	case "COLOR_POSITIVE":
		c.ColorPositive = value
	case "COLOR_NEGATIVE":
		c.ColorNegative = value
	case "COLOR_NEUTRAL":
		c.ColorNeutral = value

	// Producer
	case "SAMPLE_CHUNK_SIZE":
		c.SampleChunkSize, err = parseInt(key, value, 1)
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, perr)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, perr := strconv.ParseUint(value, 10, 32)
		if perr != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, perr)
		}
		c.SerialBaudRate = uint(rate)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1)

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = value
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return err
}

func parseInt(key, value string, minVal int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < minVal {
		return 0, fmt.Errorf("%s must be >= %d, got %d", key, minVal, v)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks required fields and ranges that span several keys.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSamples == "" {
		return fmt.Errorf("TOPIC_SAMPLES is required")
	}
	if c.TopicEvents == "" {
		return fmt.Errorf("TOPIC_EVENTS is required")
	}
	if c.PositiveLabel == "" {
		return fmt.Errorf("POSITIVE_LABEL must not be empty")
	}
	if err := c.Session().Validate(); err != nil {
		return err
	}
	return nil
}

// FilterConfig returns the filter settings as core types.
func (c *Config) FilterConfig() motion.FilterConfig {
	return motion.FilterConfig{
		Algorithm:      c.FilterAlgorithm,
		WindowSize:     c.FilterWindowSize,
		AlphaBatch:     c.FilterAlphaBatch,
		AlphaStreaming: c.FilterAlphaStreaming,
	}
}

// Thresholds returns the classifier thresholds.
func (c *Config) Thresholds() motion.Thresholds {
	return motion.Thresholds{Threshold: c.SlopeThreshold, HighRatio: c.SlopeHighRatio}
}

// Classifier returns the configured classifier.
func (c *Config) Classifier() motion.Classifier {
	return motion.Classifier{
		Thresholds:    c.Thresholds(),
		Axis:          c.MotionAxis,
		PositiveLabel: c.PositiveLabel,
		NegativeLabel: c.NegativeLabel,
	}
}

// Session returns the settings for one processing session.
func (c *Config) Session() motion.SessionConfig {
	return motion.SessionConfig{
		Filter:       c.FilterConfig(),
		Classifier:   c.Classifier(),
		SamplePeriod: c.SamplePeriod,
		SlopeWindow:  c.SlopeWindow,
	}
}

// Palette returns the indicator color names.
func (c *Config) Palette() motion.Palette {
	return motion.Palette{Positive: c.ColorPositive, Negative: c.ColorNegative, Neutral: c.ColorNeutral}
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Reload re-reads the file and replaces the global configuration. On error the
// previous configuration stays in place.
func Reload(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
