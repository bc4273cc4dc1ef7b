package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
}

type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

type Config struct {
	MQTT        MQTTConfig   `yaml:"mqtt"`
	Influx      InfluxConfig `yaml:"influx"`
	IntentTopic string       `yaml:"intent_topic"`
	HTTPPort    string       `yaml:"http_port"`
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// loadConfig reads the optional YAML file, then lets environment variables
// override individual fields. A local .env file is honoured when present.
func loadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MQTT: MQTTConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "iot-state-skill",
		},
		Influx: InfluxConfig{
			URL:         "http://localhost:8086",
			Org:         "assistant",
			Bucket:      "iot",
			Measurement: "iot_state",
		},
		IntentTopic: "assistant/intent/analysis",
		HTTPPort:    "8080",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.MQTT.Host = getenv("MQTT_HOST", cfg.MQTT.Host)
	cfg.MQTT.Port = getenvInt("MQTT_PORT", cfg.MQTT.Port)
	cfg.MQTT.User = getenv("MQTT_USER", cfg.MQTT.User)
	cfg.MQTT.Password = getenv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.ClientID = getenv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)

	cfg.Influx.URL = getenv("INFLUX_URL", cfg.Influx.URL)
	cfg.Influx.Token = getenv("INFLUX_TOKEN", cfg.Influx.Token)
	cfg.Influx.Org = getenv("INFLUX_ORG", cfg.Influx.Org)
	cfg.Influx.Bucket = getenv("INFLUX_BUCKET", cfg.Influx.Bucket)
	cfg.Influx.Measurement = getenv("INFLUX_MEASUREMENT", cfg.Influx.Measurement)

	cfg.IntentTopic = getenv("INTENT_TOPIC", cfg.IntentTopic)
	cfg.HTTPPort = getenv("PORT", cfg.HTTPPort)

	return cfg, nil
}
