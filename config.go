package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the HTTP API listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the module (e.g. 115200)
	BaudRate int
	// ReadTimeout bounds a single serial read before it is retried
	ReadTimeout time.Duration
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.ReadTimeout = time.Second
		c.LogLevel = "info"
		return nil
	}
}

// WithFile loads configuration from an INI file. An empty path is ignored.
//
//	[serial]
//	port = /dev/ttyUSB0
//	baudRate = 115200
//	readTimeout = 1s
//
//	[server]
//	bindAddress = 0.0.0.0:8080
//
//	[log]
//	level = info
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		file, err := ini.Load(path)
		if err != nil {
			return fmt.Errorf("load config file %s: %w", path, err)
		}

		serial := file.Section("serial")
		c.SerialPort = serial.Key("port").MustString(c.SerialPort)
		c.BaudRate = serial.Key("baudRate").MustInt(c.BaudRate)
		c.ReadTimeout = serial.Key("readTimeout").MustDuration(c.ReadTimeout)

		c.BindAddress = file.Section("server").Key("bindAddress").MustString(c.BindAddress)
		c.LogLevel = file.Section("log").Key("level").MustString(c.LogLevel)
		return nil
	}
}

// WithEnv loads configuration from ESP01_* environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		v := viper.New()
		v.SetEnvPrefix("esp01")
		for _, key := range []string{"bind_address", "serial_port", "baud_rate", "read_timeout", "log_level"} {
			if err := v.BindEnv(key); err != nil {
				return err
			}
		}

		if v.IsSet("bind_address") {
			c.BindAddress = v.GetString("bind_address")
		}
		if v.IsSet("serial_port") {
			c.SerialPort = v.GetString("serial_port")
		}
		if b := v.GetInt("baud_rate"); b > 0 {
			c.BaudRate = b
		}
		if d := v.GetDuration("read_timeout"); d > 0 {
			c.ReadTimeout = d
		}
		if v.IsSet("log_level") {
			c.LogLevel = v.GetString("log_level")
		}
		return nil
	}
}

// WithFlags loads configuration from the command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "read-timeout":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.ReadTimeout = d
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			}
		})
		return nil
	}
}
