package config

import (
	"os"
	"strings"

	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultSleepInterval  = 300 // seconds between successful wake cycles
	DefaultRetryDivisor   = 5   // retry sleep is SleepInterval / RetryDivisor
	DefaultMaxAttempts    = 5
	DefaultBackoff        = 5  // seconds between connection attempts
	DefaultConnectTimeout = 10 // seconds per connection attempt
	DefaultPortalTimeout  = 300
	DefaultPortalAddress  = ":8266"
	DefaultDeviceConfig   = "/var/lib/espsensor/config.json"
	DefaultResetChip      = "gpiochip0"
	DefaultResetLine      = 4
	DefaultTelemetryDB    = "/var/lib/espsensor/telemetry.db"
)

// Config holds the agent-side runtime settings. Broker credentials are not
// part of this file; they live in the provisioned device configuration
// managed by the devconfig store.
type Config struct {
	DeviceConfig   string `mapstructure:"device_config"`
	SleepInterval  int    `mapstructure:"sleep_interval"`
	RetryDivisor   int    `mapstructure:"retry_divisor"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	Backoff        int    `mapstructure:"backoff"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
	PortalAddress  string `mapstructure:"portal_address"`
	PortalTimeout  int    `mapstructure:"portal_timeout"`
	I2CBus         string `mapstructure:"i2c_bus"`
	ResetChip      string `mapstructure:"reset_chip"`
	ResetLine      int    `mapstructure:"reset_line"`
	Telemetry      bool   `mapstructure:"telemetry"`
	TelemetryDB    string `mapstructure:"telemetry_db"`
	NoSleep        bool   `mapstructure:"no_sleep"`
	Debug          bool   `mapstructure:"debug"`
	Verbose        bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("device_config", DefaultDeviceConfig)
	v.SetDefault("sleep_interval", DefaultSleepInterval)
	v.SetDefault("retry_divisor", DefaultRetryDivisor)
	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("backoff", DefaultBackoff)
	v.SetDefault("connect_timeout", DefaultConnectTimeout)
	v.SetDefault("portal_address", DefaultPortalAddress)
	v.SetDefault("portal_timeout", DefaultPortalTimeout)
	v.SetDefault("i2c_bus", "")
	v.SetDefault("reset_chip", DefaultResetChip)
	v.SetDefault("reset_line", DefaultResetLine)
	v.SetDefault("telemetry", false)
	v.SetDefault("telemetry_db", DefaultTelemetryDB)
	v.SetDefault("no_sleep", false)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)

	flags := pflag.NewFlagSet("espsensor", pflag.ContinueOnError)
	flags.String("device-config", DefaultDeviceConfig, "Path to the provisioned device configuration")
	flags.Int("sleep-interval", DefaultSleepInterval, "Seconds to sleep after a successful cycle")
	flags.Int("max-attempts", DefaultMaxAttempts, "Connection attempts allowed per wake cycle")
	flags.Int("backoff", DefaultBackoff, "Seconds between connection attempts")
	flags.Int("connect-timeout", DefaultConnectTimeout, "Seconds allowed per connection attempt")
	flags.String("portal-address", DefaultPortalAddress, "Listen address for the provisioning portal")
	flags.Int("portal-timeout", DefaultPortalTimeout, "Seconds to wait for provisioning input")
	flags.Bool("telemetry", false, "Record wake cycle outcomes to the telemetry database")
	flags.Bool("no-sleep", false, "Print the sleep decision instead of suspending")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Load configuration from file
	if configFile := os.Getenv("ESPSENSOR_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("espsensor")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Override config file values with command line flags
	flags.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.SleepInterval <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "sleep_interval must be positive")
	}
	if c.RetryDivisor <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "retry_divisor must be positive")
	}
	if c.MaxAttempts <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "max_attempts must be positive")
	}
	if c.Backoff < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "backoff must not be negative")
	}
	if c.ConnectTimeout <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "connect_timeout must be positive")
	}
	if c.PortalTimeout <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "portal_timeout must be positive")
	}

	return nil
}
