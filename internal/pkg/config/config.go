package config

import (
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort string `yaml:"server_port"`

	DBUsername string `yaml:"db_username"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DisableTLS bool   `yaml:"disable_tls"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	JWTKey string `yaml:"jwt_key"`

	// Calendar-day comparisons (submission weekday, summary filtering,
	// report grouping) all happen in this location.
	TimeZone string `yaml:"time_zone"`

	AIBaseURL string `yaml:"ai_base_url"`
	AIAPIKey  string `yaml:"ai_api_key"`
	AIModel   string `yaml:"ai_model"`

	// Payload encoded into the check-in QR code shown at the entrance.
	QRPayload string `yaml:"qr_payload"`

	loc *time.Location
}

// overrides are read from the environment (CARELOG_*) and command line and
// take precedence over config.yaml. Only non-empty values are applied.
type overrides struct {
	ServerPort    string `conf:"env:SERVER_PORT"`
	DBPassword    string `conf:"env:DB_PASSWORD,noprint"`
	RedisAddr     string `conf:"env:REDIS_ADDR"`
	RedisPassword string `conf:"env:REDIS_PASSWORD,noprint"`
	JWTKey        string `conf:"env:JWT_KEY,noprint"`
	AIAPIKey      string `conf:"env:AI_API_KEY,noprint"`
	AIBaseURL     string `conf:"env:AI_BASE_URL"`
	TimeZone      string `conf:"env:TIME_ZONE"`
}

func NewConfig() (*Config, error) {
	var c Config

	yamlFile, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "reading config.yaml")
	}

	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return nil, errors.Wrap(err, "parsing config.yaml")
	}

	var o overrides
	if err := conf.Parse(os.Args[1:], "CARELOG", &o); err != nil && !errors.Is(err, conf.ErrHelpWanted) {
		return nil, errors.Wrap(err, "parsing environment")
	}
	c.apply(o)

	if c.DBUsername == "" || c.DBHost == "" || c.DBName == "" {
		return nil, errors.New("missing required database configuration")
	}
	if c.JWTKey == "" {
		return nil, errors.New("jwt_key is required")
	}
	if c.ServerPort == "" {
		c.ServerPort = ":8080"
	}
	if c.AIModel == "" {
		c.AIModel = "gpt-4o-mini"
	}

	c.loc = time.Local
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return nil, errors.Wrapf(err, "loading time zone %q", c.TimeZone)
		}
		c.loc = loc
	}

	return &c, nil
}

func (c *Config) apply(o overrides) {
	if o.ServerPort != "" {
		c.ServerPort = o.ServerPort
	}
	if o.DBPassword != "" {
		c.DBPassword = o.DBPassword
	}
	if o.RedisAddr != "" {
		c.RedisAddr = o.RedisAddr
	}
	if o.RedisPassword != "" {
		c.RedisPassword = o.RedisPassword
	}
	if o.JWTKey != "" {
		c.JWTKey = o.JWTKey
	}
	if o.AIAPIKey != "" {
		c.AIAPIKey = o.AIAPIKey
	}
	if o.AIBaseURL != "" {
		c.AIBaseURL = o.AIBaseURL
	}
	if o.TimeZone != "" {
		c.TimeZone = o.TimeZone
	}
}

// Location returns the configured time zone, defaulting to the host zone.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}
