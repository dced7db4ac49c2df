package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/zoh/mqconsume"
	"github.com/zoh/mqconsume/mqclient"
)

const Prefix = "MQ"

// Config is read from MQ_* environment variables.
type Config struct {
	mqclient.Env

	WaitInterval  time.Duration `envconfig:"WAIT_INTERVAL" default:"3s" validate:"gt=0"`
	BackoffBase   time.Duration `envconfig:"BACKOFF_BASE" default:"500ms" validate:"gt=0"`
	BackoffMax    time.Duration `envconfig:"BACKOFF_MAX" default:"30s" validate:"gtefield=BackoffBase"`
	BackoffJitter float64       `envconfig:"BACKOFF_JITTER" default:"0.5" validate:"gte=0,lt=1"`

	LogLevel   string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	StatusAddr string `envconfig:"STATUS_ADDR"`
}

// Load reads envFile when it exists, then the environment. Variables already
// set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if err := c.Env.Validate(); err != nil {
		return err
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Options turns the loop settings into consumer options.
func (c *Config) Options() []mqconsume.Option {
	jitter := c.BackoffJitter
	if jitter == 0 {
		jitter = -1
	}
	return []mqconsume.Option{
		mqconsume.WithWaitInterval(c.WaitInterval),
		mqconsume.WithBackoff(c.BackoffBase, c.BackoffMax, jitter),
	}
}
