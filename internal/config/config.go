package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host       string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port       string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"REDIS_SESSION_TTL" env-default:"24h"`
}

// Game holds the table rules and the pacing of a turn cycle.
type Game struct {
	Items        int           `yaml:"items" env:"GAME_ITEMS" env-default:"8"`
	Seed         int64         `yaml:"seed" env:"GAME_SEED" env-default:"0"`
	BotDelay     time.Duration `yaml:"bot-delay" env:"GAME_BOT_DELAY" env-default:"1500ms"`
	RollMinDelay time.Duration `yaml:"roll-min-delay" env-default:"700ms"`
	RollMaxDelay time.Duration `yaml:"roll-max-delay" env-default:"1500ms"`
	LandingDelay time.Duration `yaml:"landing-delay" env-default:"100ms"`
	StepDelay    time.Duration `yaml:"step-delay" env-default:"800ms"`
	SettleDelay  time.Duration `yaml:"settle-delay" env-default:"200ms"`
	EffectDelay  time.Duration `yaml:"effect-delay" env-default:"800ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	if that.Game.Items < 0 {
		return fmt.Errorf("%w: game.items must not be negative", ErrInvalidConfig)
	}

	if that.Game.RollMaxDelay < that.Game.RollMinDelay {
		return fmt.Errorf("%w: game.roll-max-delay is below game.roll-min-delay", ErrInvalidConfig)
	}

	if that.Redis.SessionTTL < 0 {
		return fmt.Errorf("%w: redis.session-ttl must not be negative", ErrInvalidConfig)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
