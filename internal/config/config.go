package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AuthConfig holds the single admin credential pair and the secret that
// signs session tokens.
type AuthConfig struct {
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Secret     string `mapstructure:"secret"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Seed   bool   `mapstructure:"seed"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration with precedence env > config file > defaults.
// path may be empty, in which case config.yaml is looked up in ./config and
// the working directory. A .env file, when present, is loaded into the
// environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors.allow_origins", []string{})

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "12345")
	v.SetDefault("auth.secret", "change_this_secret_for_demo")
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.seed", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SPTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// legacy variable names
	_ = v.BindEnv("auth.username", "SPTS_ADMIN")
	_ = v.BindEnv("auth.password", "SPTS_PASS")
	_ = v.BindEnv("auth.secret", "SPTS_SECRET")
	_ = v.BindEnv("server.port", "SPTS_PORT", "PORT")
	_ = v.BindEnv("store.driver", "SPTS_STORE_DRIVER", "SPTS_STORE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.Username == "" || c.Auth.Password == "" {
		return errors.New("config: admin username and password must be set")
	}
	if c.Auth.Secret == "" {
		return errors.New("config: auth.secret must be set")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("config: server.port must be between 1 and 65535")
	}
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
