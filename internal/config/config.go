package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type UploadConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// NotifyConfig drives the budget notification scheduler.
// An empty AMQPURL keeps notifications in the database and the log only.
type NotifyConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	WarnPercent    float64       `mapstructure:"warn_percent"`
	LowBalance     float64       `mapstructure:"low_balance"`
	AMQPURL        string        `mapstructure:"amqp_url"`
	AMQPExchange   string        `mapstructure:"amqp_exchange"`
	AMQPRoutingKey string        `mapstructure:"amqp_routing_key"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.path", "data/expense.db")
	v.SetDefault("database.log_mode", false)

	// every key needs a default so that AutomaticEnv can see it during Unmarshal
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "expense-tracker")
	v.SetDefault("jwt.expire_hours", 24*7)

	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.encryption_key", "")

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", 5*1024*1024)

	v.SetDefault("backup.dir", "data/backups")

	v.SetDefault("notify.interval", time.Hour)
	v.SetDefault("notify.warn_percent", 90)
	v.SetDefault("notify.low_balance", 1000)
	v.SetDefault("notify.amqp_url", "")
	v.SetDefault("notify.amqp_exchange", "expense.notifications")
	v.SetDefault("notify.amqp_routing_key", "notification")
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for "config.yaml" in current working directory.
// A missing file is not an error: defaults and EXPENSE_* environment variables
// are enough to run.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. EXPENSE_SERVER_PORT=9000
	v.SetEnvPrefix("EXPENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// explicit paths surface the raw fs error instead of ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate checks the loaded configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if len(c.JWT.Secret) < 16 {
		errs = append(errs, errors.New("jwt.secret must be at least 16 characters"))
	}
	if c.JWT.ExpireHours <= 0 {
		errs = append(errs, errors.New("jwt.expire_hours must be positive"))
	}
	if c.Security.EncryptionKey == "" {
		errs = append(errs, errors.New("security.encryption_key is required"))
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("security.bcrypt_cost %d out of range", c.Security.BcryptCost))
	}
	if c.Upload.Dir == "" {
		errs = append(errs, errors.New("upload.dir is required"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}
	if c.Notify.Interval < time.Minute {
		errs = append(errs, errors.New("notify.interval must be at least 1m"))
	}
	if c.Notify.WarnPercent <= 0 || c.Notify.WarnPercent >= 100 {
		errs = append(errs, errors.New("notify.warn_percent must be between 0 and 100"))
	}

	return errors.Join(errs...)
}

// TokenTTL returns the JWT lifetime.
func (c JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpireHours) * time.Hour
}
