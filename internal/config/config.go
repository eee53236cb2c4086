package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

const (
	DefaultAppName  = "mongo-s3-backup"
	DefaultCrontab  = "0 0 * * *"
	DefaultTimezone = "America/New_York"
	DefaultRegion   = "us-east-1"

	DriverAWS   = "aws"
	DriverMinio = "minio"
	DriverLocal = "local"
)

type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Tools   ToolsConfig    `mapstructure:"tools"`
	MongoDB DatabaseConfig `mapstructure:"mongodb"`
	S3      S3Config       `mapstructure:"s3"`
	Cron    CronConfig     `mapstructure:"cron"`
	Notify  NotifyConfig   `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	WorkDir  string `mapstructure:"work_dir"`
}

// ToolsConfig names the external binaries the pipeline shells out to.
type ToolsConfig struct {
	MongoDump string `mapstructure:"mongodump"`
	Tar       string `mapstructure:"tar"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	AuthDatabase string `mapstructure:"auth_database"`
}

// HasCredentials reports whether both username and password are set.
// A lone username or password counts as no credentials at all.
func (d DatabaseConfig) HasCredentials() bool {
	return d.Username != "" && d.Password != ""
}

// Address returns host:port as accepted by mongodump --host.
func (d DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

type S3Config struct {
	Driver      string `mapstructure:"driver"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	Bucket      string `mapstructure:"bucket"`
	Destination string `mapstructure:"destination"`
	Region      string `mapstructure:"region"`
	Endpoint    string `mapstructure:"endpoint"`
	UseSSL      bool   `mapstructure:"use_ssl"`

	RetentionDays int `mapstructure:"retention_days"`
}

type CronConfig struct {
	Crontab  string `mapstructure:"crontab"`
	Time     string `mapstructure:"time"`
	Timezone string `mapstructure:"timezone"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Load reads the configuration file at path. Values may be overridden through
// BACKUP_* environment variables, e.g. BACKUP_S3_SECRET_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("backup")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", DefaultAppName)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "")
	v.SetDefault("app.work_dir", "")
	v.SetDefault("tools.mongodump", "mongodump")
	v.SetDefault("tools.tar", "tar")
	v.SetDefault("mongodb.host", "localhost")
	v.SetDefault("mongodb.port", 27017)
	v.SetDefault("mongodb.username", "")
	v.SetDefault("mongodb.password", "")
	v.SetDefault("mongodb.database", "")
	v.SetDefault("mongodb.auth_database", "")
	v.SetDefault("s3.driver", DriverAWS)
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.destination", "/")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", DefaultRegion)
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.retention_days", 0)
	v.SetDefault("cron.crontab", "")
	v.SetDefault("cron.time", "")
	v.SetDefault("cron.timezone", DefaultTimezone)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb.database is required")
	}
	if err := domain.ValidateDatabaseName(c.MongoDB.Database); err != nil {
		return fmt.Errorf("mongodb.database: %w", err)
	}
	if c.MongoDB.Host == "" {
		return fmt.Errorf("mongodb.host is required")
	}
	if c.MongoDB.Port <= 0 || c.MongoDB.Port > 65535 {
		return fmt.Errorf("mongodb.port %d is out of range", c.MongoDB.Port)
	}

	switch c.S3.Driver {
	case DriverAWS, DriverMinio:
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("s3.access_key and s3.secret_key are required")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required")
		}
		if c.S3.Driver == DriverMinio && c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required for the minio driver")
		}
	case DriverLocal:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required")
		}
	default:
		return fmt.Errorf("unknown s3.driver %q", c.S3.Driver)
	}

	if c.S3.RetentionDays < 0 {
		return fmt.Errorf("s3.retention_days must not be negative")
	}

	if _, err := c.Cron.Expression(); err != nil {
		return err
	}
	if _, err := c.Cron.Location(); err != nil {
		return err
	}

	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == 0) {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id")
	}

	return nil
}

// WorkDir is the fixed working root shared by every run of this process.
func (c *Config) WorkDir() string {
	if c.App.WorkDir != "" {
		return c.App.WorkDir
	}
	return filepath.Join(os.TempDir(), c.App.Name)
}

// Expression resolves the effective cron expression: an explicit crontab
// wins, then a daily HH:MM time, then the midnight default.
func (c CronConfig) Expression() (string, error) {
	if c.Crontab != "" {
		if _, err := cron.ParseStandard(c.Crontab); err != nil {
			return "", fmt.Errorf("cron.crontab %q: %w", c.Crontab, err)
		}
		return c.Crontab, nil
	}
	if c.Time != "" {
		t, err := time.Parse("15:04", c.Time)
		if err != nil {
			return "", fmt.Errorf("cron.time %q must be HH:MM: %w", c.Time, err)
		}
		return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
	}
	return DefaultCrontab, nil
}

func (c CronConfig) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("cron.timezone %q: %w", name, err)
	}
	return loc, nil
}
