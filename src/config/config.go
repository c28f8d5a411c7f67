package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig        `mapstructure:"service"`
	Logging         LoggingConfig        `mapstructure:"logging"`
	Databases       DatabasesConfig      `mapstructure:"databases"`
	ExternalClients ExternalClientConfig `mapstructure:"externalClients"`
	Portfolio       PortfolioConfig      `mapstructure:"portfolio"`
	Reconciliation  ReconciliationConfig `mapstructure:"reconciliation"`
	Auth            AuthConfig           `mapstructure:"auth"`
	Formatting      FormattingConfig     `mapstructure:"formatting"`
	Secrets         SecretsConfig        `mapstructure:"secrets"`
}

type ServiceType string

const (
	API    ServiceType = "API"
	WORKER ServiceType = "WORKER"
)

type ServiceConfig struct {
	Type           ServiceType `mapstructure:"type"`
	Port           string      `mapstructure:"port"`
	AllowedOrigins []string    `mapstructure:"allowedOrigins"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	ToFile   bool   `mapstructure:"toFile"`
	FilePath string `mapstructure:"filePath"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
}

// DSN returns the connection string, building it from the discrete fields when none is set.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host,
		c.Username,
		c.Password,
		c.Database,
		c.Port)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TLS      bool   `mapstructure:"tls"`
}

type ExternalClientConfig struct {
	Yahoo YahooConfig `mapstructure:"yahoo"`
}

type YahooConfig struct {
	BaseURL          string            `mapstructure:"baseUrl"`
	Timeout          time.Duration     `mapstructure:"timeout"`
	Retries          uint64            `mapstructure:"retries"`
	ExchangeSuffixes map[string]string `mapstructure:"exchangeSuffixes"`
}

type PortfolioConfig struct {
	UsdToCadRate float64 `mapstructure:"usdToCadRate"`
	Demo         bool    `mapstructure:"demo"`
}

type ReconciliationConfig struct {
	SnapshotPath string        `mapstructure:"snapshotPath"`
	Timezone     string        `mapstructure:"timezone"`
	StartDate    string        `mapstructure:"startDate"`
	EndDate      string        `mapstructure:"endDate"`
	Schedule     string        `mapstructure:"schedule"`
	Lookback     string        `mapstructure:"lookback"`
	RunTimeout   time.Duration `mapstructure:"runTimeout"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwtSecret"`
	SessionTTL    time.Duration `mapstructure:"sessionTTL"`
	SecureCookies bool          `mapstructure:"secureCookies"`
}

// FormattingConfig carries presentation formatting explicitly instead of relying on a process locale.
type FormattingConfig struct {
	DateLayout string `mapstructure:"dateLayout"`
}

type SecretsConfig struct {
	AWSRegion   string `mapstructure:"awsRegion"`
	AWSSecretID string `mapstructure:"awsSecretId"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.type", string(API))
	v.SetDefault("service.port", "8000")
	v.SetDefault("logging.level", "info")
	v.SetDefault("externalClients.yahoo.baseUrl", "https://query1.finance.yahoo.com")
	v.SetDefault("externalClients.yahoo.timeout", 10*time.Second)
	v.SetDefault("externalClients.yahoo.retries", 2)
	v.SetDefault("externalClients.yahoo.exchangeSuffixes", map[string]string{"TSE": ".TO"})
	v.SetDefault("portfolio.usdToCadRate", 1.35)
	v.SetDefault("reconciliation.timezone", "America/Montreal")
	v.SetDefault("reconciliation.schedule", "0 18 * * 1-5")
	v.SetDefault("reconciliation.lookback", "0w:5d")
	v.SetDefault("reconciliation.runTimeout", 30*time.Minute)
	v.SetDefault("auth.sessionTTL", 12*time.Hour)
	v.SetDefault("formatting.dateLayout", "2006-01-02")
}

// LoadConfig reads appsettings.yaml from path and merges appsettings.{env}.yaml on top when env is set.
// Environment variables override file values, e.g. DATABASES_SQL_PASSWORD.
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	// A missing .env file is fine outside local development
	_ = godotenv.Load(filepath.Join(path, "..", ".env"))

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	if env != "" {
		envFile := filepath.Join(path, fmt.Sprintf("appsettings.%s.yaml", env))
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			if err := v.MergeInConfig(); err != nil {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Service.Type != API && c.Service.Type != WORKER {
		return fmt.Errorf("invalid service type %q", c.Service.Type)
	}
	if c.Portfolio.UsdToCadRate <= 0 {
		return fmt.Errorf("portfolio.usdToCadRate must be positive, got %v", c.Portfolio.UsdToCadRate)
	}
	if _, err := time.LoadLocation(c.Reconciliation.Timezone); err != nil {
		return fmt.Errorf("invalid reconciliation timezone: %w", err)
	}
	return nil
}
