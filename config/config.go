package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 AGRISENSE_AUTH_JWT_SECRET
const EnvPrefix = "AGRISENSE"

// ErrMissingJWTSecret 服务端未配置签名密钥
var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required")

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig 数据库连接信息
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql 或 memory
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Name     string `mapstructure:"name"`
}

// AuthConfig 令牌配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ClientConfig 命令行客户端配置
type ClientConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SessionFile string        `mapstructure:"session_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "root")
	v.SetDefault("database.host", "127.0.0.1:3306")
	v.SetDefault("database.name", "agrisense")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("client.base_url", "http://localhost:8000")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.session_file", defaultSessionFile())
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agrisense", "session.yaml")
	}
	return filepath.Join(home, ".agrisense", "session.yaml")
}

// Load 依次读取 .env、环境变量和可选的 agrisense.yaml
func Load(configFile string) (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("agrisense")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".agrisense"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate 检查服务端必需的配置
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Driver != "mysql" && c.Database.Driver != "memory" {
		return fmt.Errorf("database.driver %q must be mysql or memory", c.Database.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
