package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Review    ReviewConfig    `mapstructure:"review"`
	Activity  ActivityConfig  `mapstructure:"activity"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	File string `mapstructure:"file"`
	// debug | info | warn | error，为空时按 server.mode 决定
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver    string // mysql | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	// sqlite 使用的文件路径
	Path string
	// 单次存储调用的超时时间，超时按瞬时错误处理
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// JWTConfig 令牌由外部认证服务签发，这里只需要校验用的密钥
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// ActivityConfig 在用户目录中记录最后活跃时间
// users 表归用户目录所有，默认关闭，写入失败只记日志
type ActivityConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ReviewConfig 审核引擎参数，支持热更新
type ReviewConfig struct {
	DefaultPageSize  int           `mapstructure:"default_page_size"`
	MaxPageSize      int           `mapstructure:"max_page_size"`
	WorkloadCacheTTL time.Duration `mapstructure:"workload_cache_ttl"`
	MaxWriteAttempts int           `mapstructure:"max_write_attempts"`
}

// Normalize 补齐缺省值
func (r *ReviewConfig) Normalize() {
	if r.DefaultPageSize <= 0 {
		r.DefaultPageSize = 10
	}
	if r.MaxPageSize <= 0 {
		r.MaxPageSize = 100
	}
	if r.DefaultPageSize > r.MaxPageSize {
		r.DefaultPageSize = r.MaxPageSize
	}
	if r.MaxWriteAttempts <= 0 {
		r.MaxWriteAttempts = 3
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("rate_limit.max_requests", 100000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("review.default_page_size", 10)
	v.SetDefault("review.max_page_size", 100)
	v.SetDefault("review.workload_cache_ttl", "30s")
	v.SetDefault("review.max_write_attempts", 3)
	v.SetDefault("activity.enabled", false)
	v.SetDefault("activity.min_interval", "1m")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MENTORHUB")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Review.Normalize()

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Database.Driver != "mysql" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return &cfg, nil
}
