package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig  `mapstructure:"database"` // 数据库配置
	Redis    RedisConfig     `mapstructure:"redis"`    // Redis配置（按日期加锁）
	Scraper  ScraperConfig   `mapstructure:"scraper"`  // 抓取代理配置
	Pipeline PipelineConfig  `mapstructure:"pipeline"` // 抓取-分类-入库流程配置
	Schedule ScheduleConfig  `mapstructure:"schedule"` // 定时任务配置
	Rulesets []RulesetConfig `mapstructure:"rulesets"` // 自定义分类规则集（可选）
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // postgres/memory
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RedisConfig Redis配置，Addr 为空时使用进程内锁
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`  // 锁过期时间
	LockWait time.Duration `mapstructure:"lock_wait"` // 获取锁的最长等待
}

// ScraperConfig 抓取代理配置
type ScraperConfig struct {
	ProxyURL  string `mapstructure:"proxy_url"`  // 抓取代理接口地址
	APIKey    string `mapstructure:"api_key"`    // 代理密钥
	TargetURL string `mapstructure:"target_url"` // 目标页面模板，%s 为日期
	Timeout   int    `mapstructure:"timeout"`    // 请求超时（秒）
	Proxy     string `mapstructure:"proxy"`      // 出站HTTP代理（可选）
}

// PipelineConfig 流程配置
type PipelineConfig struct {
	Ruleset        string `mapstructure:"ruleset"`         // 生效的规则集名称
	OffsetHours    *int   `mapstructure:"offset_hours"`    // 覆盖规则集的开赛时间偏移（可选）
	Policy         string `mapstructure:"policy"`          // 覆盖规则集的替换策略（可选）
	HighlightsSize int    `mapstructure:"highlights_size"` // 精选抽样条数
}

// ScheduleConfig 定时抓取配置
type ScheduleConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Cron     string `mapstructure:"cron"`     // Cron表达式
	Timezone string `mapstructure:"timezone"` // 时区，默认 Africa/Nairobi
}

// RulesetConfig 配置文件中声明的规则集
type RulesetConfig struct {
	Name             string      `mapstructure:"name"`
	Base             string      `mapstructure:"base"`   // 继承的内置规则集（可选）
	Layout           string      `mapstructure:"layout"` // header-rows/correct-score-table
	OffsetHours      *int        `mapstructure:"offset_hours"`
	MinPublishHour   *int        `mapstructure:"min_publish_hour"`
	Policy           string      `mapstructure:"policy"` // strictly-greater/not-equal
	FreeOverGoals    *int        `mapstructure:"free_over_goals"`
	PremiumOverGoals *int        `mapstructure:"premium_over_goals"`
	OddsThreshold    *float64    `mapstructure:"odds_threshold"`
	Free             []RuleEntry `mapstructure:"free"`
	Premium          []RuleEntry `mapstructure:"premium"`
}

// RuleEntry 比分 -> 玩法
type RuleEntry struct {
	Score  string `mapstructure:"score"`
	Market string `mapstructure:"market"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("redis.lock_ttl", 2*time.Minute)
	v.SetDefault("redis.lock_wait", 30*time.Second)
	v.SetDefault("scraper.proxy_url", "https://api.scrapfly.io/scrape")
	v.SetDefault("scraper.target_url", "https://bettingtipsters.org/?date=%s")
	v.SetDefault("scraper.timeout", 45)
	v.SetDefault("pipeline.ruleset", "bettingtipsters-v3")
	v.SetDefault("pipeline.highlights_size", 10)
	v.SetDefault("schedule.cron", "30 6 * * *")
	v.SetDefault("schedule.timezone", "Africa/Nairobi")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SCRAPFLY_KEY"); v != "" {
		cfg.Scraper.APIKey = v
	}
	if v := os.Getenv("SCRAPER_PROXY"); v != "" {
		cfg.Scraper.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}

// FetchTimeout 抓取超时，未配置时 45 秒
func (s *ScraperConfig) FetchTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 45 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}
