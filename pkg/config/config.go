package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 服务配置（YAML + .env + 环境变量覆盖）
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Execution ExecutionConfig `yaml:"execution"`
	Matching  MatchingConfig  `yaml:"matching"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr string `yaml:"addr"` // 监听地址，默认 :8080
}

// WebhookConfig webhook 入口配置
type WebhookConfig struct {
	Secret string `yaml:"secret"` // HMAC 共享密钥；为空表示不验签（仅限测试环境）
}

// ExchangeConfig 交易所客户端配置
type ExchangeConfig struct {
	Host           string `yaml:"host"`             // REST 地址
	WSURL          string `yaml:"ws_url"`           // WebSocket 地址（可选）
	KeyID          string `yaml:"key_id"`           // API key ID
	PrivateKeyFile string `yaml:"private_key_file"` // RSA 私钥 PEM 文件路径
	EnableStream   bool   `yaml:"enable_stream"`    // 是否启用行情流预热市场缓存
}

// ExecutionConfig 执行配置
type ExecutionConfig struct {
	Simulation           bool `yaml:"simulation"`              // 模拟模式（不调用交易所）
	SimulatedDelayMs     int  `yaml:"simulated_delay_ms"`      // 模拟成交延迟（毫秒）
	CostPerContractCents int  `yaml:"cost_per_contract_cents"` // 余额检查的保守单张成本（分）
}

// MatchingConfig 市场匹配配置
type MatchingConfig struct {
	CandidateTTLSeconds int `yaml:"candidate_ttl_seconds"` // 市场缓存 TTL，默认 60
	MarketFetchLimit    int `yaml:"market_fetch_limit"`    // 单次拉取市场数，默认 200
}

// StoreConfig 存储配置
type StoreConfig struct {
	SQLitePath   string `yaml:"sqlite_path"`    // 设置与审计库
	DedupPath    string `yaml:"dedup_path"`     // 去重库（badger 目录）
	DedupTTLDays int    `yaml:"dedup_ttl_days"` // 去重条目保留天数，0 为永久
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Webhook: WebhookConfig{},
		Exchange: ExchangeConfig{
			Host: "https://api.elections.kalshi.com",
		},
		Execution: ExecutionConfig{
			Simulation:           true,
			SimulatedDelayMs:     500,
			CostPerContractCents: 100,
		},
		Matching: MatchingConfig{
			CandidateTTLSeconds: 60,
			MarketFetchLimit:    200,
		},
		Store: StoreConfig{
			SQLitePath: "data/copybet.db",
			DedupPath:  "data/dedup",
		},
		Log: LogConfig{Level: "info", OutputFile: "logs/copybet.log"},
	}
}

// Load 加载配置：默认值 <- YAML 文件（可选） <- 环境变量
func Load(path string) (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv 用环境变量覆盖配置
func (c *Config) applyEnv() {
	if v := os.Getenv("COPYBET_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("COPYBET_WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := os.Getenv("COPYBET_EXCHANGE_HOST"); v != "" {
		c.Exchange.Host = v
	}
	if v := os.Getenv("COPYBET_EXCHANGE_WS_URL"); v != "" {
		c.Exchange.WSURL = v
	}
	if v := os.Getenv("COPYBET_EXCHANGE_KEY_ID"); v != "" {
		c.Exchange.KeyID = v
	}
	if v := os.Getenv("COPYBET_EXCHANGE_KEY_FILE"); v != "" {
		c.Exchange.PrivateKeyFile = v
	}
	if v := os.Getenv("COPYBET_SIMULATION"); v != "" {
		c.Execution.Simulation = parseBool(v, c.Execution.Simulation)
	}
	if v := os.Getenv("COPYBET_SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("COPYBET_DEDUP_PATH"); v != "" {
		c.Store.DedupPath = v
	}
	if v := os.Getenv("COPYBET_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return b
}

// Mode 运行模式开关（模拟/实盘）
// 执行器每笔交易读取一次，支持运行中切换，不在进程启动时固化
type Mode struct {
	simulation atomic.Bool
}

// NewMode 创建模式开关
func NewMode(simulation bool) *Mode {
	m := &Mode{}
	m.simulation.Store(simulation)
	return m
}

// Simulation 当前是否为模拟模式
func (m *Mode) Simulation() bool {
	return m.simulation.Load()
}

// SetSimulation 切换模拟/实盘
func (m *Mode) SetSimulation(v bool) {
	m.simulation.Store(v)
}
