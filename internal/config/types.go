package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// 回源锁策略的可选值，与 proxy.Policy 保持一致。
const (
	FetchPolicyGlobal   = "global"
	FetchPolicyPerKey   = "per-key"
	FetchPolicyCoalesce = "coalesce"
)

// GlobalConfig 描述进程级运行参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	// UpstreamTimeout 为 0 时不设置整体超时，仅依赖 transport 的连接/握手超时。
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	FetchPolicy     string   `mapstructure:"FetchPolicy"`
	// MaxEntries 为 0 表示缓存不设上限。
	MaxEntries int `mapstructure:"MaxEntries"`
	// SecretEnv 是保存共享密钥的环境变量名，每次校验时重新读取。
	SecretEnv        string `mapstructure:"SecretEnv"`
	CredentialHeader string `mapstructure:"CredentialHeader"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}

// Bounded 表示是否启用了缓存容量上限。
func (g GlobalConfig) Bounded() bool {
	return g.MaxEntries > 0
}
