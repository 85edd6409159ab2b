// Package auth 实现单一共享密钥的凭证校验。密钥未配置时进入 open 模式，
// 任何凭证（包括缺失）都会放行；配置后仅精确匹配的字符串可以通过。
package auth

import "os"

// DefaultSecretEnv 是默认读取密钥的环境变量名。
const DefaultSecretEnv = "MITM_KEY"

// SecretSource 返回当前配置的密钥；ok=false 表示未配置。
type SecretSource func() (secret string, ok bool)

// EnvSecret 每次调用都重新读取环境变量，密钥可以在进程运行期间变化。
func EnvSecret(name string) SecretSource {
	if name == "" {
		name = DefaultSecretEnv
	}
	return func() (string, bool) {
		return os.LookupEnv(name)
	}
}

// StaticSecret 返回固定密钥，主要用于测试。
func StaticSecret(secret string) SecretSource {
	return func() (string, bool) { return secret, true }
}

// NoSecret 表示 open 模式。
func NoSecret() (string, bool) {
	return "", false
}

// Guard 对凭证来源无感知，只比较解析后的 Credential 与密钥。
type Guard struct {
	secret SecretSource
}

// NewGuard 构造 Guard；source 为 nil 时视为 open 模式。
func NewGuard(source SecretSource) *Guard {
	if source == nil {
		source = NoSecret
	}
	return &Guard{secret: source}
}

// Check 在 open 模式下总是返回 true；否则要求凭证存在且与密钥完全一致（区分大小写）。
func (g *Guard) Check(cred Credential) bool {
	secret, configured := g.secret()
	if !configured {
		return true
	}
	if !cred.Present() || cred.ambiguous {
		return false
	}
	return cred.Value == secret
}

// Open 报告当前是否未配置密钥。
func (g *Guard) Open() bool {
	_, configured := g.secret()
	return !configured
}

// Mode 输出 `open` 或 `secured`，供日志与诊断接口使用。
func (g *Guard) Mode() string {
	if g.Open() {
		return "open"
	}
	return "secured"
}
