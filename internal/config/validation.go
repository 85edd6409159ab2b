package config

import (
	"errors"
	"strings"
)

var supportedFetchPolicies = map[string]struct{}{
	FetchPolicyGlobal:   {},
	FetchPolicyPerKey:   {},
	FetchPolicyCoalesce: {},
}

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError(globalField("ListenPort"), "必须在 1-65535")
	}
	if g.LogMaxSize < 0 {
		return newFieldError(globalField("LogMaxSize"), "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError(globalField("LogMaxBackups"), "不能为负数")
	}
	if g.UpstreamTimeout.DurationValue() < 0 {
		return newFieldError(globalField("UpstreamTimeout"), "不能为负数")
	}
	if _, ok := supportedFetchPolicies[strings.ToLower(strings.TrimSpace(g.FetchPolicy))]; !ok {
		return newFieldError(globalField("FetchPolicy"), "仅支持 global|per-key|coalesce")
	}
	if g.MaxEntries < 0 {
		return newFieldError(globalField("MaxEntries"), "不能为负数")
	}
	if err := validateHeaderName(g.CredentialHeader); err != nil {
		return newFieldError(globalField("CredentialHeader"), err.Error())
	}
	if strings.ContainsAny(g.SecretEnv, "= \t") {
		return newFieldError(globalField("SecretEnv"), "不是合法的环境变量名")
	}
	return nil
}

func validateHeaderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("不能为空")
	}
	for _, r := range name {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune(`()<>@,;:\"/[]?={}`, r) {
			return errors.New("包含非法字符")
		}
	}
	return nil
}
