package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供目标 URL/新鲜度窗口/命中状态字段，供代理请求日志复用。
func RequestFields(url string, maxAge int64, policy string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"url":          url,
		"max_age":      maxAge,
		"fetch_policy": policy,
		"cache_hit":    cacheHit,
	}
}
