package auth

// Source 标记凭证来自哪里。
type Source string

const (
	SourceNone   Source = "none"
	SourceHeader Source = "header"
	SourcePath   Source = "path"
)

// Credential 是每个请求解析一次的凭证，Guard 只关心 Value 是否存在。
type Credential struct {
	Source Source
	Value  string
	// ambiguous 表示请求携带了多个凭证头，无法确定使用哪一个。
	ambiguous bool
}

// None 表示请求未携带凭证。
func None() Credential {
	return Credential{Source: SourceNone}
}

// FromPath 使用路径段中的凭证。
func FromPath(value string) Credential {
	return Credential{Source: SourcePath, Value: value}
}

// FromHeader 根据请求头的全部取值解析凭证：零个视为缺失，多个视为歧义。
func FromHeader(values []string) Credential {
	switch len(values) {
	case 0:
		return None()
	case 1:
		return Credential{Source: SourceHeader, Value: values[0]}
	default:
		return Credential{Source: SourceHeader, ambiguous: true}
	}
}

// Present 报告凭证是否被提供。
func (c Credential) Present() bool {
	return c.Source != SourceNone && c.Source != ""
}
