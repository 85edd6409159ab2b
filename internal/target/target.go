// Package target 负责解析 /request 路径中的目标 URL 参数：
// URL-safe base64（填充可选）编码的 UTF-8 字符串。
package target

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidEncoding 表示参数不是合法的 URL-safe base64。
	ErrInvalidEncoding = errors.New("Decode Error")
	// ErrInvalidUTF8 表示解码后的字节不是合法 UTF-8。
	ErrInvalidUTF8 = errors.New("String Encode Error")
)

// Decode 将路径参数还原为源站 URL 字符串。
func Decode(param string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(param, "="))
	if err != nil {
		return "", ErrInvalidEncoding
	}
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

// Encode 生成 Decode 可识别的参数（不带填充）。
func Encode(url string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url))
}
