package utils

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid"
)

const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// TokenIDLength 令牌ID长度
const TokenIDLength = 21

// NewTokenID 生成令牌ID (jti)
func NewTokenID() (string, error) {
	id, err := gonanoid.Generate(base62Chars, TokenIDLength)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id, nil
}

// ValidateTokenID 验证令牌ID格式
func ValidateTokenID(id string) bool {
	if len(id) != TokenIDLength {
		return false
	}
	for _, char := range id {
		if !strings.ContainsRune(base62Chars, char) {
			return false
		}
	}
	return true
}

// Capitalize 首字母大写，用于展示作物名称
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
