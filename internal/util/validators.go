package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	handleRe    = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)
	tgChannelRe = regexp.MustCompile(`^-?\d+$`)
)

// IsValidHandle 校验 handle 是否合法（字符集不含交互标识分隔符）
func IsValidHandle(handle string) bool {
	return handleRe.MatchString(handle)
}

// ValidateTGChannelID 验证 Telegram 频道ID格式
func ValidateTGChannelID(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return tgChannelRe.MatchString(value)
}
