package errors

import (
	"errors"
	"fmt"
)

// Code 定义流程错误码类型
type Code int

const (
	// 资源缺失类错误
	ErrProfileNotFound Code = iota + 1
	ErrTweetNotFound
	ErrRegionNotFound
	ErrChannelNotFound
	ErrMessageNotFound

	// 业务校验类错误
	ErrInvalidChannelType
	ErrNoOwnedProfiles
	ErrMalformedToken
	ErrValidation
)

// FlowError 定义交互流程错误，Message 是回复给用户的私密文案。
// 任何 FlowError 都会终止当前流程，不做自动重试。
type FlowError struct {
	Code    Code
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// New 创建新的流程错误
func New(code Code, message string) error {
	return &FlowError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装已有错误
func Wrap(code Code, message string, err error) error {
	return &FlowError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AsFlowError 判断并提取流程错误
func AsFlowError(err error) (*FlowError, bool) {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// CodeOf 获取错误码，非流程错误返回 0
func CodeOf(err error) Code {
	if fe, ok := AsFlowError(err); ok {
		return fe.Code
	}
	return 0
}
