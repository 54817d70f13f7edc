package domain

import (
	"errors"
	"fmt"
)

// 可以用 errors.Is 判断的错误类别
var (
	ErrValidation    = errors.New("参数不合法")
	ErrNotFound      = errors.New("记录不存在")
	ErrConflict      = errors.New("记录已被并发修改")
	ErrConfiguration = errors.New("配置错误")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// FormatError 表示时间、日期或周标识的字符串格式错误
type FormatError struct {
	Kind  string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s 格式错误: %q", e.Kind, e.Value)
}

func (e *FormatError) Unwrap() error {
	return ErrValidation
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s 不存在: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConflictError 表示乐观锁检查失败，即写入时记录的版本已经不是读取时的版本
type ConflictError struct {
	Collection string
	Key        string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s/%s 已被其他请求修改，请刷新后重试", e.Collection, e.Key)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

type UnknownStoreError struct {
	StoreID StoreID
}

func (e *UnknownStoreError) Error() string {
	return fmt.Sprintf("未知的门店: %q", string(e.StoreID))
}

func (e *UnknownStoreError) Unwrap() error {
	return ErrConfiguration
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
