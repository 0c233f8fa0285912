package util

import "errors"

// 引擎对外暴露的错误分类，调用方通过 errors.Is 判断
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTransientStore 存储超时或连接异常，读操作可重试
	ErrTransientStore = errors.New("transient store failure")
)

// IsRetryable 只有瞬时存储错误允许重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
