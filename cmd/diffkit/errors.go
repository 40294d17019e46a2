package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// exitError 为错误附加退出码。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// dataErr 区分输入路径不存在（配置错误）和内容错误（数据错误）。
func dataErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return withCode(ExitConfigError, err)
	}
	return withCode(ExitDataError, err)
}

func usageErr(format string, args ...interface{}) error {
	return withCode(ExitConfigError, fmt.Errorf(format, args...))
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// reportError 输出错误并返回退出码。
func reportError(err error) int {
	code := exitCode(err)
	appLogger.Error("command failed", zap.Error(err), zap.Int("exit_code", code))
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	} else {
		_ = outputJSON(ErrorResponse{Error: err.Error(), Code: code})
	}
	return code
}
