package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 可选携带底层错误（Err），支持 errors.Is / errors.As 链式判断
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Dict/Feature 错误：词不在词典中（NOT_FOUND）
//   - Model 错误：超参数或输入形状非法（INVALID_INPUT）
//   - Eval 错误：相关系数未定义、无可比较样本对
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "dict", "model"）
	Err     error  // 底层错误，可为 nil

	base *DomainError
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 使 Wrap 出来的错误仍能通过 errors.Is 匹配原哨兵错误。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e == t || (e.base != nil && e.base == t)
}

// Wrap 基于当前错误生成携带上下文和底层错误的新错误，Code/Module 不变。
// 多次 Wrap 仍指向最初的哨兵错误。
func (e *DomainError) Wrap(detail string, err error) *DomainError {
	msg := e.Message
	if detail != "" {
		msg = e.Message + " (" + detail + ")"
	}
	base := e
	if e.base != nil {
		base = e.base
	}
	return &DomainError{Code: e.Code, Message: msg, Module: e.Module, Err: err, base: base}
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleDict    = "dict"    // 词典模块
	ModuleFeature = "feature" // 特征模块
	ModuleModel   = "model"   // 模型模块
	ModuleEval    = "eval"    // 评估模块
	ModuleDataset = "dataset" // 数据集模块
	ModuleConfig  = "config"  // 配置模块
)

// 领域哨兵错误
var (
	// ErrTokenNotInDict 表示词不在词典中；没有 OOV 兜底，调用方应先用全量语料建词典。
	ErrTokenNotInDict = NewDomainError(ModuleDict, ErrorCodeNotFound, "dict: token not in dictionary")

	// ErrUndefinedCorrelation 表示 Pearson 相关系数为 NaN/Inf（如某一序列方差为 0）。
	ErrUndefinedCorrelation = NewDomainError(ModuleEval, ErrorCodeInvalidInput, "eval: pearson correlation undefined")

	// ErrNoComparablePairs 表示 DOA 没有任何可计数的样本对。
	ErrNoComparablePairs = NewDomainError(ModuleEval, ErrorCodeNotFound, "eval: no comparable pairs")

	// ErrLengthMismatch 表示真实值与预测值长度不一致。
	ErrLengthMismatch = NewDomainError(ModuleEval, ErrorCodeInvalidInput, "eval: length mismatch")

	// ErrShape 表示网络超参数或输入形状非法。
	ErrShape = NewDomainError(ModuleModel, ErrorCodeInvalidInput, "model: invalid shape")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
