package template

import (
	"fmt"

	"github.com/ceyewan/ldapx/xerrors"
)

// Sentinel Errors - 模板专用的哨兵错误
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("template: config is nil")

	// ErrSourceNil 上下文来源为空
	ErrSourceNil = xerrors.New("template: context source is nil")

	// ErrNilAction 操作闭包为空
	ErrNilAction = xerrors.New("template: action is nil")

	// ErrEmptyBase 搜索基准 DN 为空
	ErrEmptyBase = xerrors.New("template: search base is empty")

	// ErrNilHandler 结果处理器为空
	ErrNilHandler = xerrors.New("template: entry handler is nil")
)

// 阶段错误类别，供 errors.Is 匹配失败阶段
var (
	// ErrAcquire 获取目录上下文失败
	ErrAcquire = xerrors.New("template: acquire phase failed")

	// ErrOperation 委托操作执行失败
	ErrOperation = xerrors.New("template: operation phase failed")

	// ErrRelease 释放目录上下文失败
	// 该类错误只出现在日志中，永远不会返回给调用方
	ErrRelease = xerrors.New("template: release phase failed")
)

// PhaseError 标记失败发生在哪个生命周期阶段的错误
//
// 原始错误消息通过 Unwrap 链完整保留。
// 可用 errors.Is(err, ErrAcquire/ErrOperation) 匹配阶段，
// 无需对错误文本做字符串判断。
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("template: %s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Is 将阶段映射到对应的哨兵错误
func (e *PhaseError) Is(target error) bool {
	switch target {
	case ErrAcquire:
		return e.Phase == PhaseAcquire
	case ErrOperation:
		return e.Phase == PhaseSearch
	case ErrRelease:
		return e.Phase == PhaseRelease
	default:
		return false
	}
}

// FailedPhase 从错误链中提取失败阶段
func FailedPhase(err error) (Phase, bool) {
	var phaseErr *PhaseError
	if xerrors.As(err, &phaseErr) {
		return phaseErr.Phase, true
	}
	return "", false
}
