// Package clog 为 ldapx 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，便于区分组件（connector、template 等）
//   - 零外部依赖（仅依赖 Go 标准库）
//   - 采用函数式选项模式，与 ldapx 其他组件一致
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("context released", clog.Duration("elapsed", d))
//
// 使用函数式选项：
//
//	logger, _ := clog.New(&clog.Config{Level: "info"},
//	    clog.WithNamespace("ldapx", "template"),
//	)
package clog

import (
	"fmt"
	"sync/atomic"
)

// New 创建一个新的 Logger 实例
//
// config - 日志配置，如果为 nil 会使用默认配置
// opts   - 函数式选项列表，用于命名空间、Context 字段等配置
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// 应用选项
	options := applyOptions(opts...)

	// 调用内部实现
	return newLogger(config, options)
}

// loggerBox 统一 atomic.Value 中存储的具体类型
type loggerBox struct{ l Logger }

var defaultLogger atomic.Value // loggerBox

// Default 返回进程级默认 Logger
//
// 未显式设置时为 info 级别的 console Logger。
// 各组件在未注入 Logger 时使用此实例。
func Default() Logger {
	if b, ok := defaultLogger.Load().(loggerBox); ok {
		return b.l
	}
	l, err := New(DefaultConfig())
	if err != nil {
		// DefaultConfig 恒为合法配置
		panic(err)
	}
	defaultLogger.CompareAndSwap(nil, loggerBox{l: l})
	return defaultLogger.Load().(loggerBox).l
}

// SetDefault 替换进程级默认 Logger
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(loggerBox{l: l})
	}
}
