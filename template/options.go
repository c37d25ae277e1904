package template

import "github.com/ceyewan/ldapx/clog"

// Option 模板初始化选项函数
type Option func(*options)

// options 选项结构（内部使用，小写）
type options struct {
	logger clog.Logger
}

// WithLogger 注入日志记录器
// 模板会自动追加 namespace=template 与 name 字段
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
