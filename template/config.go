package template

import (
	"time"

	"github.com/ceyewan/ldapx/xerrors"
)

// Config 模板静态配置
type Config struct {
	// Name 模板名称，用于日志标识，例如 "user-lookup"
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// SlowThreshold 慢操作阈值
	// 任一阶段耗时达到该值时输出 warn 日志；0 表示关闭
	SlowThreshold time.Duration `json:"slow_threshold" yaml:"slow_threshold" mapstructure:"slow_threshold"`
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c == nil {
		return
	}
	if c.Name == "" {
		c.Name = "default"
	}
}

// validate 验证配置有效性
func (c *Config) validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.SlowThreshold < 0 {
		return xerrors.New("template: slow_threshold must not be negative")
	}
	return nil
}
