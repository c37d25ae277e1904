package clog

import (
	"fmt"
	"strings"
)

// timeFormat 日志时间戳格式
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config 日志配置结构，定义日志的基本行为
//
// 支持的配置项：
//
//	Level: 日志级别 (debug|info|warn|error)
//	Format: 输出格式 (json|console)
//	Output: 输出目标 (stdout|stderr|文件路径)
//	AddSource: 是否显示调用位置信息
//
// 示例：
//
//	config := &clog.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "/var/log/ldapx.log",
//	}
type Config struct {
	Level     string `json:"level" yaml:"level" mapstructure:"level"`             // debug|info|warn|error
	Format    string `json:"format" yaml:"format" mapstructure:"format"`          // json|console
	Output    string `json:"output" yaml:"output" mapstructure:"output"`          // stdout|stderr|<file path>
	AddSource bool   `json:"addSource" yaml:"addSource" mapstructure:"addSource"` // 是否附带调用位置
}

// DefaultConfig 返回默认日志配置（info 级别，console 输出到 stdout）
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
}

// validate 验证配置的有效性（内部使用）
//
// 检查 Level 和 Format 是否在有效范围内，并为空值设置默认值。
func (c *Config) validate() error {
	// 设置默认值
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}

	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	format := strings.ToLower(c.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("invalid format: %s, must be json or console", c.Format)
	}
	// Output 字段可以是 stdout, stderr 或文件路径，不做严格校验
	return nil
}
