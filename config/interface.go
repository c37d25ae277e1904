// Package config 为 ldapx 提供统一的配置管理能力。
// 支持多源配置加载和热更新，基于 Viper 实现。
//
// 特性：
//   - 多源配置加载：YAML/JSON 文件、环境变量、.env 文件
//   - 配置优先级：环境变量 > .env > 配置文件
//   - 热更新支持：监听配置文件变化，自动通知应用
//   - 接口优先设计：基于接口的 API，隐藏实现细节
//
// 基本使用：
//
//	loader, err := config.New(&config.Config{
//	    Name:      "ldapx",
//	    Paths:     []string{".", "./config"},
//	    EnvPrefix: "LDAPX",
//	})
//	if err != nil {
//	    panic(err)
//	}
//	if err := loader.Load(ctx); err != nil {
//	    panic(err)
//	}
//
//	var connCfg connector.Config
//	if err := loader.UnmarshalKey("connector", &connCfg); err != nil {
//	    panic(err)
//	}
//
//	// 监听配置变化
//	ch, _ := loader.Watch(ctx, "template.slow_threshold")
//	for event := range ch {
//	    fmt.Printf("配置变化: %s = %v\n", event.Key, event.Value)
//	}
package config

import (
	"context"
	"time"
)

// Loader 定义配置加载器的核心行为
// 职责：加载、解析和监听配置变化
type Loader interface {
	// Load 加载配置并初始化内部状态
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 监听配置变化，通过 context 取消监听
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Event 配置变更事件
type Event struct {
	Key       string // 配置 key
	Value     any    // 新值
	OldValue  any    // 旧值
	Source    string // 变更来源，目前仅有 "file"（配置文件热更新）
	Timestamp time.Time
}
