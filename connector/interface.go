// Package connector 为 ldapx 提供统一的 LDAP 连接管理能力。
//
// 核心特性：
//   - 统一抽象：通过 Connector 接口提供一致的连接管理 API
//   - 类型安全：通过 TypedConnector[T] 泛型接口确保编译时类型检查
//   - 健康检查：基于 WhoAmI 扩展操作验证连接状态
//   - 并发安全：所有公开方法均为并发安全，支持多协程同时访问
//   - 资源管理：遵循"谁创建，谁负责释放"原则，Close() 应在应用层调用
//
// 设计理念：
//   - 接口优先：定义清晰的接口契约，实现细节可替换
//   - 显式依赖注入：通过构造函数注入依赖，避免全局状态
//   - 幂等连接：Connect() 方法可安全重复调用
//   - 延迟连接：NewLDAP() 创建连接器但不立即建立连接，Connect() 时才连接
//
// 基本使用：
//
//	cfg := &connector.Config{
//	    URL:          "ldap://127.0.0.1:389",
//	    BindDN:       "cn=admin,dc=example,dc=org",
//	    BindPassword: "secret",
//	}
//	conn, err := connector.NewLDAP(cfg, connector.WithLogger(logger))
//	if err != nil {
//	    panic(err)
//	}
//	defer conn.Close()
//
//	// 建立连接（幂等，可多次调用）
//	if err := conn.Connect(ctx); err != nil {
//	    panic(err)
//	}
//
// 上下文获取与释放：
//
//	template 组件通过 ContextSource 接口借用连接器。
//	每次 AcquireContext 返回一条独占的已绑定连接，
//	用毕必须交还 ReleaseContext，连接随之关闭。
//	连接池、重试等高级能力不在本层实现。
package connector

import (
	"context"

	"github.com/go-ldap/ldap/v3"
)

// Connector 定义所有连接器的通用行为。
//
// 接口方法均为并发安全，可从多个协程同时调用。
type Connector interface {
	// Connect 建立连接。
	//
	// 此方法是幂等的，可安全多次调用。首次调用时建立连接，
	// 后续调用直接返回 nil。连接过程阻塞直到成功或失败。
	//
	// 返回错误：
	//   - ErrConnection: 连接建立失败
	//   - ErrConfig: 配置无效
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源。
	//
	// 此方法是幂等的,可安全多次调用。关闭后，
	// GetClient() 将返回 nil，HealthCheck() 将返回 ErrClientNil。
	//
	// 重要：应在应用层通过 defer 确保调用，遵循"谁创建，谁负责释放"原则。
	Close() error

	// HealthCheck 检查连接健康状态。
	//
	// 通过 WhoAmI 扩展操作验证连接可用性。此方法会更新内部健康状态缓存，
	// 可通过 IsHealthy() 快速读取。
	//
	// 返回错误：
	//   - ErrClientNil: 客户端未初始化或已关闭
	//   - ErrHealthCheck: 健康检查失败
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回缓存的健康状态。
	//
	// 此方法无阻塞，直接返回最后一次 HealthCheck() 的结果。
	IsHealthy() bool

	// Name 返回连接实例名称。
	//
	// 名称用于日志记录和指标标识，应在配置中唯一标识此连接器实例。
	Name() string
}

// TypedConnector 提供类型安全的客户端访问。
//
// 此接口组合了 Connector 基础接口，并添加了 GetClient() 方法
// 用于获取特定类型的客户端。
//
// 类型参数 T 是客户端类型，如 *ldap.Conn。
type TypedConnector[T any] interface {
	Connector

	// GetClient 返回底层客户端实例。
	//
	// 注意：在 Connect() 之前或 Close() 之后调用可能返回 nil。
	GetClient() T
}

// ContextSource 定义目录上下文的获取与释放。
//
// 这是 template 组件消费的协作者接口：一次 AcquireContext
// 产出一条独占连接，同一次调用内用毕即通过 ReleaseContext 归还。
// 连接句柄不得跨协程共享。
type ContextSource interface {
	// AcquireContext 建立并绑定一条新的 LDAP 连接。
	//
	// 返回的连接由调用方独占，用毕必须调用 ReleaseContext。
	//
	// 返回错误：
	//   - ErrAlreadyClosed: 连接器已关闭
	//   - ErrConnection: 拨号或绑定失败
	AcquireContext(ctx context.Context) (*ldap.Conn, error)

	// ReleaseContext 关闭一条由 AcquireContext 产出的连接。
	//
	// conn 为 nil 时为空操作。
	ReleaseContext(conn *ldap.Conn) error
}

// LDAPConnector LDAP 连接器接口。
//
// 提供对 LDAP 目录服务器的连接管理，基于 go-ldap 客户端库。
// 同时实现 ContextSource，可直接注入 template 组件。
type LDAPConnector interface {
	TypedConnector[*ldap.Conn]
	ContextSource
}
