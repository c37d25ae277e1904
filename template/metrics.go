package template

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase 表示被计时的生命周期阶段
type Phase string

const (
	// PhaseAcquire 获取目录上下文
	PhaseAcquire Phase = "acquire"

	// PhaseSearch 执行委托给底层客户端的操作
	PhaseSearch Phase = "search"

	// PhaseRelease 释放目录上下文
	PhaseRelease Phase = "release"
)

// Scope 指标隔离作用域
//
// 每个 Scope 持有一份私有的阶段耗时快照。一个执行单元
//（协程或逻辑任务）对应一个 Scope，跨执行单元不共享。
// 同一阶段多次记录时保留最近一次的耗时，与快照的
// "每次调用最多写三个键" 语义一致。
type Scope struct {
	id        string
	mu        sync.Mutex
	durations map[Phase]time.Duration
}

// newScope 创建独立作用域（内部使用）
func newScope() *Scope {
	return &Scope{
		id:        uuid.NewString(),
		durations: make(map[Phase]time.Duration),
	}
}

type scopeCtxKey struct{}

// NewScope 创建新的指标作用域并挂载到 Context
//
// 返回的 Context 应贯穿本执行单元内的所有模板调用。
// 复用执行单元时，逻辑操作之间应调用 Scope.Reset 或
// Template.ResetMetrics 清除上一次操作的残留指标。
func NewScope(ctx context.Context) (context.Context, *Scope) {
	sc := newScope()
	return context.WithValue(ctx, scopeCtxKey{}, sc), sc
}

// ScopeFromContext 提取 Context 携带的作用域
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	sc, ok := ctx.Value(scopeCtxKey{}).(*Scope)
	return sc, ok
}

// ID 返回作用域标识，用于日志关联
func (s *Scope) ID() string {
	return s.id
}

// record 记录一个阶段的耗时（内部使用）
func (s *Scope) record(phase Phase, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations[phase] = elapsed
}

// Metrics 返回当前指标快照的独立副本
func (s *Scope) Metrics() map[Phase]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[Phase]time.Duration, len(s.durations))
	for phase, elapsed := range s.durations {
		snapshot[phase] = elapsed
	}
	return snapshot
}

// Reset 清空指标快照，幂等
func (s *Scope) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.durations)
}
