// Package template 为 ldapx 提供带阶段计时的 LDAP 操作模板。
//
// 核心特性：
//   - 三阶段计时：获取上下文（acquire）、执行操作（search）、释放上下文（release）
//   - 作用域隔离：指标按显式注入的 Scope 隔离，并发调用互不污染
//   - 释放保证：只要获取成功，释放必定执行且仅执行一次，包括 action panic 的退出路径
//   - 错误分类：按失败阶段区分错误种类，可通过 errors.Is 匹配，无需字符串判断
//
// 设计理念：
//   - 组合优先：模板只持有 connector.ContextSource 协作者引用，不做任何协议实现
//   - 同步装饰：不引入任何并发，调用在发起方执行单元上同步完成
//   - 透明传递：查询过滤器与搜索参数原样交给底层客户端，本层不校验语法
//
// 基本使用：
//
//	conn, _ := connector.NewLDAP(cfg)
//	tpl, _ := template.New(conn, &template.Config{Name: "user-lookup"})
//
//	ctx, _ := template.NewScope(context.Background())
//	entry, err := template.ExecuteWithResult(ctx, tpl, func(c *ldap.Conn) (*ldap.Entry, error) {
//	    res, err := c.Search(ldap.NewSearchRequest(...))
//	    if err != nil {
//	        return nil, err
//	    }
//	    return res.Entries[0], nil
//	})
//
//	for phase, elapsed := range tpl.GetMetrics(ctx) {
//	    fmt.Println(phase, elapsed)
//	}
//
// 指标归属：
//
//	未通过 NewScope 注入作用域时，指标记录到模板级默认作用域。
//	复用执行单元（如协程池）时应在逻辑操作之间调用 ResetMetrics。
package template

import (
	"context"
	"time"

	"github.com/ceyewan/ldapx/clog"
	"github.com/ceyewan/ldapx/connector"

	"github.com/go-ldap/ldap/v3"
)

// Template 带阶段计时的 LDAP 操作模板。
//
// 并发安全：同一实例可被多个协程同时使用，
// 各协程通过独立 Scope 获得互不干扰的指标快照。
type Template struct {
	src          connector.ContextSource
	cfg          *Config
	logger       clog.Logger
	defaultScope *Scope
	search       searchFunc
}

// New 创建操作模板
//
// 参数:
//   - src: 目录上下文来源，通常为 connector.NewLDAP 的返回值
//   - cfg: 模板配置，为 nil 时使用默认配置
//   - opts: 可选参数 (Logger)
//
// 使用示例:
//
//	conn, _ := connector.NewLDAP(ldapConfig)
//	tpl, _ := template.New(conn, &template.Config{
//	    Name:          "user-lookup",
//	    SlowThreshold: 200 * time.Millisecond,
//	}, template.WithLogger(logger))
func New(src connector.ContextSource, cfg *Config, opts ...Option) (*Template, error) {
	if src == nil {
		return nil, ErrSourceNil
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// 应用选项
	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Default()
	}

	return &Template{
		src:          src,
		cfg:          cfg,
		logger:       opt.logger.WithNamespace("template").With(clog.String("name", cfg.Name)),
		defaultScope: newScope(),
		search:       defaultSearch,
	}, nil
}

// ExecuteWithResult 执行一次带返回值的 LDAP 操作并计时
//
// 依次完成三个阶段：获取上下文、执行 action、释放上下文，
// 各阶段耗时记录到 ctx 所属 Scope 的指标快照中。
//
// 语义保证：
//   - 获取失败立即返回 ErrAcquire 类错误，不记录 search/release 指标
//   - action 返回错误时 search 耗时仍被记录，随后返回 ErrOperation 类错误
//   - 只要获取成功，释放必定执行；释放失败仅记录日志，不影响返回值
//
// action 不得保留 conn 的引用，句柄仅在本次调用内有效。
func ExecuteWithResult[T any](ctx context.Context, t *Template, action func(conn *ldap.Conn) (T, error)) (T, error) {
	var zero T
	if action == nil {
		return zero, ErrNilAction
	}
	sc := t.scopeFor(ctx)

	start := time.Now()
	conn, err := t.src.AcquireContext(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "acquiring directory context failed", clog.Error(err))
		return zero, &PhaseError{Phase: PhaseAcquire, Err: err}
	}
	elapsed := time.Since(start)
	sc.record(PhaseAcquire, elapsed)
	t.warnIfSlow(ctx, PhaseAcquire, elapsed)

	// 获取成功后释放必达，action panic 时也会执行
	defer t.releaseTimed(ctx, sc, conn)

	start = time.Now()
	result, err := action(conn)
	elapsed = time.Since(start)
	sc.record(PhaseSearch, elapsed)
	t.warnIfSlow(ctx, PhaseSearch, elapsed)
	if err != nil {
		t.logger.ErrorContext(ctx, "execution of ldap callback failed", clog.Error(err))
		return zero, &PhaseError{Phase: PhaseSearch, Err: err}
	}

	return result, nil
}

// GetMetrics 返回 ctx 所属 Scope 的指标快照副本
//
// 返回值是独立副本，调用方修改不影响内部状态。
func (t *Template) GetMetrics(ctx context.Context) map[Phase]time.Duration {
	return t.scopeFor(ctx).Metrics()
}

// ResetMetrics 清空 ctx 所属 Scope 的指标快照
//
// 幂等操作，对空快照调用无副作用。
func (t *Template) ResetMetrics(ctx context.Context) {
	t.scopeFor(ctx).Reset()
}

// scopeFor 返回 ctx 携带的 Scope，未携带时回退到模板级默认作用域（内部使用）
func (t *Template) scopeFor(ctx context.Context) *Scope {
	if sc, ok := ScopeFromContext(ctx); ok {
		return sc
	}
	return t.defaultScope
}

// releaseTimed 释放目录上下文并记录耗时（内部使用）
//
// 释放失败只记录日志，绝不覆盖调用方的待返回结果或错误。
func (t *Template) releaseTimed(ctx context.Context, sc *Scope, conn *ldap.Conn) {
	start := time.Now()
	err := t.src.ReleaseContext(conn)
	elapsed := time.Since(start)
	sc.record(PhaseRelease, elapsed)
	t.warnIfSlow(ctx, PhaseRelease, elapsed)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to release directory context",
			clog.Error(err), clog.String("scope_id", sc.ID()))
		return
	}
	t.logger.InfoContext(ctx, "released directory context",
		clog.Duration("elapsed", elapsed), clog.String("scope_id", sc.ID()))
}

// warnIfSlow 超过慢操作阈值时输出警告（内部使用）
func (t *Template) warnIfSlow(ctx context.Context, phase Phase, elapsed time.Duration) {
	if t.cfg.SlowThreshold > 0 && elapsed >= t.cfg.SlowThreshold {
		t.logger.WarnContext(ctx, "slow ldap phase",
			clog.String("phase", string(phase)),
			clog.Duration("elapsed", elapsed),
			clog.Duration("threshold", t.cfg.SlowThreshold))
	}
}
