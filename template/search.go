package template

import (
	"context"
	"time"

	"github.com/ceyewan/ldapx/clog"

	"github.com/go-ldap/ldap/v3"
)

// SearchControls 结构化搜索参数
//
// 字段语义与 go-ldap 的 SearchRequest 对应，本层原样传递、不做校验。
// 零值表示 ScopeBaseObject、不解引用别名、无数量/时间限制、返回全部属性。
type SearchControls struct {
	// Scope 搜索深度，取 ldap.ScopeBaseObject、ldap.ScopeSingleLevel 或 ldap.ScopeWholeSubtree
	Scope int `json:"scope" yaml:"scope" mapstructure:"scope"`

	// DerefAliases 别名解引用策略，取 ldap.NeverDerefAliases 等常量
	DerefAliases int `json:"deref_aliases" yaml:"deref_aliases" mapstructure:"deref_aliases"`

	// SizeLimit 返回条目数上限，0 表示不限制
	SizeLimit int `json:"size_limit" yaml:"size_limit" mapstructure:"size_limit"`

	// TimeLimit 服务端搜索时间上限（秒），0 表示不限制
	TimeLimit int `json:"time_limit" yaml:"time_limit" mapstructure:"time_limit"`

	// TypesOnly 只返回属性名不返回属性值
	TypesOnly bool `json:"types_only" yaml:"types_only" mapstructure:"types_only"`

	// Attributes 要返回的属性列表，nil 表示全部
	Attributes []string `json:"attributes" yaml:"attributes" mapstructure:"attributes"`
}

// searchRequest 构造 go-ldap 搜索请求（内部使用）
func (c *SearchControls) searchRequest(base, filter string) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		base,
		c.Scope,
		c.DerefAliases,
		c.SizeLimit,
		c.TimeLimit,
		c.TypesOnly,
		filter,
		c.Attributes,
		nil,
	)
}

// EntryHandler 逐条消费搜索结果的能力对象
type EntryHandler interface {
	// HandleEntry 处理一条搜索结果
	// 返回错误会中止本次搜索，错误作为操作阶段失败返回给调用方
	HandleEntry(entry *ldap.Entry) error
}

// EntryHandlerFunc 函数适配器，使普通函数满足 EntryHandler
type EntryHandlerFunc func(entry *ldap.Entry) error

func (f EntryHandlerFunc) HandleEntry(entry *ldap.Entry) error {
	return f(entry)
}

// SearchProcessor 查询塑形的能力对象
//
// PreProcess 在请求发出前调用，可追加控制（如分页）；
// PostProcess 在结果返回后调用，可回收控制状态（如分页 cookie）。
type SearchProcessor interface {
	PreProcess(req *ldap.SearchRequest) error
	PostProcess(res *ldap.SearchResult) error
}

// Search 执行一次流式搜索并计时
//
// 操作阶段包含请求塑形（processor.PreProcess）、委托搜索、
// 逐条分发（handler.HandleEntry）与结果后处理（processor.PostProcess），
// 整体计入 search 指标。processor 可为 nil。
//
// 计时与释放语义同 ExecuteWithResult。
func (t *Template) Search(ctx context.Context, base, filter string, controls *SearchControls,
	handler EntryHandler, processor SearchProcessor) error {
	if base == "" {
		return ErrEmptyBase
	}
	if handler == nil {
		return ErrNilHandler
	}
	if controls == nil {
		controls = &SearchControls{}
	}
	sc := t.scopeFor(ctx)

	start := time.Now()
	conn, err := t.src.AcquireContext(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "acquiring directory context failed", clog.Error(err))
		return &PhaseError{Phase: PhaseAcquire, Err: err}
	}
	elapsed := time.Since(start)
	sc.record(PhaseAcquire, elapsed)
	t.warnIfSlow(ctx, PhaseAcquire, elapsed)

	defer t.releaseTimed(ctx, sc, conn)

	start = time.Now()
	err = t.doSearch(conn, base, filter, controls, handler, processor)
	elapsed = time.Since(start)
	sc.record(PhaseSearch, elapsed)
	t.warnIfSlow(ctx, PhaseSearch, elapsed)
	if err != nil {
		t.logger.ErrorContext(ctx, "execution of ldap search failed",
			clog.Error(err), clog.String("base", base))
		return &PhaseError{Phase: PhaseSearch, Err: err}
	}

	return nil
}

// searchFunc 委托搜索的执行点，测试中可替换（内部使用）
type searchFunc func(conn *ldap.Conn, req *ldap.SearchRequest) (*ldap.SearchResult, error)

// defaultSearch 将请求交给底层客户端（内部使用）
func defaultSearch(conn *ldap.Conn, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return conn.Search(req)
}

// doSearch 操作阶段的完整流程（内部使用）
func (t *Template) doSearch(conn *ldap.Conn, base, filter string, controls *SearchControls,
	handler EntryHandler, processor SearchProcessor) error {
	req := controls.searchRequest(base, filter)
	if processor != nil {
		if err := processor.PreProcess(req); err != nil {
			return err
		}
	}

	res, err := t.search(conn, req)
	if err != nil {
		return err
	}

	for _, entry := range res.Entries {
		if err := handler.HandleEntry(entry); err != nil {
			return err
		}
	}

	if processor != nil {
		if err := processor.PostProcess(res); err != nil {
			return err
		}
	}
	return nil
}
