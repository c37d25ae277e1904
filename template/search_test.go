package template

import (
	"context"
	"testing"

	"github.com/ceyewan/ldapx/xerrors"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSearch 让模板的委托搜索返回预设结果（测试辅助）
func stubSearch(tpl *Template, res *ldap.SearchResult, err error) *[]*ldap.SearchRequest {
	var requests []*ldap.SearchRequest
	tpl.search = func(conn *ldap.Conn, req *ldap.SearchRequest) (*ldap.SearchResult, error) {
		requests = append(requests, req)
		return res, err
	}
	return &requests
}

func entriesResult(dns ...string) *ldap.SearchResult {
	res := &ldap.SearchResult{}
	for _, dn := range dns {
		res.Entries = append(res.Entries, &ldap.Entry{DN: dn})
	}
	return res
}

// TestSearchValidation 测试搜索参数校验
func TestSearchValidation(t *testing.T) {
	tpl := newTestTemplate(t, &fakeSource{})
	handler := EntryHandlerFunc(func(entry *ldap.Entry) error { return nil })

	t.Run("empty base", func(t *testing.T) {
		err := tpl.Search(context.Background(), "", "(objectClass=*)", nil, handler, nil)
		assert.ErrorIs(t, err, ErrEmptyBase)
	})

	t.Run("nil handler", func(t *testing.T) {
		err := tpl.Search(context.Background(), "dc=example,dc=org", "(objectClass=*)", nil, nil, nil)
		assert.ErrorIs(t, err, ErrNilHandler)
	})
}

// TestSearchHappyPath 测试流式搜索成功路径
func TestSearchHappyPath(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	requests := stubSearch(tpl, entriesResult("uid=alice,dc=example,dc=org", "uid=bob,dc=example,dc=org"), nil)
	ctx, _ := NewScope(context.Background())

	var seen []string
	handler := EntryHandlerFunc(func(entry *ldap.Entry) error {
		seen = append(seen, entry.DN)
		return nil
	})

	controls := &SearchControls{
		Scope:      ldap.ScopeWholeSubtree,
		SizeLimit:  100,
		Attributes: []string{"uid", "cn"},
	}
	err := tpl.Search(ctx, "dc=example,dc=org", "(uid=*)", controls, handler, nil)
	require.NoError(t, err)

	// 每条结果恰好分发一次
	assert.Equal(t, []string{"uid=alice,dc=example,dc=org", "uid=bob,dc=example,dc=org"}, seen)

	// 搜索参数原样传递给底层客户端
	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "dc=example,dc=org", req.BaseDN)
	assert.Equal(t, "(uid=*)", req.Filter)
	assert.Equal(t, ldap.ScopeWholeSubtree, req.Scope)
	assert.Equal(t, 100, req.SizeLimit)
	assert.Equal(t, []string{"uid", "cn"}, req.Attributes)

	// 三个阶段均被计时，释放执行一次
	_, releases := src.counts()
	assert.Equal(t, 1, releases)
	assert.Len(t, tpl.GetMetrics(ctx), 3)
}

// TestSearchDelegateFailure 测试底层搜索失败：归类为操作错误，释放仍执行
func TestSearchDelegateFailure(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	searchErr := xerrors.New("LDAP Result Code 32: No Such Object")
	stubSearch(tpl, nil, searchErr)
	ctx, _ := NewScope(context.Background())

	handler := EntryHandlerFunc(func(entry *ldap.Entry) error { return nil })
	err := tpl.Search(ctx, "dc=missing,dc=org", "(uid=*)", nil, handler, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperation)
	assert.Contains(t, err.Error(), "No Such Object")

	_, releases := src.counts()
	assert.Equal(t, 1, releases)
	assert.Contains(t, tpl.GetMetrics(ctx), PhaseSearch)
	assert.Contains(t, tpl.GetMetrics(ctx), PhaseRelease)
}

// TestSearchHandlerFailure 测试处理器中止搜索
func TestSearchHandlerFailure(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	stubSearch(tpl, entriesResult("uid=alice,dc=example,dc=org", "uid=bob,dc=example,dc=org"), nil)

	var handled int
	handlerErr := xerrors.New("attribute missing")
	handler := EntryHandlerFunc(func(entry *ldap.Entry) error {
		handled++
		return handlerErr
	})

	err := tpl.Search(context.Background(), "dc=example,dc=org", "(uid=*)", nil, handler, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperation)
	assert.ErrorIs(t, err, handlerErr)
	// 第一条失败即中止，不再分发后续条目
	assert.Equal(t, 1, handled)

	_, releases := src.counts()
	assert.Equal(t, 1, releases)
}

// TestSearchAcquireFailure 测试搜索的获取失败路径
func TestSearchAcquireFailure(t *testing.T) {
	src := &fakeSource{acquireErr: xerrors.New("connection refused")}
	tpl := newTestTemplate(t, src)
	ctx, _ := NewScope(context.Background())

	handler := EntryHandlerFunc(func(entry *ldap.Entry) error { return nil })
	err := tpl.Search(ctx, "dc=example,dc=org", "(uid=*)", nil, handler, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAcquire)
	assert.Empty(t, tpl.GetMetrics(ctx))

	_, releases := src.counts()
	assert.Equal(t, 0, releases)
}

// recordingProcessor 记录回调顺序的 SearchProcessor 测试替身
type recordingProcessor struct {
	calls  []string
	preErr error
}

func (p *recordingProcessor) PreProcess(req *ldap.SearchRequest) error {
	p.calls = append(p.calls, "pre")
	return p.preErr
}

func (p *recordingProcessor) PostProcess(res *ldap.SearchResult) error {
	p.calls = append(p.calls, "post")
	return nil
}

// TestSearchProcessorOrder 测试处理器在请求前后各被调用一次
func TestSearchProcessorOrder(t *testing.T) {
	tpl := newTestTemplate(t, &fakeSource{})
	stubSearch(tpl, entriesResult(), nil)

	proc := &recordingProcessor{}
	handler := EntryHandlerFunc(func(entry *ldap.Entry) error { return nil })
	err := tpl.Search(context.Background(), "dc=example,dc=org", "(uid=*)", nil, handler, proc)
	require.NoError(t, err)
	assert.Equal(t, []string{"pre", "post"}, proc.calls)
}

// TestSearchProcessorPreFailure 测试请求塑形失败归类为操作错误
func TestSearchProcessorPreFailure(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	requests := stubSearch(tpl, entriesResult(), nil)

	proc := &recordingProcessor{preErr: xerrors.New("cookie corrupted")}
	handler := EntryHandlerFunc(func(entry *ldap.Entry) error { return nil })
	err := tpl.Search(context.Background(), "dc=example,dc=org", "(uid=*)", nil, handler, proc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperation)

	// 塑形失败后不应发出请求，但释放仍执行
	assert.Empty(t, *requests)
	_, releases := src.counts()
	assert.Equal(t, 1, releases)
}

// TestPagingProcessor 测试分页控制的 cookie 传递
func TestPagingProcessor(t *testing.T) {
	proc := NewPagingProcessor(500)
	assert.False(t, proc.Done())

	// 首次请求附加分页控制
	req := &ldap.SearchRequest{}
	require.NoError(t, proc.PreProcess(req))
	require.Len(t, req.Controls, 1)
	paging, ok := req.Controls[0].(*ldap.ControlPaging)
	require.True(t, ok)
	assert.Equal(t, uint32(500), paging.PagingSize)

	// 服务端返回 cookie，表示还有后续分页
	res := &ldap.SearchResult{
		Controls: []ldap.Control{&ldap.ControlPaging{Cookie: []byte("next-page")}},
	}
	require.NoError(t, proc.PostProcess(res))
	assert.False(t, proc.Done())

	// 下一次请求复用同一控制，cookie 已更新
	req2 := &ldap.SearchRequest{}
	require.NoError(t, proc.PreProcess(req2))
	require.Len(t, req2.Controls, 1)
	assert.Equal(t, []byte("next-page"), req2.Controls[0].(*ldap.ControlPaging).Cookie)

	// 空 cookie 表示分页结束
	require.NoError(t, proc.PostProcess(&ldap.SearchResult{
		Controls: []ldap.Control{&ldap.ControlPaging{}},
	}))
	assert.True(t, proc.Done())

	// 无分页控制同样视为结束
	require.NoError(t, proc.PostProcess(&ldap.SearchResult{}))
	assert.True(t, proc.Done())
}
