package template

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ceyewan/ldapx/clog"
	"github.com/ceyewan/ldapx/xerrors"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource 可编程的 ContextSource 测试替身
//
// 句柄对模板完全不透明，测试中直接返回 nil 连接即可。
type fakeSource struct {
	mu         sync.Mutex
	acquireErr error
	releaseErr error
	acquires   int
	releases   int
}

func (f *fakeSource) AcquireContext(ctx context.Context) (*ldap.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquires++
	return nil, nil
}

func (f *fakeSource) ReleaseContext(conn *ldap.Conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return f.releaseErr
}

func (f *fakeSource) counts() (acquires, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquires, f.releases
}

// newTestTemplate 构造注入 fakeSource 的模板（测试辅助）
func newTestTemplate(t *testing.T, src *fakeSource) *Template {
	t.Helper()
	tpl, err := New(src, &Config{Name: "test"}, WithLogger(clog.Discard()))
	require.NoError(t, err)
	return tpl
}

// TestNewValidation 测试构造参数校验
func TestNewValidation(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		_, err := New(nil, &Config{})
		assert.ErrorIs(t, err, ErrSourceNil)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		tpl, err := New(&fakeSource{}, nil, WithLogger(clog.Discard()))
		require.NoError(t, err)
		assert.Equal(t, "default", tpl.cfg.Name)
	})

	t.Run("negative slow threshold", func(t *testing.T) {
		_, err := New(&fakeSource{}, &Config{SlowThreshold: -time.Second})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "slow_threshold")
	})
}

// TestExecuteWithResultHappyPath 测试成功路径：返回结果且三个阶段均被计时
func TestExecuteWithResultHappyPath(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	ctx, _ := NewScope(context.Background())

	result, err := ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (string, error) {
		time.Sleep(time.Millisecond)
		return "uid=alice", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "uid=alice", result)

	acquires, releases := src.counts()
	assert.Equal(t, 1, acquires)
	assert.Equal(t, 1, releases)

	// 快照应恰好包含三个阶段键，耗时非负
	snapshot := tpl.GetMetrics(ctx)
	require.Len(t, snapshot, 3)
	for _, phase := range []Phase{PhaseAcquire, PhaseSearch, PhaseRelease} {
		elapsed, ok := snapshot[phase]
		assert.True(t, ok, "快照缺少 %s 阶段", phase)
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	}
	assert.GreaterOrEqual(t, snapshot[PhaseSearch], time.Millisecond)
}

// TestExecuteAcquireFailure 测试获取失败：错误归类为 acquire，且不记录任何指标
func TestExecuteAcquireFailure(t *testing.T) {
	src := &fakeSource{acquireErr: xerrors.New("dial tcp: connection refused")}
	tpl := newTestTemplate(t, src)
	ctx, _ := NewScope(context.Background())

	_, err := ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (int, error) {
		t.Fatal("获取失败时 action 不应被调用")
		return 0, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAcquire)
	assert.NotErrorIs(t, err, ErrOperation)
	// 原始错误消息完整保留
	assert.Contains(t, err.Error(), "connection refused")

	phase, ok := FailedPhase(err)
	require.True(t, ok)
	assert.Equal(t, PhaseAcquire, phase)

	// 无可释放资源，不应有任何指标或释放调用
	_, releases := src.counts()
	assert.Equal(t, 0, releases)
	assert.Empty(t, tpl.GetMetrics(ctx))
}

// TestExecuteOperationFailure 测试操作失败：释放仍然执行，search 耗时仍被记录
func TestExecuteOperationFailure(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	ctx, _ := NewScope(context.Background())

	actionErr := xerrors.New("LDAP Result Code 201: filter compile error")
	_, err := ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (int, error) {
		return 0, actionErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperation)
	assert.ErrorIs(t, err, actionErr)
	// 调用方看到的是 action 的原始消息，而不是释放相关的消息
	assert.Contains(t, err.Error(), "filter compile error")

	// 释放恰好执行一次，release 与 search 的耗时都已记录
	_, releases := src.counts()
	assert.Equal(t, 1, releases)
	snapshot := tpl.GetMetrics(ctx)
	assert.Contains(t, snapshot, PhaseSearch)
	assert.Contains(t, snapshot, PhaseRelease)
}

// TestExecuteReleaseFailureSwallowed 测试释放失败被吞掉：调用方拿到成功结果
func TestExecuteReleaseFailureSwallowed(t *testing.T) {
	src := &fakeSource{releaseErr: xerrors.New("unbind failed")}
	tpl := newTestTemplate(t, src)
	ctx, _ := NewScope(context.Background())

	result, err := ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	// release 耗时仍被记录
	assert.Contains(t, tpl.GetMetrics(ctx), PhaseRelease)
}

// TestExecuteActionPanicStillReleases 测试 action panic 时释放仍然执行
func TestExecuteActionPanicStillReleases(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)
	ctx, _ := NewScope(context.Background())

	assert.Panics(t, func() {
		_, _ = ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (int, error) {
			panic("boom")
		})
	})

	_, releases := src.counts()
	assert.Equal(t, 1, releases)
	// 崩溃路径上 search 耗时不可观测，但 release 必达
	snapshot := tpl.GetMetrics(ctx)
	assert.Contains(t, snapshot, PhaseRelease)
	assert.NotContains(t, snapshot, PhaseSearch)
}

// TestExecuteNilAction 测试空 action
func TestExecuteNilAction(t *testing.T) {
	tpl := newTestTemplate(t, &fakeSource{})
	_, err := ExecuteWithResult[int](context.Background(), tpl, nil)
	assert.ErrorIs(t, err, ErrNilAction)
}

// TestScopeIsolation 测试并发执行单元间的指标隔离
func TestScopeIsolation(t *testing.T) {
	src := &fakeSource{}
	tpl := newTestTemplate(t, src)

	ctxFast, scopeFast := NewScope(context.Background())
	ctxSlow, scopeSlow := NewScope(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = ExecuteWithResult(ctxFast, tpl, func(conn *ldap.Conn) (int, error) {
			return 1, nil
		})
	}()
	go func() {
		defer wg.Done()
		_, _ = ExecuteWithResult(ctxSlow, tpl, func(conn *ldap.Conn) (int, error) {
			time.Sleep(20 * time.Millisecond)
			return 2, nil
		})
	}()
	wg.Wait()

	fast := scopeFast.Metrics()
	slow := scopeSlow.Metrics()
	require.Len(t, fast, 3)
	require.Len(t, slow, 3)

	// 各自只反映自己的耗时，慢操作不会污染快操作的快照
	assert.GreaterOrEqual(t, slow[PhaseSearch], 20*time.Millisecond)
	assert.Less(t, fast[PhaseSearch], 20*time.Millisecond)

	// 模板级默认作用域未被任何一方写入
	assert.Empty(t, tpl.GetMetrics(context.Background()))
}

// TestDefaultScopeFallback 测试未注入作用域时回退到模板级默认作用域
func TestDefaultScopeFallback(t *testing.T) {
	tpl := newTestTemplate(t, &fakeSource{})

	_, err := ExecuteWithResult(context.Background(), tpl, func(conn *ldap.Conn) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	assert.Len(t, tpl.GetMetrics(context.Background()), 3)

	tpl.ResetMetrics(context.Background())
	assert.Empty(t, tpl.GetMetrics(context.Background()))
}

// TestResetMetricsIdempotent 测试重置幂等性
func TestResetMetricsIdempotent(t *testing.T) {
	tpl := newTestTemplate(t, &fakeSource{})
	ctx, _ := NewScope(context.Background())

	// 对空作用域重置无副作用
	tpl.ResetMetrics(ctx)
	assert.Empty(t, tpl.GetMetrics(ctx))

	_, err := ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, tpl.GetMetrics(ctx))

	// 连续两次重置等价于一次
	tpl.ResetMetrics(ctx)
	tpl.ResetMetrics(ctx)
	assert.Empty(t, tpl.GetMetrics(ctx))
}

// TestGetMetricsReturnsCopy 测试快照副本与内部状态解耦
func TestGetMetricsReturnsCopy(t *testing.T) {
	tpl := newTestTemplate(t, &fakeSource{})
	ctx, _ := NewScope(context.Background())

	_, err := ExecuteWithResult(ctx, tpl, func(conn *ldap.Conn) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	snapshot := tpl.GetMetrics(ctx)
	snapshot[PhaseAcquire] = -time.Hour
	delete(snapshot, PhaseRelease)

	fresh := tpl.GetMetrics(ctx)
	assert.GreaterOrEqual(t, fresh[PhaseAcquire], time.Duration(0))
	assert.Contains(t, fresh, PhaseRelease)
}

// TestSlowPhaseWarning 测试慢操作阈值日志不影响调用结果
func TestSlowPhaseWarning(t *testing.T) {
	src := &fakeSource{}
	tpl, err := New(src, &Config{Name: "slow", SlowThreshold: time.Millisecond},
		WithLogger(clog.Discard()))
	require.NoError(t, err)

	result, err := ExecuteWithResult(context.Background(), tpl, func(conn *ldap.Conn) (int, error) {
		time.Sleep(2 * time.Millisecond)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}
