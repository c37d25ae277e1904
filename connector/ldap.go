package connector

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ceyewan/ldapx/clog"
	"github.com/ceyewan/ldapx/xerrors"

	"github.com/go-ldap/ldap/v3"
)

type ldapConnector struct {
	cfg     *Config
	logger  clog.Logger
	mu      sync.Mutex
	client  *ldap.Conn
	closed  bool
	healthy atomic.Bool
}

// NewLDAP 创建 LDAP 连接器
func NewLDAP(cfg *Config, opts ...Option) (LDAPConnector, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid ldap config")
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	return &ldapConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", "ldap"), clog.String("name", cfg.Name)),
	}, nil
}

// Connect 建立主连接
func (c *ldapConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAlreadyClosed
	}
	if c.client != nil {
		return nil
	}

	c.logger.Info("attempting to connect to ldap server", clog.String("url", c.cfg.URL))

	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Error("failed to connect to ldap server", clog.Error(err), clog.String("url", c.cfg.URL))
		return xerrors.Wrapf(ErrConnection, "ldap connector[%s]: %v", c.cfg.Name, err)
	}

	c.client = conn
	c.healthy.Store(true)
	c.logger.Info("successfully connected to ldap server", clog.String("url", c.cfg.URL))

	return nil
}

// Close 关闭主连接
func (c *ldapConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.healthy.Store(false)

	if c.client == nil {
		return nil
	}
	c.logger.Info("closing ldap connection", clog.String("url", c.cfg.URL))

	err := c.client.Close()
	c.client = nil
	if err != nil {
		c.logger.Error("failed to close ldap connection", clog.Error(err))
		return xerrors.Wrapf(err, "ldap connector[%s]: close failed", c.cfg.Name)
	}
	c.logger.Info("ldap connection closed successfully")
	return nil
}

// HealthCheck 检查连接健康状态
//
// 通过 WhoAmI 扩展操作验证主连接可用。
func (c *ldapConnector) HealthCheck(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return ErrClientNil
	}

	if _, err := client.WhoAmI(nil); err != nil {
		c.healthy.Store(false)
		c.logger.Warn("ldap health check failed", clog.Error(err))
		return xerrors.Wrapf(ErrHealthCheck, "ldap connector[%s]: %v", c.cfg.Name, err)
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *ldapConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// Name 返回连接器名称
func (c *ldapConnector) Name() string {
	return c.cfg.Name
}

// GetClient 返回主连接
func (c *ldapConnector) GetClient() *ldap.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// AcquireContext 建立并绑定一条新的独占连接
func (c *ldapConnector) AcquireContext(ctx context.Context) (*ldap.Conn, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrAlreadyClosed
	}

	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to acquire ldap context", clog.Error(err))
		return nil, xerrors.Wrapf(ErrConnection, "ldap connector[%s]: acquire context: %v", c.cfg.Name, err)
	}

	c.logger.DebugContext(ctx, "acquired ldap context", clog.String("url", c.cfg.URL))
	return conn, nil
}

// ReleaseContext 关闭一条独占连接
func (c *ldapConnector) ReleaseContext(conn *ldap.Conn) error {
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return xerrors.Wrapf(err, "ldap connector[%s]: release context failed", c.cfg.Name)
	}
	return nil
}

// dial 按配置拨号、升级 TLS 并完成绑定（内部使用）
func (c *ldapConnector) dial(ctx context.Context) (*ldap.Conn, error) {
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < dialer.Timeout {
			dialer.Timeout = remaining
		}
	}

	dialOpts := []ldap.DialOpt{ldap.DialWithDialer(dialer)}
	if strings.HasPrefix(c.cfg.URL, "ldaps://") {
		dialOpts = append(dialOpts, ldap.DialWithTLSConfig(c.tlsConfig()))
	}

	conn, err := ldap.DialURL(c.cfg.URL, dialOpts...)
	if err != nil {
		return nil, err
	}

	if c.cfg.StartTLS {
		if err := conn.StartTLS(c.tlsConfig()); err != nil {
			_ = conn.Close()
			return nil, xerrors.Wrap(err, "start_tls failed")
		}
	}

	if c.cfg.OpTimeout > 0 {
		conn.SetTimeout(c.cfg.OpTimeout)
	}

	if c.cfg.BindDN != "" {
		if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
			_ = conn.Close()
			return nil, xerrors.Wrapf(err, "bind as %s failed", c.cfg.BindDN)
		}
	}

	return conn, nil
}

// tlsConfig 构造 TLS 配置（内部使用）
func (c *ldapConnector) tlsConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
		ServerName:         c.cfg.ServerName,
	}
}
