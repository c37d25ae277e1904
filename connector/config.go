package connector

import (
	"strings"
	"time"

	"github.com/ceyewan/ldapx/xerrors"
)

// Config LDAP 连接配置
type Config struct {
	// 基础配置（可选，有默认值）
	Name        string        `mapstructure:"name"`         // 连接器名称 (默认: "default")
	DialTimeout time.Duration `mapstructure:"dial_timeout"` // 拨号超时 (默认: 5s)
	OpTimeout   time.Duration `mapstructure:"op_timeout"`   // 单次操作超时，0 表示使用 go-ldap 默认值

	// 核心配置
	URL          string `mapstructure:"url"`           // [必填] 服务器地址，ldap:// 或 ldaps://
	BindDN       string `mapstructure:"bind_dn"`       // 绑定 DN，为空则匿名访问
	BindPassword string `mapstructure:"bind_password"` // 绑定密码

	// TLS 配置（可选）
	StartTLS           bool   `mapstructure:"start_tls"`            // 是否在明文连接上升级 TLS
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"` // 跳过证书校验，仅用于测试环境
	ServerName         string `mapstructure:"server_name"`          // 证书校验使用的服务器名
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c == nil {
		return
	}
	if c.Name == "" {
		c.Name = "default"
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// validate 验证配置有效性
func (c *Config) validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.URL == "" {
		return xerrors.Wrap(ErrConfig, "url is required")
	}
	if !strings.HasPrefix(c.URL, "ldap://") && !strings.HasPrefix(c.URL, "ldaps://") && !strings.HasPrefix(c.URL, "ldapi://") {
		return xerrors.Wrapf(ErrConfig, "unsupported url scheme: %s", c.URL)
	}
	if c.StartTLS && strings.HasPrefix(c.URL, "ldaps://") {
		return xerrors.Wrap(ErrConfig, "start_tls conflicts with ldaps scheme")
	}
	if c.BindDN == "" && c.BindPassword != "" {
		return xerrors.Wrap(ErrConfig, "bind_password requires bind_dn")
	}
	return nil
}
